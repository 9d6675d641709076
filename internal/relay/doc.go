// Package relay provides the same-origin HTTP pass-through to the records
// service.
//
// Requests under a local prefix (default /proxy) are forwarded to the
// upstream origin with the prefix stripped; the remaining path is carried
// over byte for byte. Bodies are classified once, before anything is sent:
// JSON is validated and compacted, multipart and urlencoded forms are
// re-encoded as a streamed multipart body, GET and DELETE carry none.
//
// # Error Modes
//
//   - unified (default): upstream statuses are propagated; an unreachable
//     upstream gives 502, a non-JSON error body keeps the upstream status,
//     a bad inbound body gives 400 and an unknown content type 415.
//   - compat: the per-method answers of the browser relay. Successes are
//     always 200, POST failures are a JSON 500, GET and PUT failures a
//     plain 500, DELETE turns a non-JSON answer into {"success":true}.
//
// Unified mode passes an upstream 204 through with an empty body for every
// method and turns a non-JSON success of a DELETE into {"success":true}.
// Compat mode passes a 204 through for DELETE only; GET, POST and PUT
// answer it with their usual 500.
//
// # Configuration
//
//	cfg := &relay.Config{
//	    ListenAddr:        ":3000",
//	    TargetURL:         "http://localhost:8888",
//	    Prefix:            "/proxy",
//	    ErrorMode:         relay.ModeUnified,
//	    RateLimitRequests: 600,
//	    RateLimitWindow:   time.Minute,
//	    AuditLogPath:      "/var/log/excellia/relay.log",
//	}
//
// # Running the Server
//
//	s, err := relay.NewServer(cfg)
//	if err != nil {
//	    return err
//	}
//	s.Run(ctx, 10*time.Second) // Blocks until ctx is cancelled
package relay
