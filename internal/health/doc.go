// Package health probes the records service and the relay.
//
// # Health Status
//
//	StatusHealthy     - every probed target answered 2xx
//	StatusUnhealthy   - a target answered, but with an error status
//	StatusUnreachable - a target could not be reached
//
// # Probes
//
//	health.ProbeUpstream(ctx, url, client) // GET on the students collection
//	health.ProbeRelay(ctx, nil, relayURL)  // GET <relay>/healthz
//
// Combined:
//
//	result := health.Check(ctx, url, client, relayURL)
//	status := result.Summary()
//
// A probe without a deadline in its context is bounded by
// DefaultProbeTimeout.
package health
