package relay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// HeaderRequestID correlates a relayed request across both hops.
const HeaderRequestID = "X-Request-Id"

// forwardedHeaders is the only inbound header set sent upstream.
var forwardedHeaders = []string{"Accept", "Accept-Language", "Authorization"}

// Config holds relay configuration
type Config struct {
	// ListenAddr is the address the server listens on (e.g., ":3000")
	ListenAddr string

	// TargetURL is the upstream origin (e.g., "http://localhost:8888")
	TargetURL string

	// Prefix is the local path the relay is mounted on (e.g., "/proxy")
	Prefix string

	// ErrorMode selects the response mapping (default unified)
	ErrorMode ErrorMode

	// UpstreamTimeout bounds each outbound call (0 = inherit the inbound context only)
	UpstreamTimeout time.Duration

	// RateLimitRequests is the max requests per client per window (0 = unlimited)
	RateLimitRequests int

	// RateLimitWindow is the rate limit window duration
	RateLimitWindow time.Duration

	// AuditLogPath is the path to write audit logs (empty = no logging)
	AuditLogPath string

	// AllowedOrigins enables CORS for the listed origins
	AllowedOrigins []string

	// EnableMetrics mounts /metrics on the server
	EnableMetrics bool

	// Logger for relay operations
	Logger *slog.Logger

	// Transport is an optional HTTP transport for outbound calls.
	Transport http.RoundTripper
}

// Relay forwards requests under a local prefix to the upstream origin.
type Relay struct {
	config       *Config
	target       *url.URL
	reverseProxy *httputil.ReverseProxy
	rateLimiter  *rateLimiter
	auditLog     *auditLogger
	metrics      metrics
}

// New creates a new relay instance
func New(cfg *Config) (*Relay, error) {
	target, err := url.Parse(cfg.TargetURL)
	if err != nil {
		return nil, fmt.Errorf("invalid target URL: %w", err)
	}
	if target.Scheme != "http" && target.Scheme != "https" {
		return nil, fmt.Errorf("relay target must use http or https (got %q)", target.Scheme)
	}
	if target.Host == "" {
		return nil, fmt.Errorf("relay target %q has no host", cfg.TargetURL)
	}
	if cfg.Prefix == "" || cfg.Prefix == "/" {
		return nil, fmt.Errorf("relay prefix must not be empty")
	}
	if cfg.ErrorMode == "" {
		cfg.ErrorMode = ModeUnified
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	rl := &Relay{
		config:  cfg,
		target:  target,
		metrics: newMetrics(),
	}

	rl.reverseProxy = &httputil.ReverseProxy{
		Rewrite:        rl.rewrite,
		ModifyResponse: rl.modifyResponse,
		ErrorHandler:   rl.errorHandler,
		ErrorLog:       slog.NewLogLogger(cfg.Logger.Handler(), slog.LevelWarn),
	}
	if cfg.Transport != nil {
		rl.reverseProxy.Transport = cfg.Transport
	}

	if cfg.RateLimitRequests > 0 {
		rl.rateLimiter = newRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	}

	if cfg.AuditLogPath != "" {
		al, err := newAuditLogger(cfg.AuditLogPath, cfg.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create audit logger: %w", err)
		}
		rl.auditLog = al
	}

	return rl, nil
}

// exchange is the per-request state shared between ServeHTTP and the
// reverse proxy callbacks.
type exchange struct {
	id             string
	method         string
	path           string
	upstream       *url.URL
	start          time.Time
	upstreamStatus int
	failure        *relayError
}

type exchangeKey struct{}

func exchangeFrom(ctx context.Context) *exchange {
	ex, _ := ctx.Value(exchangeKey{}).(*exchange)
	return ex
}

// ServeHTTP implements http.Handler
func (rl *Relay) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ex := &exchange{
		id:     requestID(r),
		method: r.Method,
		path:   r.URL.EscapedPath(),
		start:  time.Now(),
	}
	w.Header().Set(HeaderRequestID, ex.id)
	lw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
	defer rl.finish(lw, r, ex)

	rl.config.Logger.Debug("relay request",
		"method", r.Method,
		"path", ex.path,
		"request_id", ex.id,
		"remote", r.RemoteAddr)

	if rl.rateLimiter != nil && !rl.rateLimiter.allow(clientKey(r.RemoteAddr)) {
		rl.config.Logger.Warn("rate limit exceeded", "remote", r.RemoteAddr, "request_id", ex.id)
		rl.metrics.RateLimited.Inc()
		writeBody(lw, http.StatusTooManyRequests, messageBody("Rate limit exceeded"))
		return
	}

	switch r.Method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete:
	default:
		lw.Header().Set("Allow", "GET, POST, PUT, DELETE")
		writeBody(lw, http.StatusMethodNotAllowed, messageBody("Method not allowed"))
		return
	}

	keepQuery := r.Method == http.MethodGet || rl.config.ErrorMode == ModeUnified
	upstream, err := Rewrite(rl.target, rl.config.Prefix, r.URL, keepQuery)
	if err != nil {
		writeBody(lw, http.StatusNotFound, messageBody("Not found"))
		return
	}
	ex.upstream = upstream

	kind := classify(r.Method, r.Header.Get("Content-Type"), rl.config.ErrorMode)
	if kind == payloadUnsupported {
		rl.fail(lw, ex, &relayError{
			kind: failUnsupportedMedia,
			err:  fmt.Errorf("unsupported content type %q", r.Header.Get("Content-Type")),
		})
		return
	}

	body, contentType, length, err := newPayload(kind).open(r)
	if err != nil {
		rl.fail(lw, ex, asRelayError(err))
		return
	}

	ctx := context.WithValue(r.Context(), exchangeKey{}, ex)
	if rl.config.UpstreamTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rl.config.UpstreamTimeout)
		defer cancel()
	}

	out := r.Clone(ctx)
	out.Header = outboundHeader(r.Header, contentType, ex.id)
	out.Body = body
	out.ContentLength = length
	out.TransferEncoding = nil

	rl.reverseProxy.ServeHTTP(lw, out)
}

func (rl *Relay) rewrite(pr *httputil.ProxyRequest) {
	ex := exchangeFrom(pr.In.Context())
	u := *ex.upstream
	pr.Out.URL = &u
	pr.Out.Host = ""
}

func (rl *Relay) modifyResponse(resp *http.Response) error {
	ex := exchangeFrom(resp.Request.Context())
	ex.upstreamStatus = resp.StatusCode
	rl.metrics.UpstreamLatency.WithLabelValues(ex.method).Observe(time.Since(ex.start).Seconds())

	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return &relayError{kind: failTransport, status: resp.StatusCode, err: err}
	}

	status, shaped, err := shapeResponse(ex.method, rl.config.ErrorMode, resp.StatusCode, data)
	if err != nil {
		return err
	}

	resp.StatusCode = status
	resp.Status = ""
	resp.Header = make(http.Header)
	resp.Trailer = nil
	if shaped == nil {
		resp.Body = http.NoBody
		resp.ContentLength = 0
		return nil
	}
	resp.Header.Set("Content-Type", mediaJSON)
	resp.Header.Set("Content-Length", strconv.Itoa(len(shaped)))
	resp.Body = io.NopCloser(bytes.NewReader(shaped))
	resp.ContentLength = int64(len(shaped))
	return nil
}

func (rl *Relay) errorHandler(w http.ResponseWriter, r *http.Request, err error) {
	ex := exchangeFrom(r.Context())
	re := asRelayError(err)
	if re.kind == failTransport && errors.Is(r.Context().Err(), context.DeadlineExceeded) {
		re.kind = failTimeout
	}
	rl.fail(w, ex, re)
}

// fail logs a failure and writes its mapped response.
func (rl *Relay) fail(w http.ResponseWriter, ex *exchange, re *relayError) {
	ex.failure = re
	rl.metrics.Failures.WithLabelValues(re.kind.String()).Inc()

	upstream := ""
	if ex.upstream != nil {
		upstream = ex.upstream.String()
	}
	rl.config.Logger.Warn("relay failure",
		"method", ex.method,
		"path", ex.path,
		"upstream", upstream,
		"request_id", ex.id,
		"kind", re.kind.String(),
		"error", re.err)

	status, body := failureResponse(ex.method, rl.config.ErrorMode, re)
	writeBody(w, status, body)
}

// finish records the exchange once the response has been written.
func (rl *Relay) finish(lw *loggingResponseWriter, r *http.Request, ex *exchange) {
	rl.metrics.Requests.WithLabelValues(ex.method, strconv.Itoa(lw.statusCode)).Inc()

	if rl.auditLog == nil {
		return
	}
	entry := auditEntry{
		Timestamp:      ex.start,
		Duration:       time.Since(ex.start),
		RequestID:      ex.id,
		Method:         ex.method,
		Path:           ex.path,
		StatusCode:     lw.statusCode,
		UpstreamStatus: ex.upstreamStatus,
		RequestSize:    r.ContentLength,
		RemoteAddr:     r.RemoteAddr,
	}
	if ex.upstream != nil {
		entry.Upstream = ex.upstream.String()
	}
	if ex.failure != nil {
		entry.Error = ex.failure.Error()
	}
	rl.auditLog.log(entry)
}

// Close closes the relay and releases resources
func (rl *Relay) Close() error {
	if rl.rateLimiter != nil {
		rl.rateLimiter.stop()
	}
	if rl.auditLog != nil {
		return rl.auditLog.close()
	}
	return nil
}

func outboundHeader(in http.Header, contentType, id string) http.Header {
	out := make(http.Header, len(forwardedHeaders)+2)
	for _, name := range forwardedHeaders {
		if values := in.Values(name); len(values) > 0 {
			out[name] = append([]string(nil), values...)
		}
	}
	if contentType != "" {
		out.Set("Content-Type", contentType)
	}
	out.Set(HeaderRequestID, id)
	return out
}

func requestID(r *http.Request) string {
	if id := r.Header.Get(HeaderRequestID); id != "" && len(id) <= 128 {
		return id
	}
	return uuid.NewString()
}

func clientKey(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

// loggingResponseWriter wraps http.ResponseWriter to capture status code
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lw *loggingResponseWriter) WriteHeader(code int) {
	lw.statusCode = code
	lw.ResponseWriter.WriteHeader(code)
}
