package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ZahirOuma/Excellia-FrontEnd/internal/api"
)

// Status represents the health of the records chain
type Status string

const (
	StatusHealthy     Status = "healthy"
	StatusUnhealthy   Status = "unhealthy"
	StatusUnreachable Status = "unreachable"

	// DefaultProbeTimeout bounds a single probe when the caller's context
	// carries no deadline.
	DefaultProbeTimeout = 5 * time.Second
)

// Pinger is anything that can reach the records service.
type Pinger interface {
	Ping(ctx context.Context) (time.Duration, error)
}

// ProbeResult is the outcome of one probe.
type ProbeResult struct {
	Target     string
	Reachable  bool
	StatusCode int
	Latency    time.Duration
	Err        error
}

// OK reports whether the target answered with a 2xx.
func (p *ProbeResult) OK() bool {
	return p.Reachable && p.Err == nil
}

// CheckResult contains the results of health checks
type CheckResult struct {
	Upstream ProbeResult
	// Relay is nil when no relay URL was given.
	Relay *ProbeResult
}

// ProbeUpstream pings the records service through p.
func ProbeUpstream(ctx context.Context, target string, p Pinger) ProbeResult {
	ctx, cancel := withDefaultTimeout(ctx)
	defer cancel()

	result := ProbeResult{Target: target}
	latency, err := p.Ping(ctx)
	result.Latency = latency
	if err != nil {
		result.Err = err
		// A status answer still proves the service is up.
		var se *api.StatusError
		if errors.As(err, &se) {
			result.Reachable = true
			result.StatusCode = se.StatusCode
		}
		return result
	}
	result.Reachable = true
	result.StatusCode = http.StatusOK
	return result
}

// ProbeRelay calls GET <relayURL>/healthz and expects {"status":"ok"}.
func ProbeRelay(ctx context.Context, client *http.Client, relayURL string) ProbeResult {
	ctx, cancel := withDefaultTimeout(ctx)
	defer cancel()

	if client == nil {
		client = http.DefaultClient
	}
	target := strings.TrimRight(relayURL, "/") + "/healthz"
	result := ProbeResult{Target: target}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		result.Err = err
		return result
	}

	start := time.Now()
	resp, err := client.Do(req)
	result.Latency = time.Since(start)
	if err != nil {
		result.Err = err
		return result
	}
	defer resp.Body.Close()

	result.Reachable = true
	result.StatusCode = resp.StatusCode
	if resp.StatusCode != http.StatusOK {
		result.Err = fmt.Errorf("healthz answered %d", resp.StatusCode)
		return result
	}

	var body struct {
		Status string `json:"status"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err := json.Unmarshal(data, &body); err != nil || body.Status != "ok" {
		result.Err = fmt.Errorf("unexpected healthz body %q", strings.TrimSpace(string(data)))
	}
	return result
}

func withDefaultTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, DefaultProbeTimeout)
}

// FormatLatency renders a probe latency for humans.
func FormatLatency(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	} else if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// Check probes the upstream and, when relayURL is set, the relay.
func Check(ctx context.Context, target string, p Pinger, relayURL string) *CheckResult {
	result := &CheckResult{Upstream: ProbeUpstream(ctx, target, p)}
	if relayURL != "" {
		relay := ProbeRelay(ctx, nil, relayURL)
		result.Relay = &relay
	}
	return result
}

// Summary returns a summary health status.
func (r *CheckResult) Summary() Status {
	if !r.Upstream.Reachable {
		return StatusUnreachable
	}
	if r.Relay != nil && !r.Relay.Reachable {
		return StatusUnreachable
	}
	if !r.Upstream.OK() || (r.Relay != nil && !r.Relay.OK()) {
		return StatusUnhealthy
	}
	return StatusHealthy
}
