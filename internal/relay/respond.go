package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorMode selects how upstream answers and failures reach the caller.
type ErrorMode string

const (
	// ModeUnified maps every method through one status-preserving table.
	ModeUnified ErrorMode = "unified"
	// ModeCompat reproduces the per-method behavior of the browser relay.
	ModeCompat ErrorMode = "compat"
)

// ParseErrorMode accepts "unified", "compat" or "" (unified).
func ParseErrorMode(s string) (ErrorMode, error) {
	switch ErrorMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeUnified:
		return ModeUnified, nil
	case ModeCompat:
		return ModeCompat, nil
	default:
		return "", fmt.Errorf("unknown error mode %q", s)
	}
}

// failure classifies why an exchange did not produce an upstream answer.
type failure int

const (
	failTransport failure = iota
	failTimeout
	failUpstreamBody
	failInboundBody
	failUnsupportedMedia
)

func (f failure) String() string {
	switch f {
	case failTransport:
		return "transport"
	case failTimeout:
		return "timeout"
	case failUpstreamBody:
		return "upstream_body"
	case failInboundBody:
		return "inbound_body"
	case failUnsupportedMedia:
		return "unsupported_media"
	default:
		return "unknown"
	}
}

// relayError carries a failure kind through httputil.ReverseProxy, which
// hands ModifyResponse and transport errors to the same ErrorHandler.
type relayError struct {
	kind   failure
	status int // upstream status, when one was received
	err    error
}

func (e *relayError) Error() string { return e.err.Error() }
func (e *relayError) Unwrap() error { return e.err }

// asRelayError classifies any error that reached the error handler.
func asRelayError(err error) *relayError {
	var re *relayError
	if errors.As(err, &re) {
		return re
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &relayError{kind: failTimeout, err: err}
	}
	return &relayError{kind: failTransport, err: err}
}

var successBody = []byte(`{"success":true}`)

// shapeResponse decides what the caller receives for an upstream answer.
// A nil body with a nil error means an empty response. A non-nil error is
// a *relayError to be rendered by failureResponse.
func shapeResponse(method string, mode ErrorMode, status int, body []byte) (int, []byte, error) {
	if mode == ModeCompat {
		return shapeCompat(method, status, body)
	}
	return shapeUnified(method, status, body)
}

func shapeCompat(method string, status int, body []byte) (int, []byte, error) {
	if method == http.MethodDelete {
		if status == http.StatusNoContent {
			return http.StatusNoContent, nil, nil
		}
		if compacted, err := compactJSON(body); err == nil {
			return http.StatusOK, compacted, nil
		}
		return http.StatusOK, successBody, nil
	}

	compacted, err := compactJSON(body)
	if err != nil {
		return 0, nil, &relayError{kind: failUpstreamBody, status: status, err: err}
	}
	return http.StatusOK, compacted, nil
}

func shapeUnified(method string, status int, body []byte) (int, []byte, error) {
	if status == http.StatusNoContent {
		return http.StatusNoContent, nil, nil
	}
	success := status >= 200 && status < 300
	if success && len(bytes.TrimSpace(body)) == 0 {
		return status, successBody, nil
	}

	compacted, err := compactJSON(body)
	if err != nil {
		// A delete that succeeded upstream stays a success whatever it answered.
		if success && method == http.MethodDelete {
			return status, successBody, nil
		}
		return 0, nil, &relayError{kind: failUpstreamBody, status: status, err: err}
	}
	return status, compacted, nil
}

func compactJSON(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// failureResponse renders a failure. A nil body means the unstructured
// text/plain 500 of compat mode.
func failureResponse(method string, mode ErrorMode, re *relayError) (int, []byte) {
	if mode == ModeCompat {
		if method == http.MethodPost {
			return http.StatusInternalServerError, messageBody("Erreur: " + re.Error())
		}
		return http.StatusInternalServerError, nil
	}

	status := http.StatusBadGateway
	switch re.kind {
	case failTimeout:
		status = http.StatusGatewayTimeout
	case failUpstreamBody:
		if re.status >= 400 {
			status = re.status
		}
	case failInboundBody:
		status = http.StatusBadRequest
	case failUnsupportedMedia:
		status = http.StatusUnsupportedMediaType
	}
	return status, messageBody("Erreur: " + re.Error())
}

func messageBody(msg string) []byte {
	data, _ := json.Marshal(struct {
		Message string `json:"message"`
	}{msg})
	return data
}

func writeBody(w http.ResponseWriter, status int, body []byte) {
	if body == nil {
		http.Error(w, http.StatusText(status), status)
		return
	}
	w.Header().Set("Content-Type", mediaJSON)
	w.WriteHeader(status)
	w.Write(body)
}
