package relay

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// received is what the fake upstream saw for one request.
type received struct {
	Method   string
	Path     string
	RawQuery string
	Header   http.Header
	Body     []byte
}

type upstreamRecorder struct {
	mu   sync.Mutex
	reqs []received
}

func (u *upstreamRecorder) last(t *testing.T) received {
	t.Helper()
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.reqs) == 0 {
		t.Fatal("upstream received no request")
	}
	return u.reqs[len(u.reqs)-1]
}

func (u *upstreamRecorder) count() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.reqs)
}

// newUpstream starts a server that records each request and answers with
// the given status, content type and body.
func newUpstream(t *testing.T, status int, contentType, body string) (*httptest.Server, *upstreamRecorder) {
	t.Helper()
	rec := &upstreamRecorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		rec.mu.Lock()
		rec.reqs = append(rec.reqs, received{
			Method:   r.Method,
			Path:     r.URL.EscapedPath(),
			RawQuery: r.URL.RawQuery,
			Header:   r.Header.Clone(),
			Body:     data,
		})
		rec.mu.Unlock()

		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.Header().Set("X-Upstream-Secret", "leak")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func newTestRelay(t *testing.T, target string, mode ErrorMode) *Relay {
	t.Helper()
	rl, err := New(&Config{
		TargetURL: target,
		Prefix:    "/proxy",
		ErrorMode: mode,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { rl.Close() })
	return rl
}

// deadUpstream returns the URL of a server that is no longer listening.
func deadUpstream(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url
}

func serve(rl *Relay, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	rl.ServeHTTP(w, req)
	return w
}

func decodeMessage(t *testing.T, body []byte) string {
	t.Helper()
	var m struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &m); err != nil {
		t.Fatalf("body %q is not a message object: %v", body, err)
	}
	return m.Message
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name   string
		target string
		prefix string
	}{
		{"bad scheme", "ftp://example.com", "/proxy"},
		{"no host", "http://", "/proxy"},
		{"empty prefix", "http://localhost:8888", ""},
		{"root prefix", "http://localhost:8888", "/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(&Config{TargetURL: tt.target, Prefix: tt.prefix}); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNew_DefaultMode(t *testing.T) {
	rl, err := New(&Config{TargetURL: "http://localhost:8888", Prefix: "/proxy"})
	if err != nil {
		t.Fatal(err)
	}
	defer rl.Close()
	if rl.config.ErrorMode != ModeUnified {
		t.Errorf("ErrorMode = %q, want %q", rl.config.ErrorMode, ModeUnified)
	}
}

func TestCompat_GetForwardsPathAndQuery(t *testing.T) {
	srv, rec := newUpstream(t, http.StatusOK, "application/json", `[{"id":1,"nom":"Alami"}]`)
	rl := newTestRelay(t, srv.URL, ModeCompat)

	req := httptest.NewRequest(http.MethodGet, "/proxy/api/students?search=ala&page=2", nil)
	w := serve(rl, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := w.Body.String(); got != `[{"id":1,"nom":"Alami"}]` {
		t.Errorf("body = %q", got)
	}

	got := rec.last(t)
	if got.Method != http.MethodGet {
		t.Errorf("method = %s", got.Method)
	}
	if got.Path != "/api/students" {
		t.Errorf("path = %q, want /api/students", got.Path)
	}
	if got.RawQuery != "search=ala&page=2" {
		t.Errorf("query = %q", got.RawQuery)
	}
	if len(got.Body) != 0 {
		t.Errorf("GET forwarded a body: %q", got.Body)
	}
}

func TestCompat_GetAlways200(t *testing.T) {
	srv, _ := newUpstream(t, http.StatusNotFound, "application/json", `{"message":"introuvable"}`)
	rl := newTestRelay(t, srv.URL, ModeCompat)

	w := serve(rl, httptest.NewRequest(http.MethodGet, "/proxy/api/students/9", nil))
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestCompat_GetNonJSONIsPlain500(t *testing.T) {
	srv, _ := newUpstream(t, http.StatusOK, "text/html", "<html>oops</html>")
	rl := newTestRelay(t, srv.URL, ModeCompat)

	w := serve(rl, httptest.NewRequest(http.MethodGet, "/proxy/api/students", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q, want text/plain", ct)
	}
}

func TestCompat_PostJSON(t *testing.T) {
	srv, rec := newUpstream(t, http.StatusCreated, "application/json", `{"id":7,"a":1}`)
	rl := newTestRelay(t, srv.URL, ModeCompat)

	req := httptest.NewRequest(http.MethodPost, "/proxy/p", strings.NewReader(`{"a":1}`))
	req.Header.Set("Content-Type", "application/json")
	w := serve(rl, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if got := w.Body.String(); got != `{"id":7,"a":1}` {
		t.Errorf("body = %q", got)
	}

	got := rec.last(t)
	if got.Method != http.MethodPost || got.Path != "/p" {
		t.Errorf("upstream saw %s %s", got.Method, got.Path)
	}
	if string(got.Body) != `{"a":1}` {
		t.Errorf("forwarded body = %q", got.Body)
	}
	if ct := got.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("forwarded Content-Type = %q", ct)
	}
}

func TestCompat_PostJSONIsCompacted(t *testing.T) {
	srv, rec := newUpstream(t, http.StatusOK, "application/json", `{}`)
	rl := newTestRelay(t, srv.URL, ModeCompat)

	req := httptest.NewRequest(http.MethodPost, "/proxy/p", strings.NewReader("{\n  \"a\": [1, 2]\n}"))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	serve(rl, req)

	if got := string(rec.last(t).Body); got != `{"a":[1,2]}` {
		t.Errorf("forwarded body = %q", got)
	}
}

func buildMultipart(t *testing.T, fileContent []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("title", "Bourse d'excellence"); err != nil {
		t.Fatal(err)
	}
	fw, err := mw.CreateFormFile("file", "reglement.pdf")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(fileContent)
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func TestCompat_PostMultipartPreservesParts(t *testing.T) {
	content := []byte{0x25, 0x50, 0x44, 0x46, 0x00, 0xff, 0xfe, '\r', '\n', '-', '-', 0x01}
	srv, rec := newUpstream(t, http.StatusOK, "application/json", `{"id":3}`)
	rl := newTestRelay(t, srv.URL, ModeCompat)

	body, ct := buildMultipart(t, content)
	req := httptest.NewRequest(http.MethodPost, "/proxy/gestion-bourse-condidature-service/api/bourses", body)
	req.Header.Set("Content-Type", ct)
	w := serve(rl, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	got := rec.last(t)
	if got.Path != "/gestion-bourse-condidature-service/api/bourses" {
		t.Errorf("path = %q", got.Path)
	}
	mediaType, params, err := mime.ParseMediaType(got.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" {
		t.Fatalf("forwarded Content-Type = %q", got.Header.Get("Content-Type"))
	}

	mr := multipart.NewReader(bytes.NewReader(got.Body), params["boundary"])
	form, err := mr.ReadForm(1 << 20)
	if err != nil {
		t.Fatal(err)
	}
	if v := form.Value["title"]; len(v) != 1 || v[0] != "Bourse d'excellence" {
		t.Errorf("title = %v", v)
	}
	files := form.File["file"]
	if len(files) != 1 {
		t.Fatalf("file parts = %d, want 1", len(files))
	}
	if files[0].Filename != "reglement.pdf" {
		t.Errorf("filename = %q", files[0].Filename)
	}
	f, _ := files[0].Open()
	data, _ := io.ReadAll(f)
	f.Close()
	if !bytes.Equal(data, content) {
		t.Errorf("file content = %v, want %v", data, content)
	}
}

func TestCompat_PostURLEncodedBecomesMultipart(t *testing.T) {
	srv, rec := newUpstream(t, http.StatusOK, "application/json", `{}`)
	rl := newTestRelay(t, srv.URL, ModeCompat)

	req := httptest.NewRequest(http.MethodPost, "/proxy/p", strings.NewReader("nom=Alami&cne=R13"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := serve(rl, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	got := rec.last(t)
	_, params, _ := mime.ParseMediaType(got.Header.Get("Content-Type"))
	form, err := multipart.NewReader(bytes.NewReader(got.Body), params["boundary"]).ReadForm(1 << 20)
	if err != nil {
		t.Fatal(err)
	}
	if form.Value["nom"][0] != "Alami" || form.Value["cne"][0] != "R13" {
		t.Errorf("form = %v", form.Value)
	}
}

func TestCompat_PutURLEncodedIsReadAsJSON(t *testing.T) {
	srv, rec := newUpstream(t, http.StatusOK, "application/json", `{}`)
	rl := newTestRelay(t, srv.URL, ModeCompat)

	req := httptest.NewRequest(http.MethodPut, "/proxy/p", strings.NewReader("nom=Alami"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := serve(rl, req)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if n := rec.count(); n != 0 {
		t.Errorf("upstream received %d requests, want 0", n)
	}
}

func TestCompat_PostUnreachable(t *testing.T) {
	rl := newTestRelay(t, deadUpstream(t), ModeCompat)

	req := httptest.NewRequest(http.MethodPost, "/proxy/p", strings.NewReader(`{"a":1}`))
	req.Header.Set("Content-Type", "application/json")
	w := serve(rl, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	msg := decodeMessage(t, w.Body.Bytes())
	if !strings.HasPrefix(msg, "Erreur: ") || len(msg) == len("Erreur: ") {
		t.Errorf("message = %q", msg)
	}
}

func TestCompat_PostFailures(t *testing.T) {
	srv, _ := newUpstream(t, http.StatusOK, "text/plain", "not json")
	tests := []struct {
		name        string
		target      string
		contentType string
		body        string
	}{
		{"invalid inbound JSON", "", "application/json", `{"a":`},
		{"unknown content type is read as a form", "", "text/plain", "hello"},
		{"non-JSON upstream body", srv.URL, "application/json", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := tt.target
			if target == "" {
				target = srv.URL
			}
			rl := newTestRelay(t, target, ModeCompat)
			req := httptest.NewRequest(http.MethodPost, "/proxy/p", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			w := serve(rl, req)

			if w.Code != http.StatusInternalServerError {
				t.Fatalf("status = %d, want 500", w.Code)
			}
			if msg := decodeMessage(t, w.Body.Bytes()); !strings.HasPrefix(msg, "Erreur: ") {
				t.Errorf("message = %q", msg)
			}
		})
	}
}

func TestCompat_PutFailureIsPlain500(t *testing.T) {
	srv, rec := newUpstream(t, http.StatusOK, "application/json", `{}`)
	rl := newTestRelay(t, srv.URL, ModeCompat)

	req := httptest.NewRequest(http.MethodPut, "/proxy/api/students/4", strings.NewReader("nom=x"))
	req.Header.Set("Content-Type", "text/plain")
	w := serve(rl, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q", ct)
	}
	if rec.count() != 0 {
		t.Error("invalid body was forwarded upstream")
	}
}

func TestCompat_PutJSON(t *testing.T) {
	srv, rec := newUpstream(t, http.StatusOK, "application/json", `{"id":4,"nom":"B"}`)
	rl := newTestRelay(t, srv.URL, ModeCompat)

	req := httptest.NewRequest(http.MethodPut, "/proxy/api/students/4?x=1", strings.NewReader(`{"nom":"B"}`))
	req.Header.Set("Content-Type", "application/json")
	w := serve(rl, req)

	if w.Code != http.StatusOK || w.Body.String() != `{"id":4,"nom":"B"}` {
		t.Errorf("got %d %q", w.Code, w.Body.String())
	}
	got := rec.last(t)
	if got.Method != http.MethodPut || got.Path != "/api/students/4" {
		t.Errorf("upstream saw %s %s", got.Method, got.Path)
	}
	if got.RawQuery != "" {
		t.Errorf("compat PUT forwarded query %q", got.RawQuery)
	}
}

func TestCompat_Delete(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantBody   string
	}{
		{"204 passes through empty", http.StatusNoContent, "", http.StatusNoContent, ""},
		{"non-JSON body", http.StatusOK, "deleted", http.StatusOK, `{"success":true}`},
		{"empty body", http.StatusOK, "", http.StatusOK, `{"success":true}`},
		{"JSON body", http.StatusOK, `{"deleted":1}`, http.StatusOK, `{"deleted":1}`},
		{"JSON error body", http.StatusNotFound, `{"message":"absent"}`, http.StatusOK, `{"message":"absent"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, rec := newUpstream(t, tt.status, "", tt.body)
			rl := newTestRelay(t, srv.URL, ModeCompat)

			w := serve(rl, httptest.NewRequest(http.MethodDelete, "/proxy/api/students/5", nil))
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if got := w.Body.String(); got != tt.wantBody {
				t.Errorf("body = %q, want %q", got, tt.wantBody)
			}
			got := rec.last(t)
			if got.Method != http.MethodDelete || len(got.Body) != 0 {
				t.Errorf("upstream saw %s with body %q", got.Method, got.Body)
			}
		})
	}
}

func TestCompat_DeleteUnreachable(t *testing.T) {
	rl := newTestRelay(t, deadUpstream(t), ModeCompat)
	w := serve(rl, httptest.NewRequest(http.MethodDelete, "/proxy/api/students/5", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestUnified_Unreachable(t *testing.T) {
	rl := newTestRelay(t, deadUpstream(t), ModeUnified)
	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			var body io.Reader
			if method == http.MethodPost || method == http.MethodPut {
				body = strings.NewReader(`{}`)
			}
			req := httptest.NewRequest(method, "/proxy/p", body)
			req.Header.Set("Content-Type", "application/json")
			w := serve(rl, req)

			if w.Code != http.StatusBadGateway {
				t.Errorf("status = %d, want 502", w.Code)
			}
			if msg := decodeMessage(t, w.Body.Bytes()); !strings.HasPrefix(msg, "Erreur: ") {
				t.Errorf("message = %q", msg)
			}
		})
	}
}

func TestUnified_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		status     int
		upstream   string
		wantStatus int
		wantBody   string
	}{
		{"created propagated", http.MethodPost, http.StatusCreated, `{"id":1}`, http.StatusCreated, `{"id":1}`},
		{"JSON error propagated", http.MethodGet, http.StatusNotFound, `{"message":"absent"}`, http.StatusNotFound, `{"message":"absent"}`},
		{"empty 2xx acknowledged", http.MethodPut, http.StatusOK, "", http.StatusOK, `{"success":true}`},
		{"delete 204", http.MethodDelete, http.StatusNoContent, "", http.StatusNoContent, ""},
		{"delete empty 200", http.MethodDelete, http.StatusOK, "", http.StatusOK, `{"success":true}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newUpstream(t, tt.status, "application/json", tt.upstream)
			rl := newTestRelay(t, srv.URL, ModeUnified)

			var body io.Reader
			if tt.method == http.MethodPost || tt.method == http.MethodPut {
				body = strings.NewReader(`{"a":1}`)
			}
			req := httptest.NewRequest(tt.method, "/proxy/p", body)
			req.Header.Set("Content-Type", "application/json")
			w := serve(rl, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if got := w.Body.String(); got != tt.wantBody {
				t.Errorf("body = %q, want %q", got, tt.wantBody)
			}
		})
	}
}

func TestUnified_NonJSONUpstreamBody(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		status     int
		wantStatus int
		wantBody   string
	}{
		{"get ok", http.MethodGet, http.StatusOK, http.StatusBadGateway, ""},
		{"get not found", http.MethodGet, http.StatusNotFound, http.StatusNotFound, ""},
		{"get server error", http.MethodGet, http.StatusInternalServerError, http.StatusInternalServerError, ""},
		{"delete ok", http.MethodDelete, http.StatusOK, http.StatusOK, `{"success":true}`},
		{"delete accepted", http.MethodDelete, http.StatusAccepted, http.StatusAccepted, `{"success":true}`},
		{"delete not found", http.MethodDelete, http.StatusNotFound, http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newUpstream(t, tt.status, "text/plain", "Deleted")
			rl := newTestRelay(t, srv.URL, ModeUnified)

			w := serve(rl, httptest.NewRequest(tt.method, "/proxy/a/1", nil))
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantBody != "" {
				if got := w.Body.String(); got != tt.wantBody {
					t.Errorf("body = %q, want %q", got, tt.wantBody)
				}
				return
			}
			decodeMessage(t, w.Body.Bytes())
		})
	}
}

func TestUnified_InboundFailures(t *testing.T) {
	srv, rec := newUpstream(t, http.StatusOK, "application/json", `{}`)
	rl := newTestRelay(t, srv.URL, ModeUnified)

	tests := []struct {
		name        string
		method      string
		contentType string
		body        string
		wantStatus  int
	}{
		{"invalid JSON", http.MethodPost, "application/json", `{"a"`, http.StatusBadRequest},
		{"empty JSON", http.MethodPut, "application/json", ``, http.StatusBadRequest},
		{"broken multipart", http.MethodPost, "multipart/form-data", "x", http.StatusBadRequest},
		{"unsupported type", http.MethodPost, "text/plain", "hello", http.StatusUnsupportedMediaType},
		{"missing type", http.MethodPut, "", `{}`, http.StatusUnsupportedMediaType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/proxy/p", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			w := serve(rl, req)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.wantStatus, w.Body.String())
			}
			decodeMessage(t, w.Body.Bytes())
		})
	}
	if rec.count() != 0 {
		t.Errorf("%d invalid requests reached the upstream", rec.count())
	}
}

func TestUnified_QueryForwardedForAllMethods(t *testing.T) {
	srv, rec := newUpstream(t, http.StatusOK, "application/json", `{}`)
	rl := newTestRelay(t, srv.URL, ModeUnified)

	req := httptest.NewRequest(http.MethodDelete, "/proxy/p/1?force=true", nil)
	serve(rl, req)
	if got := rec.last(t).RawQuery; got != "force=true" {
		t.Errorf("query = %q, want force=true", got)
	}
}

func TestUnified_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	rl, err := New(&Config{
		TargetURL:       srv.URL,
		Prefix:          "/proxy",
		UpstreamTimeout: 50 * time.Millisecond,
		Logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatal(err)
	}
	defer rl.Close()

	w := serve(rl, httptest.NewRequest(http.MethodGet, "/proxy/slow", nil))
	if w.Code != http.StatusGatewayTimeout {
		t.Errorf("status = %d, want 504", w.Code)
	}
}

func TestRelay_Headers(t *testing.T) {
	srv, rec := newUpstream(t, http.StatusOK, "application/json", `{}`)
	rl := newTestRelay(t, srv.URL, ModeUnified)

	req := httptest.NewRequest(http.MethodGet, "/proxy/p", nil)
	req.Header.Set("Authorization", "Bearer token")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cookie", "session=secret")
	req.Header.Set("X-Custom", "nope")
	req.Header.Set("Connection", "keep-alive")
	w := serve(rl, req)

	got := rec.last(t).Header
	if got.Get("Authorization") != "Bearer token" {
		t.Errorf("Authorization not forwarded")
	}
	if got.Get("Accept") != "application/json" {
		t.Errorf("Accept not forwarded")
	}
	for _, h := range []string{"Cookie", "X-Custom"} {
		if got.Get(h) != "" {
			t.Errorf("%s was forwarded", h)
		}
	}

	id := got.Get(HeaderRequestID)
	if id == "" {
		t.Fatal("no request id forwarded")
	}
	if w.Header().Get(HeaderRequestID) != id {
		t.Errorf("response request id = %q, want %q", w.Header().Get(HeaderRequestID), id)
	}
	if w.Header().Get("X-Upstream-Secret") != "" {
		t.Error("upstream header copied to the response")
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestRelay_RequestIDPropagated(t *testing.T) {
	srv, rec := newUpstream(t, http.StatusOK, "application/json", `{}`)
	rl := newTestRelay(t, srv.URL, ModeUnified)

	req := httptest.NewRequest(http.MethodGet, "/proxy/p", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	serve(rl, req)

	if got := rec.last(t).Header.Get(HeaderRequestID); got != "abc-123" {
		t.Errorf("request id = %q, want abc-123", got)
	}
}

func TestRelay_MethodNotAllowed(t *testing.T) {
	srv, rec := newUpstream(t, http.StatusOK, "application/json", `{}`)
	rl := newTestRelay(t, srv.URL, ModeCompat)

	w := serve(rl, httptest.NewRequest(http.MethodPatch, "/proxy/p", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
	if w.Header().Get("Allow") == "" {
		t.Error("missing Allow header")
	}
	if rec.count() != 0 {
		t.Error("request reached the upstream")
	}
}

func TestRelay_OutsidePrefix(t *testing.T) {
	srv, _ := newUpstream(t, http.StatusOK, "application/json", `{}`)
	rl := newTestRelay(t, srv.URL, ModeUnified)

	w := serve(rl, httptest.NewRequest(http.MethodGet, "/proxyfoo/p", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestRelay_RateLimit(t *testing.T) {
	srv, _ := newUpstream(t, http.StatusOK, "application/json", `{}`)
	rl, err := New(&Config{
		TargetURL:         srv.URL,
		Prefix:            "/proxy",
		RateLimitRequests: 2,
		RateLimitWindow:   time.Minute,
		Logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatal(err)
	}
	defer rl.Close()

	for i := 0; i < 2; i++ {
		if w := serve(rl, httptest.NewRequest(http.MethodGet, "/proxy/p", nil)); w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, w.Code)
		}
	}

	w := serve(rl, httptest.NewRequest(http.MethodGet, "/proxy/p", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", w.Code)
	}
	if msg := decodeMessage(t, w.Body.Bytes()); msg != "Rate limit exceeded" {
		t.Errorf("message = %q", msg)
	}

	other := httptest.NewRequest(http.MethodGet, "/proxy/p", nil)
	other.RemoteAddr = "198.51.100.7:4000"
	if w := serve(rl, other); w.Code != http.StatusOK {
		t.Errorf("other client: status = %d, want 200", w.Code)
	}
}

func TestRelay_AuditLog(t *testing.T) {
	srv, _ := newUpstream(t, http.StatusCreated, "application/json", `{"id":1}`)
	logPath := filepath.Join(t.TempDir(), "logs", "relay.log")

	rl, err := New(&Config{
		TargetURL:    srv.URL,
		Prefix:       "/proxy",
		AuditLogPath: logPath,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/proxy/api/students", strings.NewReader(`{"nom":"A"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderRequestID, "audit-1")
	serve(rl, req)
	rl.Close()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	var entry auditEntry
	if err := json.Unmarshal(bytes.TrimSpace(data), &entry); err != nil {
		t.Fatalf("audit line %q: %v", data, err)
	}
	if entry.RequestID != "audit-1" || entry.Method != http.MethodPost {
		t.Errorf("entry = %+v", entry)
	}
	if entry.StatusCode != http.StatusCreated || entry.UpstreamStatus != http.StatusCreated {
		t.Errorf("status = %d, upstream = %d", entry.StatusCode, entry.UpstreamStatus)
	}
	if entry.Upstream != srv.URL+"/api/students" {
		t.Errorf("upstream = %q", entry.Upstream)
	}
}
