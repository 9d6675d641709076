package relay

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sort"
	"strings"
)

// payloadKind is decided once per request, before anything is forwarded.
type payloadKind int

const (
	payloadNone payloadKind = iota
	payloadJSON
	payloadForm
	payloadUnsupported
)

func (k payloadKind) String() string {
	switch k {
	case payloadNone:
		return "none"
	case payloadJSON:
		return "json"
	case payloadForm:
		return "form"
	default:
		return "unsupported"
	}
}

const (
	mediaJSON       = "application/json"
	mediaMultipart  = "multipart/form-data"
	mediaURLEncoded = "application/x-www-form-urlencoded"
)

// classify picks the payload variant for a request. In compat mode an
// unrecognized content type falls back the way the browser relay did: POST
// reads it as a form, PUT reads it as JSON. A urlencoded PUT is JSON there
// too.
func classify(method, contentType string, mode ErrorMode) payloadKind {
	if method == http.MethodGet || method == http.MethodDelete {
		return payloadNone
	}

	lower := strings.ToLower(contentType)
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = ""
	}

	switch {
	case strings.Contains(lower, mediaJSON) || strings.HasSuffix(mediaType, "+json"):
		return payloadJSON
	case mediaType == mediaMultipart:
		return payloadForm
	case mediaType == mediaURLEncoded:
		// The browser relay only reads PUT bodies as multipart or JSON.
		if mode == ModeCompat && method == http.MethodPut {
			return payloadJSON
		}
		return payloadForm
	}

	if mode == ModeCompat {
		if method == http.MethodPut {
			return payloadJSON
		}
		return payloadForm
	}
	return payloadUnsupported
}

// payload produces the outbound request body.
type payload interface {
	// open returns the body, its content type and its length (-1 if streamed).
	open(r *http.Request) (io.ReadCloser, string, int64, error)
}

func newPayload(kind payloadKind) payload {
	switch kind {
	case payloadJSON:
		return jsonPayload{}
	case payloadForm:
		return formPayload{}
	default:
		return noPayload{}
	}
}

type noPayload struct{}

func (noPayload) open(*http.Request) (io.ReadCloser, string, int64, error) {
	return http.NoBody, "", 0, nil
}

// jsonPayload parses the inbound body and forwards it re-serialized.
type jsonPayload struct{}

func (jsonPayload) open(r *http.Request) (io.ReadCloser, string, int64, error) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, "", 0, &relayError{kind: failInboundBody, err: err}
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, "", 0, &relayError{kind: failInboundBody, err: err}
	}
	return io.NopCloser(&buf), mediaJSON, int64(buf.Len()), nil
}

// formPayload re-encodes a multipart or urlencoded form as a fresh
// multipart body. Parts are streamed: file content is never buffered.
type formPayload struct{}

func (formPayload) open(r *http.Request) (io.ReadCloser, string, int64, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == mediaURLEncoded {
		return encodeValues(r)
	}

	mr, err := r.MultipartReader()
	if err != nil {
		return nil, "", 0, &relayError{kind: failInboundBody, err: err}
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(copyParts(mr, mw))
	}()
	return pr, mw.FormDataContentType(), -1, nil
}

// copyParts writes every inbound part to mw with its original headers and
// bytes. The returned error, if any, aborts the outbound body.
func copyParts(mr *multipart.Reader, mw *multipart.Writer) error {
	for {
		part, err := mr.NextRawPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return &relayError{kind: failInboundBody, err: err}
		}

		dst, err := mw.CreatePart(textproto.MIMEHeader(part.Header))
		if err != nil {
			part.Close()
			return err
		}
		if _, err := io.Copy(dst, part); err != nil {
			part.Close()
			return &relayError{kind: failInboundBody, err: err}
		}
		part.Close()
	}
	return mw.Close()
}

func encodeValues(r *http.Request) (io.ReadCloser, string, int64, error) {
	if err := r.ParseForm(); err != nil {
		return nil, "", 0, &relayError{kind: failInboundBody, err: err}
	}

	keys := make([]string, 0, len(r.PostForm))
	for k := range r.PostForm {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, k := range keys {
		for _, v := range r.PostForm[k] {
			if err := mw.WriteField(k, v); err != nil {
				return nil, "", 0, err
			}
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", 0, err
	}
	return io.NopCloser(&buf), mw.FormDataContentType(), int64(buf.Len()), nil
}
