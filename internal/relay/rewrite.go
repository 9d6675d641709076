package relay

import (
	"fmt"
	"net/url"
	"strings"
)

// Suffix returns the part of escapedPath that follows prefix, keeping its
// leading slash. ok is false when the path is not under prefix.
func Suffix(prefix, escapedPath string) (suffix string, ok bool) {
	prefix = strings.TrimRight(prefix, "/")
	if escapedPath == prefix {
		return "", true
	}
	if !strings.HasPrefix(escapedPath, prefix+"/") {
		return "", false
	}
	return escapedPath[len(prefix):], true
}

// Rewrite maps an inbound URL under prefix onto the upstream origin. The
// suffix is appended byte for byte: no cleaning, no unescaping. The inbound
// query string is carried over when keepQuery is set.
func Rewrite(target *url.URL, prefix string, in *url.URL, keepQuery bool) (*url.URL, error) {
	suffix, ok := Suffix(prefix, in.EscapedPath())
	if !ok {
		return nil, fmt.Errorf("path %q is not under %q", in.EscapedPath(), prefix)
	}

	escaped := strings.TrimRight(target.EscapedPath(), "/") + suffix
	unescaped, err := url.PathUnescape(escaped)
	if err != nil {
		return nil, fmt.Errorf("invalid path escape in %q: %w", escaped, err)
	}

	out := &url.URL{
		Scheme:  target.Scheme,
		User:    target.User,
		Host:    target.Host,
		Path:    unescaped,
		RawPath: escaped,
	}
	if keepQuery {
		out.RawQuery = in.RawQuery
	}
	return out, nil
}
