package urlutil

import (
	"net"
	"net/url"
	"strings"
)

// BaseFromListenAddr returns the http base URL a local client uses to reach a
// server listening on addr. Wildcard and empty hosts become localhost.
func BaseFromListenAddr(addr string) string {
	addr = strings.TrimSpace(addr)
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return ""
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}

// PageURL joins a base URL and a page path and appends query when non-empty.
// Absolute http(s) paths are returned unchanged apart from the query.
func PageURL(base, path string, query url.Values) string {
	var out string
	switch {
	case strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://"):
		out = path
	case path == "":
		out = normalizeBaseURL(base) + "/"
	case strings.HasPrefix(path, "/"):
		out = normalizeBaseURL(base) + path
	default:
		out = normalizeBaseURL(base) + "/" + path
	}
	if len(query) == 0 {
		return out
	}
	sep := "?"
	if strings.Contains(out, "?") {
		sep = "&"
	}
	return out + sep + query.Encode()
}

func normalizeBaseURL(base string) string {
	return strings.TrimRight(strings.TrimSpace(base), "/")
}
