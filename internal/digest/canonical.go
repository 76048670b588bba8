package digest

import (
	"net"
	"net/url"
	"strings"
)

// Canonicalize turns a URL into the deduplication key: lower-case scheme and
// host, https when the scheme is missing or http, no default port, no trailing slash,
// no query string and no fragment. Canonicalize(Canonicalize(u)) equals
// Canonicalize(u). Input that is not an absolute URL comes back trimmed.
func Canonicalize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	s := trimmed
	if !strings.Contains(s, "://") {
		s = "https://" + strings.TrimPrefix(s, "//")
	}

	u, err := url.Parse(s)
	if err != nil || u.Hostname() == "" {
		return trimmed
	}

	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if scheme == "http" || scheme == "https" {
		// http и https версии одной статьи считаем дублями
		scheme = "https"
		if port == "80" || port == "443" {
			port = ""
		}
	}

	switch {
	case port != "":
		host = net.JoinHostPort(host, port)
	case strings.Contains(host, ":"):
		// IPv6 без порта
		host = "[" + host + "]"
	}

	path := strings.TrimRight(u.EscapedPath(), "/")

	return scheme + "://" + host + path
}
