package extract

import (
	"net/url"
	"strings"
)

// ResolveURL makes an image or link src absolute against the page URL.
//
// The policy is deliberately literal rather than RFC 3986: a src with a
// leading slash is resolved against the origin, and ANY other
// non-absolute src becomes {origin}/{src} - `../` and query-relative
// paths are not walked. Downstream consumers depend on this exact
// behavior; do not "fix" it without coordinating with them.
func ResolveURL(src, base string) string {
	src = strings.TrimSpace(src)
	if src == "" {
		return ""
	}

	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return src
	}

	if strings.HasPrefix(src, "data:") {
		return ""
	}

	parsed, err := url.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return ""
	}
	origin := parsed.Scheme + "://" + parsed.Host

	if strings.HasPrefix(src, "//") {
		return parsed.Scheme + ":" + src
	}

	if strings.HasPrefix(src, "/") {
		return origin + src
	}

	return origin + "/" + src
}

// Hostname returns the host of a URL, or empty when unparseable.
func Hostname(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Hostname()
}
