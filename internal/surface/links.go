package surface

import (
	"net/url"
	"strings"
)

type Decision struct {
	Allow        bool `json:"allow"`
	OpenExternal bool `json:"open_external"`
}

// LinkPolicy keeps the web view on the chat host and sends every other
// http(s) link to the system browser.
type LinkPolicy struct {
	BaseURL string
}

func (p LinkPolicy) Decide(rawURL string) Decision {
	if rawURL == "" {
		return Decision{Allow: true}
	}

	lower := strings.ToLower(rawURL)
	for _, prefix := range []string{"about:blank", "data:", "blob:"} {
		if strings.HasPrefix(lower, prefix) {
			return Decision{Allow: true}
		}
	}

	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return Decision{Allow: true}
	}

	if hostOf(rawURL) == hostOf(p.BaseURL) {
		return Decision{Allow: true}
	}

	return Decision{Allow: false, OpenExternal: true}
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		rest := rawURL
		if i := strings.Index(rest, "://"); i >= 0 {
			rest = rest[i+3:]
		}
		host, _, _ := strings.Cut(rest, "/")
		return strings.ToLower(host)
	}
	return strings.ToLower(u.Host)
}
