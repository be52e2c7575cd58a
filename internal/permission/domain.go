package permission

import (
	"net/url"
	"strings"
)

// DefaultBlockedDomains are hostname patterns the browser may not visit.
// A pattern starting with "." matches as a suffix, any other pattern as a
// substring.
var DefaultBlockedDomains = []string{
	"localhost",
	"127.0.0.1",
	"0.0.0.0",
	"internal.",
	"private.",
	"admin.",
	".local",
}

// DomainGuard checks navigation targets against a hostname blocklist.
type DomainGuard struct {
	blocked []string
}

// NewDomainGuard creates a guard. With no patterns the default blocklist is
// used.
func NewDomainGuard(patterns ...string) *DomainGuard {
	if len(patterns) == 0 {
		patterns = DefaultBlockedDomains
	}
	blocked := make([]string, len(patterns))
	for i, p := range patterns {
		blocked[i] = strings.ToLower(p)
	}
	return &DomainGuard{blocked: blocked}
}

// Check parses rawURL and returns it if its hostname is allowed. Anything
// that does not parse as an absolute http(s) URL is rejected.
func (g *DomainGuard) Check(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, Reject(ReasonDomainBlocked, "unparseable url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, Reject(ReasonDomainBlocked, "unsupported scheme")
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return nil, Reject(ReasonDomainBlocked, "missing host")
	}
	for _, pattern := range g.blocked {
		if strings.HasPrefix(pattern, ".") {
			if strings.HasSuffix(host, pattern) {
				return nil, Reject(ReasonDomainBlocked, host)
			}
		} else if strings.Contains(host, pattern) {
			return nil, Reject(ReasonDomainBlocked, host)
		}
	}
	return u, nil
}
