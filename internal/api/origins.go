package api

import (
	"net"
	"net/http"
	"net/url"
	"strings"
)

// OriginPolicy decides which browser origins may call the API and open /ws.
// Loopback origins on any port are always allowed. Requests without an
// Origin header come from non-browser clients such as the terminal and pass.
type OriginPolicy struct {
	extra map[string]struct{}
}

// NewOriginPolicy allows loopback plus the given origins (scheme://host[:port])
func NewOriginPolicy(extra []string) *OriginPolicy {
	p := &OriginPolicy{extra: make(map[string]struct{}, len(extra))}
	for _, o := range extra {
		if o = normalizeOrigin(o); o != "" {
			p.extra[o] = struct{}{}
		}
	}
	return p
}

// Allows reports whether origin may connect
func (p *OriginPolicy) Allows(origin string) bool {
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	if (u.Scheme == "http" || u.Scheme == "https") && isLoopback(u.Hostname()) {
		return true
	}
	if p == nil {
		return false
	}
	_, ok := p.extra[normalizeOrigin(origin)]
	return ok
}

// AllowOrigin adapts Allows to go-chi/cors AllowOriginFunc
func (p *OriginPolicy) AllowOrigin(_ *http.Request, origin string) bool {
	return p.Allows(origin)
}

func isLoopback(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func normalizeOrigin(o string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(o), "/"))
}
