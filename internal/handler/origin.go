package handler

import (
	"net/http"
	"net/url"
	"strings"
)

// originPolicy decides which browser origins may send credentialed
// requests and open the metrics stream
type originPolicy struct {
	any     bool
	allowed map[string]struct{}
}

func newOriginPolicy(origins []string) *originPolicy {
	p := &originPolicy{allowed: make(map[string]struct{}, len(origins))}
	for _, o := range origins {
		if o == "*" {
			p.any = true
			continue
		}
		p.allowed[strings.TrimRight(o, "/")] = struct{}{}
	}
	return p
}

// Allows reports whether a cross-origin request from origin is accepted
func (p *originPolicy) Allows(origin string) bool {
	if origin == "" {
		return false
	}
	if p.any {
		return true
	}
	_, ok := p.allowed[origin]
	return ok
}

// CheckWebSocket accepts non-browser clients, same-host pages and listed
// origins
func (p *originPolicy) CheckWebSocket(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if u, err := url.Parse(origin); err == nil && strings.EqualFold(u.Host, r.Host) {
		return true
	}
	return p.Allows(origin)
}
