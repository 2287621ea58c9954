package middleware

import (
	"net/http"
	"strings"
)

const (
	corsAllowHeaders = "authorization, x-client-info, apikey, content-type"
	corsAllowMethods = "POST, OPTIONS"
)

// originPolicy decides which Access-Control-Allow-Origin value a request gets.
type originPolicy struct {
	wildcard bool
	exact    map[string]bool
}

func newOriginPolicy(origins []string) originPolicy {
	p := originPolicy{exact: make(map[string]bool, len(origins))}
	for _, o := range origins {
		switch o = strings.TrimSpace(o); o {
		case "":
		case "*":
			p.wildcard = true
		default:
			p.exact[o] = true
		}
	}
	return p
}

// allowOrigin returns the header value for origin, or "" to send none.
func (p originPolicy) allowOrigin(origin string) string {
	if p.wildcard {
		return "*"
	}
	if origin != "" && p.exact[origin] {
		return origin
	}
	return ""
}

// CORS answers browser clients of the public endpoints. A "*" entry is echoed
// literally. OPTIONS never reaches next: it gets 200 with an empty body.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	policy := newOriginPolicy(allowedOrigins)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if allowed := policy.allowOrigin(strings.TrimSpace(r.Header.Get("Origin"))); allowed != "" {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", allowed)
				h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
				h.Set("Access-Control-Allow-Methods", corsAllowMethods)
				if allowed != "*" {
					h.Add("Vary", "Origin")
				}
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
