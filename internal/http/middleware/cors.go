package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

const defaultCORSMaxAge = 600

// The dashboard reads the CSV file name from Content-Disposition and reports
// X-Request-Id in its error toasts.
var (
	corsMethods = []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}
	corsHeaders = []string{"Accept", "Cache-Control", "Content-Type", "Last-Event-ID", "X-Request-Id"}
	corsExposed = []string{"Content-Disposition", "X-Request-Id"}
)

// CORSConfig lists the browser origins allowed to call the API. An entry is
// "*", an exact origin, or a subdomain pattern such as
// "https://*.example.com".
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	ExposedHeaders []string
	MaxAgeSeconds  int
}

type corsPolicy struct {
	any      bool
	exact    map[string]struct{}
	suffixes []originSuffix

	methods string
	headers string
	exposed string
	maxAge  string
}

type originSuffix struct {
	scheme string
	domain string
}

func newCORSPolicy(cfg CORSConfig) *corsPolicy {
	policy := &corsPolicy{exact: map[string]struct{}{}}
	for _, origin := range trimmed(cfg.AllowedOrigins) {
		origin = strings.ToLower(origin)
		switch {
		case origin == "*":
			policy.any = true
		case strings.Contains(origin, "://*."):
			scheme, domain, _ := strings.Cut(origin, "://*")
			policy.suffixes = append(policy.suffixes, originSuffix{scheme: scheme + "://", domain: domain})
		default:
			policy.exact[strings.TrimSuffix(origin, "/")] = struct{}{}
		}
	}

	policy.methods = joinOr(cfg.AllowedMethods, corsMethods)
	policy.headers = joinOr(cfg.AllowedHeaders, corsHeaders)
	policy.exposed = joinOr(cfg.ExposedHeaders, corsExposed)

	maxAge := cfg.MaxAgeSeconds
	if maxAge <= 0 {
		maxAge = defaultCORSMaxAge
	}
	policy.maxAge = strconv.Itoa(maxAge)
	return policy
}

func (p *corsPolicy) allows(origin string) bool {
	if p.any {
		return true
	}
	origin = strings.ToLower(origin)
	if _, ok := p.exact[origin]; ok {
		return true
	}
	for _, suffix := range p.suffixes {
		host, ok := strings.CutPrefix(origin, suffix.scheme)
		if ok && len(host) > len(suffix.domain) && strings.HasSuffix(host, suffix.domain) {
			return true
		}
	}
	return false
}

// CORS answers preflights itself and decorates actual requests. Requests
// from origins outside the policy pass through untouched.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	policy := newCORSPolicy(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin == "" || !policy.allows(origin) {
				next.ServeHTTP(w, r)
				return
			}

			header := w.Header()
			header.Add("Vary", "Origin")
			if policy.any {
				header.Set("Access-Control-Allow-Origin", "*")
			} else {
				header.Set("Access-Control-Allow-Origin", origin)
			}

			preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""
			if !preflight {
				header.Set("Access-Control-Expose-Headers", policy.exposed)
				next.ServeHTTP(w, r)
				return
			}

			header.Add("Vary", "Access-Control-Request-Method")
			header.Add("Vary", "Access-Control-Request-Headers")
			header.Set("Access-Control-Allow-Methods", policy.methods)
			header.Set("Access-Control-Allow-Headers", policy.headers)
			header.Set("Access-Control-Max-Age", policy.maxAge)
			w.WriteHeader(http.StatusNoContent)
		})
	}
}

func joinOr(values, fallback []string) string {
	if list := trimmed(values); len(list) > 0 {
		return strings.Join(list, ", ")
	}
	return strings.Join(fallback, ", ")
}

func trimmed(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			out = append(out, value)
		}
	}
	return out
}
