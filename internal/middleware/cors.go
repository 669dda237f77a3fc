package middleware

import (
	"net/http"
	"strings"
)

// CORS answers preflight requests and sets the allow headers for origins in
// the list. "*" allows every origin.
func CORS(origins []string) func(http.Handler) http.Handler {
	allowed := OriginAllowed(origins)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && allowed(origin) {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
				h.Add("Vary", "Origin")
			}
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// OriginAllowed returns a matcher for the configured origins
func OriginAllowed(origins []string) func(string) bool {
	set := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o == "*" {
			return func(string) bool { return true }
		}
		set[strings.TrimRight(o, "/")] = struct{}{}
	}
	return func(origin string) bool {
		_, ok := set[strings.TrimRight(origin, "/")]
		return ok
	}
}
