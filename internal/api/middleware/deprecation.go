package middleware

import "net/http"

// Deprecated marks every response from a legacy route with a pointer to
// its replacement.
func Deprecated(replacement string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Deprecated-Route", "Use "+replacement)
			next.ServeHTTP(w, r)
		})
	}
}
