package fingerprint

import "net/http"

// Middleware injects the request fingerprint into the context so the
// websocket handshake and producer endpoints can hand it to the abuse
// detector without recomputing it.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fp := Generate(r)
		ctx := SetFingerprintToContext(r.Context(), fp)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
