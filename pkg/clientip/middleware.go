package clientip

import "net/http"

// Middleware extracts the client IP and stores it in the request context so
// producer handlers and the websocket handshake see a consistent address.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := GetIP(r)
		ctx := SetIPToContext(r.Context(), ip)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
