package fingerprint

import "context"

type contextKey struct{}

// SetFingerprintToContext stores the request fingerprint in context.
func SetFingerprintToContext(ctx context.Context, fp string) context.Context {
	return context.WithValue(ctx, contextKey{}, fp)
}

// GetFingerprintFromContext retrieves the request fingerprint, or "" when
// the middleware did not run.
func GetFingerprintFromContext(ctx context.Context) string {
	fp, _ := ctx.Value(contextKey{}).(string)
	return fp
}
