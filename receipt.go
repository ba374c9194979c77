package notifyhub

import "time"

// ReasonCode classifies a Submit outcome for the producer.
type ReasonCode string

const (
	CodeAccepted            ReasonCode = "accepted"
	CodeMalformed           ReasonCode = "malformed"
	CodeInvalid             ReasonCode = "invalid"
	CodeSerializationFailed ReasonCode = "serialization_failed"
	CodeRateLimited         ReasonCode = "rate_limited"
	CodeSuppressed          ReasonCode = "suppressed"
	CodeUnauthorized        ReasonCode = "unauthorized"
)

// Receipt is the synchronous answer to a Submit call. Accepted means the
// message passed the whole pipeline and was handed to delivery; it says
// nothing about whether any particular connection received it.
type Receipt struct {
	Accepted  bool
	Code      ReasonCode
	MessageID string

	// RetryAfter is set only for rate-limited rejections.
	RetryAfter time.Duration
}

func rejected(code ReasonCode) Receipt {
	return Receipt{Code: code}
}

func rateLimited(retryAfter time.Duration) Receipt {
	return Receipt{Code: CodeRateLimited, RetryAfter: retryAfter}
}
