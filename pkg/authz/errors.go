package authz

import "errors"

var (
	// ErrUnauthorizedDelivery rejects a message whose producer lacks the
	// role its addressing or category requires. The message is dropped and
	// logged; it is never retried under a downgraded scope.
	ErrUnauthorizedDelivery = errors.New("unauthorized delivery")

	ErrUnknownRole     = errors.New("unknown role")
	ErrUnknownCategory = errors.New("unknown category")
)
