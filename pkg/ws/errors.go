package ws

import "errors"

var (
	ErrHubRequired           = errors.New("delivery hub is required")
	ErrAuthenticatorRequired = errors.New("authenticator is required")

	// ErrUnauthenticated rejects a handshake whose credentials the
	// authenticator refused.
	ErrUnauthenticated = errors.New("unauthenticated")

	errUnknownOp          = errors.New("unknown client op")
	errEmptyJoinNamespace = errors.New("join frame without namespace")
	errEmptyAckMessageID  = errors.New("ack frame without message id")
)
