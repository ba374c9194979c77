package authz

import "github.com/platformkit/notifyhub/pkg/notification"

// Namespace is a logical grouping of live connections sharing authorization
// to receive a class of messages. Two shapes exist: user:{id} for
// individually-addressed messages and category:{name} for everything else.
type Namespace string

// UserNamespace addresses a single user's connections.
func UserNamespace(userID string) Namespace {
	return Namespace("user:" + userID)
}

// CategoryNamespace groups connections subscribed to one category.
func CategoryNamespace(c notification.Category) Namespace {
	return Namespace("category:" + string(c))
}

func (n Namespace) String() string {
	return string(n)
}
