// Package authz decides which connection namespaces a validated message
// may enter.
//
// Roles are a small ordered set (user < moderator < admin). Routing is a
// closed table over the Category enum, so the set of namespaces is known
// at compile time and adding a category is an explicit, reviewable change.
// Authorization failures are terminal for the message: callers drop and
// log, they never downgrade the scope and retry.
package authz
