// Package notification defines the typed envelope for a notification event:
// closed Type/Category/Priority enums, a tagged recipient Scope, and the
// immutable Message value produced by Build.
//
// Build performs structural checks only; the content pipeline in
// pkg/pipeline decides whether a structurally sound message is safe to
// deliver. Keeping the two stages apart means a Message value in hand is
// always shaped correctly, and "validated" is a property the pipeline
// establishes exactly once.
package notification
