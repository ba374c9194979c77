// Package pipeline runs the ordered content checks that stand between a
// structurally sound message and the delivery engine: length bounds,
// attack-marker screening, action-URL safety, and serialization safety.
//
// Every stage is a pure function; a message is valid only if all stages
// pass, and the first failure is terminal for that message. The pipeline
// never rewrites content - partial sanitization of a rejected message is
// not a thing it does.
package pipeline
