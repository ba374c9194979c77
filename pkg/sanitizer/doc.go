// Package sanitizer provides the content-safety primitives of the
// notification pipeline: context-aware output encoders, a deny-list screen
// for structural attack markers, and action-URL validation.
//
// # Output contexts
//
// Free text from a notification may be rendered by downstream consumers
// into several contexts, and each context needs its own encoder:
//
//	sanitizer.EncodeHTML(title)     // element body
//	sanitizer.EncodeHTMLAttr(title) // quoted attribute value
//	sanitizer.EncodeJSString(title) // JS string literal
//	sanitizer.EncodeCSS(title)      // CSS value
//
// A single shared escaper cannot be correct for all four, which is why the
// encoders are distinct, explicitly-named functions selected by the
// consumer's render context.
//
// # Screening vs. encoding
//
// Title and body text is encoded at render time. Structured data payloads
// are interpreted programmatically and cannot be safely auto-sanitized, so
// ScreenContent rejects rather than rewrites: any match against the attack
// marker deny-list fails the message.
//
// All functions are pure; errors name the violated rule and never echo the
// offending input, so rejected payloads do not leak into logs.
package sanitizer
