package sanitizer

import (
	"fmt"
	"html"
	"strings"
	"unicode"
)

// The same notification text may be rendered into more than one output
// context by downstream consumers: HTML body, HTML attribute, a JavaScript
// string literal, or a CSS value. Each context has its own metacharacters,
// so each gets its own encoder. There is deliberately no generic Escape
// function in this package.

// EncodeHTML encodes text for interpolation into an HTML element body.
func EncodeHTML(s string) string {
	return html.EscapeString(s)
}

var htmlAttrReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&#34;",
	"'", "&#39;",
	"`", "&#96;",
	"=", "&#61;",
)

// EncodeHTMLAttr encodes text for interpolation into a quoted HTML
// attribute value. Beyond the body set it also encodes backtick and equals,
// which break out of attribute context in legacy parsers.
func EncodeHTMLAttr(s string) string {
	return htmlAttrReplacer.Replace(s)
}

// EncodeJSString encodes text for interpolation into a JavaScript string
// literal. Quotes, backslashes, tag delimiters, and the JS line separators
// U+2028/U+2029 are unicode escaped.
func EncodeJSString(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		case '"':
			b.WriteString(`\"`)
		case '<':
			b.WriteString(`\u003C`)
		case '>':
			b.WriteString(`\u003E`)
		case '&':
			b.WriteString(`\u0026`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\u2028':
			b.WriteString(`\u2028`)
		case '\u2029':
			b.WriteString(`\u2029`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&b, `\u%04X`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// EncodeCSS encodes text for interpolation into a CSS value. Everything
// outside [A-Za-z0-9] is emitted as a CSS hex escape with a trailing space
// terminator, which covers quotes, braces, and expression() style payloads.
func EncodeCSS(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 2)
	for _, r := range s {
		if r <= unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			continue
		}
		fmt.Fprintf(&b, `\%X `, r)
	}
	return b.String()
}
