package sanitizer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/platformkit/notifyhub/pkg/sanitizer"
)

func TestEncodeHTML(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "&lt;b&gt;hi&lt;/b&gt;", sanitizer.EncodeHTML("<b>hi</b>"))
	assert.Equal(t, "a &amp; b", sanitizer.EncodeHTML("a & b"))
	assert.Equal(t, "plain text", sanitizer.EncodeHTML("plain text"))
}

func TestEncodeHTMLAttr(t *testing.T) {
	t.Parallel()

	out := sanitizer.EncodeHTMLAttr(`" onmouseover=alert(1) x="`)
	assert.NotContains(t, out, `"`)
	assert.NotContains(t, out, "=")
	assert.Contains(t, out, "&#34;")
	assert.Contains(t, out, "&#61;")

	assert.Equal(t, "&#96;", sanitizer.EncodeHTMLAttr("`"))
}

func TestEncodeJSString(t *testing.T) {
	t.Parallel()

	out := sanitizer.EncodeJSString(`'";</script>`)
	assert.NotContains(t, out, "<")
	assert.NotContains(t, out, ">")
	assert.Contains(t, out, `\'`)
	assert.Contains(t, out, `\"`)
	assert.Contains(t, out, `\u003C`)
	assert.Contains(t, out, `\u003E`)

	assert.Equal(t, `line\nbreak`, sanitizer.EncodeJSString("line\nbreak"))
	assert.Equal(t, `a\\b`, sanitizer.EncodeJSString(`a\b`))
	assert.Equal(t, `\u0000`, sanitizer.EncodeJSString("\x00"))
	assert.Equal(t, ` `, sanitizer.EncodeJSString(" "))
	assert.Equal(t, "plain", sanitizer.EncodeJSString("plain"))
}

func TestEncodeCSS(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "red", sanitizer.EncodeCSS("red"))
	assert.Equal(t, `a\3A b`, sanitizer.EncodeCSS("a:b"))

	out := sanitizer.EncodeCSS(`expression(alert(1))`)
	assert.NotContains(t, out, "(")
	assert.NotContains(t, out, ")")
	assert.Contains(t, out, `\28 `)
}

func TestEncodersAreDistinct(t *testing.T) {
	t.Parallel()

	// The same input must produce context-specific output; a shared escaper
	// would collapse these.
	in := `<a href="x">`
	outs := []string{
		sanitizer.EncodeHTML(in),
		sanitizer.EncodeHTMLAttr(in),
		sanitizer.EncodeJSString(in),
		sanitizer.EncodeCSS(in),
	}
	seen := make(map[string]bool)
	for _, o := range outs {
		assert.False(t, seen[o], "two encoders produced identical output %q", o)
		seen[o] = true
	}
}
