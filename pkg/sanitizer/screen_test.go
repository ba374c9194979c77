package sanitizer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformkit/notifyhub/pkg/sanitizer"
)

func TestScreenContent_Clean(t *testing.T) {
	t.Parallel()

	for _, s := range []string{
		"Deploy finished successfully",
		"User dropped a table tennis match", // "drop table" needs the SQL phrase shape
		"Select your plan at checkout",
		"on time = good",
		"",
	} {
		assert.NoError(t, sanitizer.ScreenContent(s), "input %q", s)
	}
}

func TestScreenContent_AttackMarkers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{"script tag", `<script>alert(1)</script>`},
		{"script tag spaced", `< script src=x>`},
		{"iframe", `<iframe src="//evil">`},
		{"javascript scheme", `click javascript:alert(1)`},
		{"javascript scheme spaced", `javascript : alert(1)`},
		{"data html scheme", `data:text/html,<p>`},
		{"event handler", `<img src=x onerror=alert(1)>`},
		{"drop table", `Robert'); DROP TABLE users;`},
		{"union select", `1 UNION SELECT password FROM users`},
		{"union all select", `1 union all select *`},
		{"insert into", `INSERT INTO admins VALUES ('x')`},
		{"delete from", `delete from sessions`},
		{"comment break", `1'; -- comment`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := sanitizer.ScreenContent(tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, sanitizer.ErrUnsafeContent)
			// Errors must name the marker, never echo the payload.
			assert.NotContains(t, err.Error(), tt.input)
		})
	}
}
