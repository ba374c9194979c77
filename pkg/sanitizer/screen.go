package sanitizer

import (
	"fmt"
	"regexp"
)

// Structured data fields are interpreted programmatically downstream, so a
// match fails the message outright rather than stripping the marker: an
// auto-sanitized payload could silently change meaning.

// marker pairs a human-auditable label with its detection pattern. The label
// is what ends up in logs; the matched content never does.
type marker struct {
	label   string
	pattern *regexp.Regexp
}

var attackMarkers = []marker{
	{"script_tag", regexp.MustCompile(`(?i)<\s*script\b`)},
	{"iframe_tag", regexp.MustCompile(`(?i)<\s*iframe\b`)},
	{"javascript_scheme", regexp.MustCompile(`(?i)javascript\s*:`)},
	{"data_scheme_html", regexp.MustCompile(`(?i)data\s*:\s*text/html`)},
	{"event_handler", regexp.MustCompile(`(?i)\bon[a-z]+\s*=`)},
	{"sql_drop_table", regexp.MustCompile(`(?i)\bdrop\s+table\b`)},
	{"sql_union_select", regexp.MustCompile(`(?i)\bunion\s+(all\s+)?select\b`)},
	{"sql_insert_into", regexp.MustCompile(`(?i)\binsert\s+into\b`)},
	{"sql_delete_from", regexp.MustCompile(`(?i)\bdelete\s+from\b`)},
	{"sql_comment_break", regexp.MustCompile(`;\s*--`)},
}

// ScreenContent scans a string for structural attack markers (script tags,
// javascript: scheme, SQL control phrases). A match returns
// ErrUnsafeContent wrapped with the marker label; the offending content is
// never included in the error.
func ScreenContent(s string) error {
	for _, m := range attackMarkers {
		if m.pattern.MatchString(s) {
			return fmt.Errorf("%w: %s", ErrUnsafeContent, m.label)
		}
	}
	return nil
}
