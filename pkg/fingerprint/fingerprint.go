package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"sort"
	"strings"

	"github.com/platformkit/notifyhub/pkg/clientip"
)

// Generate creates a request fingerprint from the HTTP request.
// It combines User-Agent, Accept headers, client IP, and header order
// to create a 32-character hex string identifying the device/browser.
// The abuse detector compares this value against a session's established
// fingerprint to spot hijacked sessions producing notifications.
func Generate(r *http.Request) string {
	components := []string{
		r.UserAgent(),
		r.Header.Get("Accept-Language"),
		r.Header.Get("Accept-Encoding"),
		r.Header.Get("Accept"),
		clientip.GetIP(r),
		getHeaderOrder(r),
	}

	var filtered []string
	for _, comp := range components {
		if comp != "" {
			filtered = append(filtered, comp)
		}
	}

	combined := strings.Join(filtered, "|")
	hash := sha256.Sum256([]byte(combined))

	// First 16 bytes as a 32-character hex string.
	return hex.EncodeToString(hash[:16])
}

// FromParts builds a fingerprint from already-extracted request attributes.
// Producers that do not hold an *http.Request (internal job runners, queue
// consumers) can still report a stable fingerprint for their session.
func FromParts(ip, userAgent string, extra ...string) string {
	components := append([]string{userAgent, ip}, extra...)

	var filtered []string
	for _, comp := range components {
		if comp != "" {
			filtered = append(filtered, comp)
		}
	}

	combined := strings.Join(filtered, "|")
	hash := sha256.Sum256([]byte(combined))
	return hex.EncodeToString(hash[:16])
}

// Validate compares the current request fingerprint with a stored fingerprint.
func Validate(r *http.Request, sessionFingerprint string) bool {
	return Generate(r) == sessionFingerprint
}

// getHeaderOrder fingerprints the set of stable, commonly present headers.
// Different browsers and clients send different header sets, making this a
// useful distinguishing characteristic.
func getHeaderOrder(r *http.Request) string {
	var headerNames []string
	for name := range r.Header {
		switch strings.ToLower(name) {
		case "user-agent", "accept", "accept-language", "accept-encoding",
			"connection", "upgrade-insecure-requests", "sec-fetch-dest",
			"sec-fetch-mode", "sec-fetch-site", "cache-control":
			headerNames = append(headerNames, strings.ToLower(name))
		}
	}

	sort.Strings(headerNames)
	return strings.Join(headerNames, ",")
}
