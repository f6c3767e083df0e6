package validation

import (
	"regexp"
	"strings"
)

var (
	angleBrackets = regexp.MustCompile(`[<>]`)
	jsScheme      = regexp.MustCompile(`(?i)javascript:`)
	eventHandler  = regexp.MustCompile(`(?i)on\w+=`)
	scriptWord    = regexp.MustCompile(`(?i)script`)
	multiSpace    = regexp.MustCompile(`\s{2,}`)
)

// Sanitize strips markup and script-injection tokens from untrusted
// input before it is displayed or persisted: angle brackets, the
// javascript: scheme, inline event handlers and the word "script"
// (case-insensitive), then collapses whitespace runs. Pure and
// idempotent: Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(input string) string {
	if input == "" {
		return ""
	}

	out := angleBrackets.ReplaceAllString(input, "")

	// Removing a token can splice a new one together ("scrscriptipt"),
	// so strip until nothing changes.
	for {
		prev := out
		out = jsScheme.ReplaceAllString(out, "")
		out = eventHandler.ReplaceAllString(out, "")
		out = scriptWord.ReplaceAllString(out, "")
		if out == prev {
			break
		}
	}

	return multiSpace.ReplaceAllString(out, " ")
}

// NormalizeEmail mirrors the login flow's email canonicalization.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
