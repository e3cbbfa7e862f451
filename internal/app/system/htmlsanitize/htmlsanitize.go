// internal/app/system/htmlsanitize/htmlsanitize.go

// Package htmlsanitize scrubs user-supplied strings before they are stored.
// Profile fields are plain text, so everything markup-shaped is stripped.
package htmlsanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Strip removes all HTML markup from s and trims surrounding whitespace.
// Script and style element contents are dropped entirely.
func Strip(s string) string {
	return strings.TrimSpace(strict.Sanitize(s))
}
