// internal/app/system/inputval/inputval.go

// Package inputval validates request field formats before they reach a store.
package inputval

import "strings"

// IsValidEmail reports whether s looks like a plain addr-spec email.
// Display-name forms ("Name <a@b>") are rejected; single-label domains are
// allowed for dev and test environments.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, " <>") {
		return false
	}

	at := strings.IndexByte(s, '@')
	if at <= 0 || at != strings.LastIndexByte(s, '@') {
		return false
	}

	local, domain := s[:at], s[at+1:]
	return validDotAtom(local) && validDotAtom(domain)
}

// validDotAtom rejects empty parts and leading, trailing, or consecutive dots.
func validDotAtom(part string) bool {
	if part == "" {
		return false
	}
	if strings.HasPrefix(part, ".") || strings.HasSuffix(part, ".") {
		return false
	}
	return !strings.Contains(part, "..")
}
