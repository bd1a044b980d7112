// Package phone normalizes phone numbers into stable comparison keys.
//
// The goal is a key that is identical for every spelling of the same
// number, not strict E.164 validity: two numbers that normalize to the
// same string always refer to the same logical contact.
package phone

import (
	"regexp"
	"strings"
)

var (
	cleanRe    = regexp.MustCompile(`[()\-.\s]`)
	frLocalRe  = regexp.MustCompile(`^0[1-9]\d{8}$`)
	bareDigits = regexp.MustCompile(`^\d{9,12}$`)
	groupRe    = regexp.MustCompile(`[\s\-()]`)
)

// Normalize canonicalizes a raw phone string. It returns "" when the
// input cannot be recognized as a phone number; callers must then fall
// back to the raw address as its own key and never merge unrecognized
// numbers together.
func Normalize(raw, defaultCountry string) string {
	s := cleanRe.ReplaceAllString(strings.TrimSpace(raw), "")
	if s == "" {
		return ""
	}

	if strings.HasPrefix(s, "00") {
		s = "+" + s[2:]
	}

	// Already international.
	if strings.HasPrefix(s, "+") {
		return s
	}

	// French local format: 0X XXXXXXXX -> +33X XXXXXXXX.
	if defaultCountry == "FR" && frLocalRe.MatchString(s) {
		return "+33" + s[1:]
	}

	// Last resort: keep a plausible bare number unchanged rather than
	// guessing at a country prefix.
	if bareDigits.MatchString(s) {
		return s
	}

	return ""
}

// GroupKey strips separators from an address for conversation grouping.
// Unlike Normalize it never rejects input and keeps the digits
// recognizable against the original display form.
func GroupKey(raw string) string {
	return groupRe.ReplaceAllString(strings.TrimSpace(raw), "")
}

// FormatForDisplay renders a normalized key back into a local display
// form. French numbers become "0X XX XX XX XX"; anything else is shown
// as-is.
func FormatForDisplay(key string) string {
	if key == "" {
		return ""
	}
	if strings.HasPrefix(key, "+33") && len(key) == 12 {
		local := "0" + key[3:]
		var b strings.Builder
		for i := 0; i < len(local); i += 2 {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(local[i : i+2])
		}
		return b.String()
	}
	return key
}
