package normalize

import (
	"regexp"
	"strings"
)

var (
	emailRe    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	mobileRe   = regexp.MustCompile(`^[1-9]{2}9[0-9]{8}$`)
	landlineRe = regexp.MustCompile(`^[1-9]{2}[2-5][0-9]{7}$`)
)

func Email(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func IsValidEmail(s string) bool { return emailRe.MatchString(s) }

// IsValidPhone accepts Brazilian mobile (DDD + 9 + 8 digits) and landline numbers
func IsValidPhone(s string) bool {
	d := Digits(s)
	switch len(d) {
	case 11:
		return mobileRe.MatchString(d)
	case 10:
		return landlineRe.MatchString(d)
	}
	return false
}

func IsValidZipCode(s string) bool { return len(Digits(s)) == 8 }

func State(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }

// IsValidState accepts a two-letter UF code
func IsValidState(s string) bool {
	st := State(s)
	if len(st) != 2 {
		return false
	}
	return st[0] >= 'A' && st[0] <= 'Z' && st[1] >= 'A' && st[1] <= 'Z'
}

func SanitizeName(s string) string {
	return strings.TrimSpace(strings.NewReplacer("<", "", ">", "").Replace(s))
}

// HasFullName requires at least a first and a last name
func HasFullName(s string) bool {
	return len(strings.Fields(s)) >= 2
}

// Text trims s and maps blank input to nil
func Text(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
