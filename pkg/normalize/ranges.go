package normalize

import "strings"

func IsValidPaymentDay(day int) bool  { return day >= 1 && day <= 31 }
func IsValidInstallments(n int) bool  { return n >= 1 && n <= 12 }
func IsValidFileSizeMB(mb int) bool   { return mb >= 1 && mb <= 10 }
func IsValidMaxFiles(n int) bool      { return n >= 1 && n <= 5 }
func IsNonNegative(cents *int64) bool { return cents == nil || *cents >= 0 }
func IsPositive(cents *int64) bool    { return cents != nil && *cents > 0 }

// SelectOptions trims opts, drops blanks and reports whether at least two
// remain with no case-insensitive duplicates.
func SelectOptions(opts []string) ([]string, bool) {
	out := make([]string, 0, len(opts))
	seen := make(map[string]struct{}, len(opts))
	for _, o := range opts {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		key := strings.ToLower(o)
		if _, dup := seen[key]; dup {
			return nil, false
		}
		seen[key] = struct{}{}
		out = append(out, o)
	}
	return out, len(out) >= 2
}
