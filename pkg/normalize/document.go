// Package normalize holds the pure input helpers shared by the services:
// Brazilian document checks, contact normalization and range checks.
// Every normalizer is idempotent.
package normalize

import "strings"

// Digits drops every non-digit rune
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func CPF(s string) string     { return Digits(s) }
func CNPJ(s string) string    { return Digits(s) }
func Phone(s string) string   { return Digits(s) }
func ZipCode(s string) string { return Digits(s) }

func allSame(d string) bool {
	for i := 1; i < len(d); i++ {
		if d[i] != d[0] {
			return false
		}
	}
	return true
}

// IsValidCPF checks length and both mod-11 check digits of a CPF, masked or not
func IsValidCPF(s string) bool {
	d := Digits(s)
	if len(d) != 11 || allSame(d) {
		return false
	}
	for _, n := range []int{9, 10} {
		sum := 0
		for i := 0; i < n; i++ {
			sum += int(d[i]-'0') * (n + 1 - i)
		}
		check := 11 - sum%11
		if check >= 10 {
			check = 0
		}
		if check != int(d[n]-'0') {
			return false
		}
	}
	return true
}

// IsValidCNPJ checks length and both check digits of a CNPJ, masked or not
func IsValidCNPJ(s string) bool {
	d := Digits(s)
	if len(d) != 14 || allSame(d) {
		return false
	}
	for _, n := range []int{12, 13} {
		sum := 0
		weight := n - 7 // 5 for the first digit, 6 for the second
		for i := 0; i < n; i++ {
			sum += int(d[i]-'0') * weight
			if weight == 2 {
				weight = 9
			} else {
				weight--
			}
		}
		check := 0
		if r := sum % 11; r >= 2 {
			check = 11 - r
		}
		if check != int(d[n]-'0') {
			return false
		}
	}
	return true
}

// IsValidDocument validates a CPF (11 digits) or CNPJ (14 digits)
func IsValidDocument(s string) bool {
	switch len(Digits(s)) {
	case 11:
		return IsValidCPF(s)
	case 14:
		return IsValidCNPJ(s)
	}
	return false
}
