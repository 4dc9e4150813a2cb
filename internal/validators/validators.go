// Package validators holds pure format checks for taxpayer identifiers and
// bank numbers. Spaces, hyphens, dots and slashes are treated as separators
// and stripped before checking; any other non-digit makes the value invalid.
package validators

import "strings"

// Digits strips separators from s. ok is false when s contains a character
// that is neither a digit nor a separator.
func Digits(s string) (digits string, ok bool) {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '.' || r == '/':
		default:
			return "", false
		}
	}
	return b.String(), true
}

// NormalizeSSN returns the nine SSN digits, or "" when s is not a valid SSN.
// Used for equality checks between decrypted SSNs.
func NormalizeSSN(s string) string {
	if !IsValidSSN(s) {
		return ""
	}
	d, _ := Digits(s)
	return d
}

// IsValidSSN reports whether s is a plausible SSN: nine digits, not all
// zero, area not 000 or 666, and not in the 9xx range.
func IsValidSSN(s string) bool {
	d, ok := Digits(s)
	if !ok || len(d) != 9 {
		return false
	}
	if d == "000000000" {
		return false
	}
	area := d[:3]
	if area == "000" || area == "666" {
		return false
	}
	return d[0] != '9'
}

// IsValidIPPIN reports whether s is a six-digit IRS identity protection PIN.
func IsValidIPPIN(s string) bool {
	d, ok := Digits(s)
	return ok && len(d) == 6
}

// IsValidRoutingNumber checks length and the ABA check digit:
// 3(d1+d4+d7) + 7(d2+d5+d8) + (d3+d6+d9) must be divisible by 10.
func IsValidRoutingNumber(s string) bool {
	d, ok := Digits(s)
	if !ok || len(d) != 9 {
		return false
	}

	n := make([]int, 9)
	for i := range d {
		n[i] = int(d[i] - '0')
	}

	sum := 3*(n[0]+n[3]+n[6]) + 7*(n[1]+n[4]+n[7]) + (n[2] + n[5] + n[8])
	return sum%10 == 0
}

// IsValidAccountNumber accepts 4 to 17 digits inclusive.
func IsValidAccountNumber(s string) bool {
	d, ok := Digits(s)
	return ok && len(d) >= 4 && len(d) <= 17
}
