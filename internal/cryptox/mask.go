package cryptox

import "strings"

const (
	maskedSSNPlaceholder     = "***-**-****"
	maskedAccountPlaceholder = "********"
)

// MaskSSN renders an SSN as ***-**-1234. Values with fewer than four digits
// collapse to a fixed placeholder so no real digits leak.
func MaskSSN(ssn string) string {
	d := digitsOnly(ssn)
	if len(d) < 4 {
		return maskedSSNPlaceholder
	}
	return "***-**-" + d[len(d)-4:]
}

// MaskAccount renders routing and account numbers as ****1234.
func MaskAccount(number string) string {
	d := digitsOnly(number)
	if len(d) < 4 {
		return maskedAccountPlaceholder
	}
	return "****" + d[len(d)-4:]
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
