package flow

import "strings"

// MaxPhoneDigits is the length of a Brazilian mobile number with area code.
const MaxPhoneDigits = 11

// FormatPhone masks a phone number as the user types it.
//
//	"11987654321" -> "(11) 98765-4321"
//	"119"         -> "(11) 9"
//	"1198765"     -> "(11) 98765-"
//
// The dash appears as soon as the seventh digit is typed.
//
// Every non-digit is dropped first, so the function is total over any input and
// applying it to its own output returns the same string.
func FormatPhone(value string) string {
	digits := Digits(value)
	if len(digits) > MaxPhoneDigits {
		digits = digits[:MaxPhoneDigits]
	}

	switch n := len(digits); {
	case n < 3:
		return digits
	case n < 7:
		return "(" + digits[:2] + ") " + digits[2:]
	default:
		return "(" + digits[:2] + ") " + digits[2:7] + "-" + digits[7:]
	}
}

// Digits returns only the ASCII digits of s.
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
