package carddata

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	// PANLength is the only card number length accepted by the capture form.
	PANLength = 16
	// CVVLength is the only CVV length accepted by the capture form.
	CVVLength = 3
)

// GeneratePAN returns a random 16-digit PAN starting with bin whose last digit is a Luhn check digit.
func GeneratePAN(bin string) (string, error) {
	if err := ValidateBIN(bin); err != nil {
		return "", err
	}
	fill := PANLength - 1 - len(bin)
	digits, err := RandomDigits(fill)
	if err != nil {
		return "", fmt.Errorf("rand: %w", err)
	}
	body := bin + digits
	return body + string(luhnCheckDigit(body)), nil
}

// RandomDigits returns count uniformly distributed decimal digits.
func RandomDigits(count int) (string, error) {
	if count <= 0 {
		return "", nil
	}
	out := make([]byte, count)
	for i := range out {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		out[i] = '0' + byte(n.Int64())
	}
	return string(out), nil
}

var ten = big.NewInt(10)

// luhnSum adds up digits from the right, doubling every second one.
// With checked set the rightmost digit is a check digit and is not doubled.
func luhnSum(digits string, checked bool) int {
	sum := 0
	double := !checked
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			if d *= 2; d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum
}

func luhnCheckDigit(body string) byte {
	return '0' + byte((10-luhnSum(body, false)%10)%10)
}

// LuhnValid reports whether pan is all digits and ends with a correct Luhn check digit.
func LuhnValid(pan string) bool {
	return len(pan) >= 2 && IsDigits(pan) && luhnSum(pan, true)%10 == 0
}

func ValidateBIN(bin string) error {
	if bin == "" {
		return fmt.Errorf("bin is required")
	}
	if !IsDigits(bin) {
		return fmt.Errorf("bin must contain digits only")
	}
	switch len(bin) {
	case 6, 8:
		return nil
	default:
		return fmt.Errorf("bin must be 6 or 8 digits")
	}
}

// IsDigits reports whether s is non-empty and made of ASCII digits only.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// IsDigitsOfLen reports whether s is exactly n ASCII digits.
func IsDigitsOfLen(s string, n int) bool {
	return len(s) == n && IsDigits(s)
}

func LastN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// MaskPAN keeps the first 6 and last 4 digits of a PAN. Short inputs are fully masked.
func MaskPAN(pan string) string {
	n := len(pan)
	if n == 0 {
		return ""
	}
	if n <= 4 {
		return strings.Repeat("*", n)
	}
	if n < 10 {
		return strings.Repeat("*", n-4) + pan[n-4:]
	}
	return pan[:6] + strings.Repeat("*", n-10) + pan[n-4:]
}
