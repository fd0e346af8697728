package utils

import (
	"regexp"
	"strings"
)

var (
	nonDigitRegex = regexp.MustCompile(`[^\d]`)
	phoneRegex    = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)
)

// DigitsOnly strips everything but digits. Two numbers are considered the same
// contact when their digit forms are equal.
func DigitsOnly(phone string) string {
	return nonDigitRegex.ReplaceAllString(phone, "")
}

func IsValidPhone(phone string) bool {
	cleaned := regexp.MustCompile(`[^\d+]`).ReplaceAllString(phone, "")
	return phoneRegex.MatchString(cleaned)
}

// NormalizePhone returns the E.164-ish form used for outbound addressing.
func NormalizePhone(phone string) string {
	normalized := regexp.MustCompile(`[^\d+]`).ReplaceAllString(phone, "")
	if !strings.HasPrefix(normalized, "+") {
		normalized = "+" + normalized
	}
	return normalized
}

func MaskPhone(phone string) string {
	if len(phone) < 4 {
		return phone
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}

// IsNumericCode reports whether code is exactly length ASCII digits.
func IsNumericCode(code string, length int) bool {
	if len(code) != length {
		return false
	}
	for _, char := range code {
		if char < '0' || char > '9' {
			return false
		}
	}
	return true
}
