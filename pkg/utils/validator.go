package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail validates an email address
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

// ValidatePhone validates an Indonesian phone number (+62 or 0 prefix,
// 8-13 digits)
func ValidatePhone(phone string) error {
	normalized := strings.ReplaceAll(strings.ReplaceAll(phone, " ", ""), "-", "")
	matched, _ := regexp.MatchString(`^(\+62|62|0)8[0-9]{7,12}$`, normalized)
	if !matched {
		return fmt.Errorf("invalid phone number: %s", phone)
	}
	return nil
}

// SanitizeString removes control characters from free-form input
func SanitizeString(s string) string {
	return regexp.MustCompile(`[\x00-\x1f\x7f]`).ReplaceAllString(s, "")
}
