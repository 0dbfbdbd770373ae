package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)

// ValidateEmployeeID validates an employee identifier (EMP followed by digits)
func ValidateEmployeeID(id string) error {
	if !strings.HasPrefix(id, "EMP") || len(id) < 4 {
		return fmt.Errorf("employee ID must look like EMP1234: %s", id)
	}
	for _, r := range id[3:] {
		if r < '0' || r > '9' {
			return fmt.Errorf("employee ID must look like EMP1234: %s", id)
		}
	}
	return nil
}

// ValidateAmountPaise validates a claim amount in paise
func ValidateAmountPaise(amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive: %d", amount)
	}
	// 10 lakh rupees, beyond any grade's ceiling
	if amount > 100000000 {
		return fmt.Errorf("amount exceeds maximum limit: %d", amount)
	}
	return nil
}

// SanitizeString removes control characters
func SanitizeString(s string) string {
	return controlChars.ReplaceAllString(s, "")
}
