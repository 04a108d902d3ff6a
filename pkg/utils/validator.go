package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	emailRegex         = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	controlCharRegex   = regexp.MustCompile(`[\x00-\x1f\x7f]`)
	bankCodeRegex      = regexp.MustCompile(`^[0-9]{4}$`)
	branchCodeRegex    = regexp.MustCompile(`^[0-9]{3}$`)
	accountNumberRegex = regexp.MustCompile(`^[0-9]{7}$`)
)

// Bank account types accepted for payment recipients
var AccountTypes = []string{"普通", "当座", "貯蓄"}

// ValidateEmail validates an email address
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

// ValidateBankCode validates a 4-digit Zengin bank code
func ValidateBankCode(code string) error {
	if !bankCodeRegex.MatchString(code) {
		return fmt.Errorf("bank code must be 4 digits: %s", code)
	}
	return nil
}

// ValidateBranchCode validates a 3-digit branch code
func ValidateBranchCode(code string) error {
	if !branchCodeRegex.MatchString(code) {
		return fmt.Errorf("branch code must be 3 digits: %s", code)
	}
	return nil
}

// ValidateAccountNumber validates a 7-digit account number
func ValidateAccountNumber(number string) error {
	if !accountNumberRegex.MatchString(number) {
		return fmt.Errorf("account number must be 7 digits: %s", number)
	}
	return nil
}

// ValidateAccountType validates a bank account type
func ValidateAccountType(accountType string) error {
	for _, t := range AccountTypes {
		if accountType == t {
			return nil
		}
	}
	return fmt.Errorf("account type must be one of %s: %s", strings.Join(AccountTypes, ", "), accountType)
}

// SanitizeString removes control characters and surrounding whitespace
func SanitizeString(s string) string {
	return strings.TrimSpace(controlCharRegex.ReplaceAllString(s, ""))
}
