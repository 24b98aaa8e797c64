package security

import (
	"fmt"
	"unicode"

	zxcvbn "github.com/nbutton23/zxcvbn-go"
)

// PasswordViolation represents a single password policy violation.
type PasswordViolation struct {
	Code    string
	Message string
}

// Error implements error for PasswordViolation.
func (v *PasswordViolation) Error() string {
	if v == nil {
		return ""
	}
	return v.Message
}

// PasswordValidationResult reports every violated rule along with an advisory
// zxcvbn strength score (0-4). The score never gates acceptance.
type PasswordValidationResult struct {
	Valid      bool
	Violations []PasswordViolation
	Score      int
}

// PasswordRule validates a password according to a specific policy rule.
type PasswordRule interface {
	Validate(password string) *PasswordViolation
}

// PasswordRuleFunc adapts a function to be used as a PasswordRule.
type PasswordRuleFunc func(password string) *PasswordViolation

// Validate executes the underlying rule function.
func (f PasswordRuleFunc) Validate(password string) *PasswordViolation {
	return f(password)
}

// PasswordValidator applies a sequence of password rules. Every rule runs
// regardless of earlier failures so callers receive the full violation list.
type PasswordValidator struct {
	rules []PasswordRule
}

// NewPasswordValidator constructs a validator with the provided rules.
func NewPasswordValidator(rules ...PasswordRule) *PasswordValidator {
	copied := make([]PasswordRule, len(rules))
	copy(copied, rules)
	return &PasswordValidator{rules: copied}
}

// DefaultPasswordValidator returns the platform's standard rule set.
func DefaultPasswordValidator() *PasswordValidator {
	return NewPasswordValidator(
		MinLengthRule(8),
		RequireUppercaseRule(),
		RequireLowercaseRule(),
		RequireDigitRule(),
		RequireSpecialRule(),
	)
}

// Validate runs all rules and collects every violation.
func (v *PasswordValidator) Validate(password string) PasswordValidationResult {
	result := PasswordValidationResult{}
	for _, rule := range v.rules {
		if violation := rule.Validate(password); violation != nil {
			result.Violations = append(result.Violations, *violation)
		}
	}
	result.Valid = len(result.Violations) == 0
	result.Score = zxcvbn.PasswordStrength(password, nil).Score
	return result
}

// MinLengthRule ensures the password has at least min characters.
func MinLengthRule(min int) PasswordRule {
	return PasswordRuleFunc(func(password string) *PasswordViolation {
		if len([]rune(password)) < min {
			return &PasswordViolation{
				Code:    "min_length",
				Message: fmt.Sprintf("password must be at least %d characters long", min),
			}
		}
		return nil
	})
}

// RequireUppercaseRule ensures the password contains an uppercase letter.
func RequireUppercaseRule() PasswordRule {
	return PasswordRuleFunc(func(password string) *PasswordViolation {
		for _, r := range password {
			if unicode.IsUpper(r) {
				return nil
			}
		}
		return &PasswordViolation{
			Code:    "uppercase",
			Message: "password must include at least one uppercase letter",
		}
	})
}

// RequireLowercaseRule ensures the password contains a lowercase letter.
func RequireLowercaseRule() PasswordRule {
	return PasswordRuleFunc(func(password string) *PasswordViolation {
		for _, r := range password {
			if unicode.IsLower(r) {
				return nil
			}
		}
		return &PasswordViolation{
			Code:    "lowercase",
			Message: "password must include at least one lowercase letter",
		}
	})
}

// RequireDigitRule ensures the password contains at least one digit.
func RequireDigitRule() PasswordRule {
	return PasswordRuleFunc(func(password string) *PasswordViolation {
		for _, r := range password {
			if r >= '0' && r <= '9' {
				return nil
			}
		}
		return &PasswordViolation{
			Code:    "digit",
			Message: "password must include at least one digit",
		}
	})
}

// RequireSpecialRule ensures the password contains at least one character
// outside [A-Za-z0-9].
func RequireSpecialRule() PasswordRule {
	return PasswordRuleFunc(func(password string) *PasswordViolation {
		for _, r := range password {
			if !isASCIIAlphanumeric(r) {
				return nil
			}
		}
		return &PasswordViolation{
			Code:    "special",
			Message: "password must include at least one special character",
		}
	})
}

func isASCIIAlphanumeric(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	}
	return false
}
