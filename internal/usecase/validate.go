package usecase

import (
	"unicode/utf8"

	"telegram-marketplace-bot/internal/domain"
)

// Field format constraints enforced by the lot creation flow.
const (
	minNameLen        = 10
	maxNameLen        = 80
	minDescriptionLen = 50
	maxDescriptionLen = 500
	maxPriceDigits    = 10
)

// Rejection is the outcome of a failed validation rule. It carries a message
// key (resolved through the translator) rather than free text, so each error
// kind stays distinguishable for the user and for tests.
type Rejection struct {
	MsgKey string
	Args   []interface{}
}

func (r *Rejection) Error() string { return "validation rejected: " + r.MsgKey }

// Is makes errors.Is(err, domain.ErrValidation) hold for every rejection.
func (r *Rejection) Is(target error) bool { return target == domain.ErrValidation }

// Reject builds a rejection with the given message key.
func Reject(msgKey string, args ...interface{}) *Rejection {
	return &Rejection{MsgKey: msgKey, Args: args}
}

// ValidateName accepts lot names of 10 to 80 characters.
func ValidateName(text string) error {
	if l := utf8.RuneCountInString(text); l < minNameLen || l > maxNameLen {
		return Reject("err_name_length")
	}
	return nil
}

// ValidateDescription accepts lot descriptions of 50 to 500 characters.
func ValidateDescription(text string) error {
	if l := utf8.RuneCountInString(text); l < minDescriptionLen || l > maxDescriptionLen {
		return Reject("err_description_length")
	}
	return nil
}

// ValidatePrice accepts a non-negative integer price written as 1 to 10
// ASCII digits. Signs, separators and whitespace all fail the rule.
func ValidatePrice(text string) error {
	if len(text) == 0 || len(text) > maxPriceDigits {
		return Reject("err_price_format")
	}
	for _, r := range text {
		if r < '0' || r > '9' {
			return Reject("err_price_format")
		}
	}
	return nil
}
