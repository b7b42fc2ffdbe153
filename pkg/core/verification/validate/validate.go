// Package validate checks captured form values against step field rules.
package validate

import (
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nyaruka/phonenumbers"

	"sanchari/pkg/core/verification/model"
)

// DefaultRegion is used to parse phone numbers written without a country code.
const DefaultRegion = "IN"

// DocumentKey is the error key used when a required document is missing.
const DocumentKey = "document"

// Errors maps a field key to a human readable message.
type Errors map[string]string

func (e Errors) OK() bool { return len(e) == 0 }

// Field returns "" when value is acceptable for f.
func Field(f model.Field, value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		if f.Required {
			return fmt.Sprintf("%s is required", label(f))
		}
		return ""
	}

	n := utf8.RuneCountInString(value)
	if f.MinLength > 0 && n < f.MinLength {
		return fmt.Sprintf("%s must be at least %d characters", label(f), f.MinLength)
	}
	if f.MaxLength > 0 && n > f.MaxLength {
		return fmt.Sprintf("%s must be at most %d characters", label(f), f.MaxLength)
	}

	if msg := checkType(f, value); msg != "" {
		return msg
	}

	if !f.Matches(value) {
		return fmt.Sprintf("%s has an invalid format", label(f))
	}
	return ""
}

// Step validates every field declared by step against form. Values for keys
// the step does not declare are ignored.
func Step(step model.Step, form map[string]string) Errors {
	errs := Errors{}
	for _, f := range step.Fields {
		if msg := Field(f, form[f.Key]); msg != "" {
			errs[f.Key] = msg
		}
	}
	return errs
}

// MissingRequired lists required fields of step that have no value. Formats
// are not checked.
func MissingRequired(step model.Step, form map[string]string) []string {
	var missing []string
	for _, f := range step.Fields {
		if f.Required && strings.TrimSpace(form[f.Key]) == "" {
			missing = append(missing, f.Key)
		}
	}
	return missing
}

func checkType(f model.Field, value string) string {
	switch f.Type {
	case model.FieldEmail:
		addr, err := mail.ParseAddress(value)
		if err != nil || addr.Address != value {
			return fmt.Sprintf("%s must be a valid email address", label(f))
		}
	case model.FieldPhone:
		num, err := phonenumbers.Parse(value, DefaultRegion)
		if err != nil || !phonenumbers.IsValidNumber(num) {
			return fmt.Sprintf("%s must be a valid phone number", label(f))
		}
	case model.FieldNumber:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return fmt.Sprintf("%s must be a number", label(f))
		}
	case model.FieldDate:
		if _, err := time.Parse(time.DateOnly, value); err != nil {
			return fmt.Sprintf("%s must be a date (YYYY-MM-DD)", label(f))
		}
	}
	return ""
}

func label(f model.Field) string {
	if f.Label != "" {
		return f.Label
	}
	return f.Key
}
