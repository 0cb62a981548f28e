package validator

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator wraps go-playground struct validation with chat-domain rules
type Validator struct {
	validate *validator.Validate
}

// New creates a validator with the custom rules registered
func New() *Validator {
	validate := validator.New()

	v := &Validator{validate: validate}
	v.registerRules()

	return v
}

// Validate validates any struct against its validate tags
func (v *Validator) Validate(s interface{}) ValidationErrors {
	err := v.validate.Struct(s)
	if err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidationError describes one failed rule on one field
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is the set of failures for one request
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// HasErrors reports whether any rule failed
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// ToValidationErrors converts go-playground errors to the API shape
func ToValidationErrors(err error) ValidationErrors {
	var out ValidationErrors

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return ValidationErrors{{Field: "request", Message: err.Error(), Rule: "invalid"}}
	}

	for _, fieldErr := range validationErrs {
		out = append(out, ValidationError{
			Field:   strings.ToLower(fieldErr.Field()),
			Message: messageForTag(fieldErr),
			Value:   fieldErr.Value(),
			Rule:    fieldErr.Tag(),
		})
	}
	return out
}

func messageForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "message_content":
		return "must be between 1 and 5000 characters"
	case "leetcode_url":
		return "must be a leetcode.com profile URL"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// registerRules registers the chat-domain validation rules
func (v *Validator) registerRules() {
	// Message content: 1-5000 characters after trimming
	v.validate.RegisterValidation("message_content", func(fl validator.FieldLevel) bool {
		content := strings.TrimSpace(fl.Field().String())
		return len(content) >= 1 && len(content) <= 5000
	})

	// Profile URL must point at leetcode.com
	v.validate.RegisterValidation("leetcode_url", func(fl validator.FieldLevel) bool {
		url := fl.Field().String()
		return strings.Contains(url, "leetcode.com/")
	})
}
