package composer

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// customerRules mirrors the submit-time requirements: name non-empty, email
// RFC-shaped, phone (when present) exactly 10 digits.
type customerRules struct {
	Name  string `validate:"required"`
	Email string `validate:"required,email"`
	Phone string `validate:"omitempty,len=10,numeric"`
}

func validateCustomer(info CustomerInfo) error {
	rules := customerRules{
		Name:  strings.TrimSpace(info.Name),
		Email: strings.TrimSpace(info.Email),
		Phone: strings.TrimSpace(info.Phone),
	}
	err := validate.Struct(rules)
	if err == nil {
		return nil
	}
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		fe := errs[0]
		switch fe.Field() {
		case "Name":
			return &ValidationError{Field: "name", Reason: "customer name is required"}
		case "Email":
			if fe.Tag() == "required" {
				return &ValidationError{Field: "email", Reason: "customer email is required"}
			}
			return &ValidationError{Field: "email", Reason: "invalid email address"}
		case "Phone":
			return &ValidationError{Field: "phone", Reason: "phone number must be exactly 10 digits"}
		}
	}
	return &ValidationError{Field: "customer", Reason: err.Error()}
}
