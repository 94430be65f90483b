package mailer

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateAddress checks that addr is a syntactically valid email address.
func ValidateAddress(addr string) error {
	addr = strings.TrimSpace(addr)
	if err := validate.Var(addr, "required,email"); err != nil {
		return &InvalidAddressError{Address: addr}
	}
	return nil
}
