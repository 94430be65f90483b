package dispatcher

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/blockedby/autorecruit/internal/render"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// RunConfig is the immutable configuration of one run.
type RunConfig struct {
	From           string `validate:"required,email"`
	FromName       string
	Template       render.Template
	AttachmentPath string `validate:"required"`

	// pause between sends, chosen uniformly in [DelayMin, DelayMax]
	DelayMin time.Duration `validate:"gte=0"`
	DelayMax time.Duration `validate:"gte=0,gtefield=DelayMin"`

	// 0 means all contacts
	BatchSize          int           `validate:"gte=0"`
	BackoffOnTransient time.Duration `validate:"gte=0"`

	DryRun bool
	Source string
}

// ConfigError reports an invalid RunConfig. It is fatal: nothing is sent.
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	return "invalid run configuration: " + strings.Join(e.Problems, "; ")
}

// Validate checks the configuration before any side effect.
func (c RunConfig) Validate() error {
	var problems []string

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return &ConfigError{Problems: []string{err.Error()}}
		}
		for _, fe := range verrs {
			problems = append(problems, describe(fe))
		}
	}
	if strings.TrimSpace(c.Template.Subject) == "" {
		problems = append(problems, "template subject is empty")
	}
	if strings.TrimSpace(c.Template.Body) == "" {
		problems = append(problems, "template body is empty")
	}

	if len(problems) > 0 {
		return &ConfigError{Problems: problems}
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s %q is not an email address", fe.Field(), fe.Value())
	case "gtefield":
		return fmt.Sprintf("%s must not be less than %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must not be negative", fe.Field())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}
