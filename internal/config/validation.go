package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	ferrors "git.home.luguber.info/inful/sitegen/internal/errors"
)

// siteNamePattern accepts letter/digit/hyphen labels separated by dots, ending in a 1-3 letter TLD.
var siteNamePattern = regexp.MustCompile(`^([A-Za-z0-9-]+\.)+[A-Za-z]{1,3}$`)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		_ = v.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
			raw := fl.Field().String()
			if raw == "" {
				return true
			}
			d, err := time.ParseDuration(raw)
			return err == nil && d >= 0
		})
		_ = v.RegisterValidation("sitename", func(fl validator.FieldLevel) bool {
			return siteNamePattern.MatchString(fl.Field().String())
		})
		validate = v
	})
	return validate
}

// Validate checks the settings struct tags and reports the first problem per field.
func Validate(s *Settings) error {
	err := validatorInstance().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ferrors.SettingsError("settings validation failed").WithCause(err).Build()
	}
	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		problems = append(problems, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
	}
	return ferrors.SettingsError("invalid settings").
		WithContext("problems", strings.Join(problems, "; ")).
		Build()
}

// site wraps the CLI site identifier for tag-based validation.
type site struct {
	Name string `validate:"required,sitename"`
}

// ValidateSiteName checks the positional site identifier against the hostname-like pattern.
func ValidateSiteName(name string) error {
	if err := validatorInstance().Struct(site{Name: name}); err != nil {
		return ferrors.ValidationError(fmt.Sprintf("invalid site name %q: expected a domain like example.com", name)).
			WithContext("site", name).
			Build()
	}
	return nil
}
