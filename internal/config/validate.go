package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gobwas/glob"
)

var (
	// ErrInvalidConfig wraps every validation failure.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidIgnorePattern indicates an extract.ignore entry that does not compile as a glob.
	ErrInvalidIgnorePattern = errors.New("invalid ignore pattern")
)

// validate caches struct metadata; field names are reported by their yaml keys.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks that the configuration is valid and complete.
// The returned error wraps ErrInvalidConfig.
func Validate(cfg *Config) error {
	var errs []error

	if err := validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		for _, fe := range fieldErrs {
			errs = append(errs, describeFieldError(fe))
		}
	}

	for _, pattern := range cfg.Extract.Ignore {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			errs = append(errs, fmt.Errorf("%w: extract.ignore %q: %v", ErrInvalidIgnorePattern, pattern, err))
		}
	}

	return joinErrors(errs)
}

// describeFieldError renders e.g. "extract.workers must satisfy min=1, got 0".
func describeFieldError(fe validator.FieldError) error {
	key := strings.TrimPrefix(fe.Namespace(), "Config.")
	rule := fe.Tag()
	if fe.Param() != "" {
		rule += "=" + fe.Param()
	}
	return fmt.Errorf("%s must satisfy %s, got %v", key, rule, fe.Value())
}

// joinErrors combines multiple errors into a single error with clear formatting.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errs[0])
	}

	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}

	return fmt.Errorf("%w: validation failed:\n  - %s", ErrInvalidConfig, strings.Join(msgs, "\n  - "))
}
