package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// insecure default secrets refused outside development
var knownWeakSecrets = []string{"your-secret-key", "changeme", "secret-key"}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig checks struct constraints and the rules of the current environment
func ValidateConfig(cfg *Config) error {
	var problems []string

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			problems = append(problems, ValidationError{
				Field:   fe.Field(),
				Message: fmt.Sprintf("failed %q constraint", fe.Tag()),
			}.Error())
		}
	}

	switch GetEnvironment() {
	case Production:
		if cfg.DBDriver != "postgres" {
			problems = append(problems, ValidationError{Field: "DBDriver", Message: "production requires postgres"}.Error())
		}
		if cfg.DBPassword == "" {
			problems = append(problems, ValidationError{Field: "DBPassword", Message: "db_password secret is required"}.Error())
		}
		for _, weak := range knownWeakSecrets {
			if cfg.JWTSecret == weak {
				problems = append(problems, ValidationError{Field: "JWTSecret", Message: "refusing a well-known secret"}.Error())
			}
		}
	case CI:
		if cfg.DBDriver == "postgres" && cfg.DBPassword == "" {
			problems = append(problems, ValidationError{Field: "DBPassword", Message: "FOODGRAM_DB_PASSWORD is required in CI environment"}.Error())
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(problems, "\n"))
	}

	return nil
}
