package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Validate checks the configuration for errors.
//
// Struct tags (`validate:"..."`) cover range and enum checks; cross-field
// rules that tags cannot express are checked explicitly below.
//
// Validate does not mutate the configuration. Run ApplyDefaults first so
// that omitted values are filled in before they are checked.
func Validate(cfg *Config) error {
	v := validator.New()

	if err := v.Struct(cfg); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return fmt.Errorf("configuration is not validatable: %w", err)
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := validateTelemetry(&cfg.Telemetry); err != nil {
		return err
	}

	if err := validateIdentity(cfg); err != nil {
		return err
	}

	return nil
}

// validateTelemetry checks the cross-field telemetry rules.
func validateTelemetry(cfg *TelemetryConfig) error {
	if cfg.Enabled && cfg.Endpoint == "" {
		return errors.New("telemetry is enabled but no endpoint is configured")
	}
	if cfg.Profiling.Enabled && cfg.Profiling.Endpoint == "" {
		return errors.New("profiling is enabled but no endpoint is configured")
	}
	return nil
}

// validateIdentity checks that the selected user store backend has the
// settings it needs.
func validateIdentity(cfg *Config) error {
	switch cfg.Identity.Store {
	case "config", "":
		// Inline users are validated when the store is built
	case "file":
		if cfg.Identity.UsersFile == "" {
			return errors.New("identity store \"file\" requires identity.users_file")
		}
	case "badger":
		if cfg.Identity.BadgerPath == "" {
			return errors.New("identity store \"badger\" requires identity.badger_path")
		}
	case "database":
		if err := cfg.Database.Validate(); err != nil {
			return fmt.Errorf("invalid database configuration: %w", err)
		}
	}
	return nil
}
