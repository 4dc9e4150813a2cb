package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/taxintake/intakeengine/internal/common"
	"github.com/taxintake/intakeengine/internal/cryptox"
)

// Validate checks struct constraints and that PIIKey yields a usable key.
// All failures wrap common.ErrConfiguration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", common.ErrConfiguration, err)
	}
	if _, err := cryptox.ParseKey(c.PIIKey); err != nil {
		return fmt.Errorf("pii_key: %w", err)
	}
	return nil
}
