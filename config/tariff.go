package config

import (
	"fmt"

	"github.com/packsim/packsim/auth"
)

// TariffConfig wires the wholesale electricity price connector used by
// the economics report. Disabled by default; enabling it requires API
// credentials.
type TariffConfig struct {
	Enabled   bool      `json:"enabled"`
	Connector string    `json:"connector"`
	Auth      auth.Conf `json:"auth"`
	// WindowHours bounds the price history fetched for the summary.
	WindowHours int `json:"window_hours"`
}

// SetDefaults selects the wholesale market connector over a one-day window.
func (c *TariffConfig) SetDefaults() {
	if c.Connector == "" {
		c.Connector = "wholesale_market"
	}
	if c.WindowHours == 0 {
		c.WindowHours = 24
	}
}

// Validate checks credentials only when the connector is enabled.
func (c TariffConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Connector == "" {
		return fmt.Errorf("connector id is required")
	}
	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if c.WindowHours <= 0 {
		return fmt.Errorf("window_hours must be positive, got %d", c.WindowHours)
	}
	return nil
}
