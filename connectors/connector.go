// Package connectors integrates external market data sources. The economics
// module consumes day-ahead wholesale prices through the TariffClient
// interface so revenue estimates can use live spreads instead of the
// configured defaults.
package connectors

import (
	"github.com/packsim/packsim/auth"
)

// ErrIncompatibleOption is the format used when an option is applied to a
// client of the wrong type.
const ErrIncompatibleOption = "option %s is not compatible with client %s"

// Option mutates a client before Fetch executes.
type Option func(TariffClient) error

// TariffClient fetches electricity prices from a market API.
type TariffClient interface {
	Fetch(authClient *auth.ClientCred, opts ...Option) (TariffResponse, error)
}

// PriceSummary condenses a fetched window into the figures the economics
// module needs. Prices are EUR/MWh.
type PriceSummary struct {
	AvgEURPerMWh     float64 `json:"avg_eur_per_mwh"`
	PeakEURPerMWh    float64 `json:"peak_eur_per_mwh"`
	OffPeakEURPerMWh float64 `json:"off_peak_eur_per_mwh"`
	Samples          int     `json:"samples"`
}

// TariffResponse exposes the fetched prices.
type TariffResponse interface {
	Summary() (PriceSummary, error)
	PriceChartHTML() (string, error)
}
