package factory

import (
	"fmt"

	"github.com/packsim/packsim/connectors"
	wholesalemarket "github.com/packsim/packsim/connectors/clients/wholesaleMarket"
)

const (
	IDWholesaleMarket = "wholesale_market"
)

var errUnknownClient = "unknown connector id: %s"

// NewTariffClient returns the tariff client registered under id.
func NewTariffClient(id string) (connectors.TariffClient, error) {
	switch id {
	case IDWholesaleMarket:
		return &wholesalemarket.Client{}, nil
	default:
		return nil, fmt.Errorf(errUnknownClient, id)
	}
}
