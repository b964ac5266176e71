package wholesalemarket

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/packsim/packsim/auth"
	"github.com/packsim/packsim/connectors"
)

var wholesaleBaseURL = "https://digital.iservices.rte-france.com/open_api/wholesale_market/v2/france_power_exchanges?start_date=%s&end_date=%s"

// Client fetches France day-ahead power exchange prices.
type Client struct {
	startDate time.Time
	endDate   time.Time
}

// Fetch retrieves the wholesale market data for the configured date range.
// It requires an authentication client and exactly two options (start and
// end date) to be set.
func (w *Client) Fetch(authClient *auth.ClientCred, opts ...connectors.Option) (connectors.TariffResponse, error) {
	client := &http.Client{}

	if len(opts) != 2 {
		return nil, fmt.Errorf("missing options: %d are set", len(opts))
	}

	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, err
		}
	}

	url := fmt.Sprintf(wholesaleBaseURL, w.startDate.Format(time.RFC3339), w.endDate.Format(time.RFC3339))

	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if err := authClient.SetAuthHeader(req); err != nil {
		return nil, fmt.Errorf("failed to set auth header: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, body)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	var marketResponse Response
	if err := json.Unmarshal(body, &marketResponse); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &marketResponse, nil
}
