package price

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DefaultAPIURL is the public CoinGecko simple-price endpoint.
const DefaultAPIURL = "https://api.coingecko.com/api/v3"

// Client fetches the SOL/USD spot price.
type Client struct {
	apiURL     string
	httpClient *http.Client
}

// New creates a price client. apiURL may be empty to use the default.
func New(apiURL string) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return &Client{
		apiURL: apiURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SolUSD returns the current SOL price in USD.
func (c *Client) SolUSD(ctx context.Context) (float64, error) {
	url := c.apiURL + "/simple/price?ids=solana&vs_currencies=usd"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("price API returned %d", resp.StatusCode)
	}

	var body map[string]struct {
		USD float64 `json:"usd"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}

	entry, ok := body["solana"]
	if !ok {
		return 0, fmt.Errorf("price API response missing solana entry")
	}
	return entry.USD, nil
}
