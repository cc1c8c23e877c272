package providera

import (
	"context"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/joboffers/internal/domain"
	"github.com/timmy/joboffers/internal/logger"
	"github.com/timmy/joboffers/internal/provider"
)

// Client is the fetch adapter for the first provider.
type Client struct {
	client  *resty.Client
	url     string
	archive provider.PayloadSink
	log     *logger.Logger
}

// NewClient creates a new Client.
// Parameters:
//   - cfg: endpoint URL and request timeout.
//   - log: logger for fetch failures.
// Returns:
//   - *Client: adapter bound to the configured endpoint.
func NewClient(cfg *provider.ClientConfig, log *logger.Logger) *Client {
	return &Client{
		client:  provider.NewHTTPClient(cfg),
		url:     cfg.URL,
		archive: cfg.Archive,
		log:     log.WithComponent("providera"),
	}
}

// Provider returns the provider this adapter fetches from.
func (c *Client) Provider() domain.Provider {
	return domain.ProviderOne
}

// Fetch retrieves the current job list with a single request.
func (c *Client) Fetch(ctx context.Context) (*Response, error) {
	return provider.FetchJSON[Response](ctx, c.client, c.url, domain.ProviderOne, c.archive, c.log)
}
