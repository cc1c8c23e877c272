package providerb

import (
	"context"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/joboffers/internal/domain"
	"github.com/timmy/joboffers/internal/logger"
	"github.com/timmy/joboffers/internal/provider"
)

// Client is the fetch adapter for the second provider.
type Client struct {
	client  *resty.Client
	url     string
	archive provider.PayloadSink
	log     *logger.Logger
}

// NewClient creates a new Client.
func NewClient(cfg *provider.ClientConfig, log *logger.Logger) *Client {
	return &Client{
		client:  provider.NewHTTPClient(cfg),
		url:     cfg.URL,
		archive: cfg.Archive,
		log:     log.WithComponent("providerb"),
	}
}

// Provider returns the provider this adapter fetches from.
func (c *Client) Provider() domain.Provider {
	return domain.ProviderTwo
}

// Fetch retrieves the current job map with a single request.
func (c *Client) Fetch(ctx context.Context) (*Response, error) {
	return provider.FetchJSON[Response](ctx, c.client, c.url, domain.ProviderTwo, c.archive, c.log)
}
