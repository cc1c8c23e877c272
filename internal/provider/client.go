package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/joboffers/internal/domain"
	apperrors "github.com/timmy/joboffers/internal/errors"
	"github.com/timmy/joboffers/internal/logger"
)

// PayloadSink receives the raw body of every successful provider response.
type PayloadSink interface {
	StorePayload(ctx context.Context, p domain.Provider, body []byte) error
}

// ClientConfig holds the endpoint settings of one provider.
type ClientConfig struct {
	URL     string
	Timeout time.Duration
	// Archive is optional; nil disables payload archiving.
	Archive PayloadSink
}

// NewHTTPClient builds the resty client used by a provider adapter.
// Retries are left at zero: a failed fetch ends that provider's batch.
func NewHTTPClient(cfg *ClientConfig) *resty.Client {
	client := resty.New()
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("Accept", "application/json")
	client.SetRetryCount(0)
	return client
}

// FetchJSON issues exactly one GET and decodes the body into T.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - client: resty client configured for the provider.
//   - url: provider endpoint.
//   - p: provider name used to tag errors and logs.
//   - sink: optional raw payload archive; a failed archive write is only logged.
//   - log: logger receiving the failure detail.
// Returns:
//   - *T: decoded native response.
//   - error: PROVIDER_UNAVAILABLE domain error on transport, status or decode failure.
func FetchJSON[T any](ctx context.Context, client *resty.Client, url string, p domain.Provider, sink PayloadSink, log *logger.Logger) (*T, error) {
	var result T
	start := time.Now()

	resp, err := client.R().
		SetContext(ctx).
		ForceContentType("application/json").
		SetResult(&result).
		Get(url)

	if err == nil && !resp.IsSuccess() {
		err = fmt.Errorf("unexpected status %d", resp.StatusCode())
	}
	if err != nil {
		domainErr := apperrors.ProviderUnavailable(string(p), err)
		log.WithFields(logger.Fields{
			logger.FieldProvider: string(p),
			"url":                url,
			"stack":              string(domainErr.StackTrace()),
		}).WithError(err).Errorf("Error fetching jobs from %s", p)
		return nil, domainErr
	}

	log.WithFields(logger.Fields{
		logger.FieldProvider: string(p),
		logger.FieldStatus:   resp.StatusCode(),
	}).WithDuration(time.Since(start)).Debug("Fetched provider payload")

	if sink != nil {
		if err := sink.StorePayload(ctx, p, resp.Body()); err != nil {
			log.WithField(logger.FieldProvider, string(p)).WithError(err).Warn("Failed to archive provider payload")
		}
	}

	return &result, nil
}
