package ingest

import (
	"github.com/timmy/joboffers/internal/config"
	"github.com/timmy/joboffers/internal/logger"
	"github.com/timmy/joboffers/internal/provider"
	"github.com/timmy/joboffers/internal/provider/providera"
	"github.com/timmy/joboffers/internal/provider/providerb"
)

// BuildSources creates a Source for every enabled provider.
// Parameters:
//   - cfg: provider endpoints.
//   - obs: receives unrecognized enum values from the transformers.
//   - archive: optional raw payload sink shared by all adapters, may be nil.
//   - log: passed to the fetch adapters.
// Returns:
//   - []Source: enabled sources, provider1 first.
func BuildSources(cfg config.ProvidersConfig, obs provider.Observer, archive provider.PayloadSink, log *logger.Logger) []Source {
	var sources []Source

	if cfg.Provider1.Enabled {
		sources = append(sources, NewSource[*providera.Response, providera.Job](
			providera.NewClient(&provider.ClientConfig{URL: cfg.Provider1.URL, Timeout: cfg.Provider1.Timeout, Archive: archive}, log),
			providera.NewTransformer(obs),
		))
	}
	if cfg.Provider2.Enabled {
		sources = append(sources, NewSource[*providerb.Response, providerb.Entry](
			providerb.NewClient(&provider.ClientConfig{URL: cfg.Provider2.URL, Timeout: cfg.Provider2.Timeout, Archive: archive}, log),
			providerb.NewTransformer(obs),
		))
	}

	return sources
}
