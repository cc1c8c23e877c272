package storage

import (
	"bytes"
	"context"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/timmy/joboffers/internal/config"
	"github.com/timmy/joboffers/internal/domain"
	"github.com/timmy/joboffers/internal/logger"
)

// PayloadArchive stores each successful provider response body under
// <prefix>/<provider>/<yyyy-mm-dd>/<cycle_id>.json.
type PayloadArchive struct {
	store  ObjectStorage
	prefix string
	now    func() time.Time
	log    *logger.Logger
}

// NewPayloadArchive creates an archive writing through store.
// Parameters:
//   - store: bucket client.
//   - prefix: key prefix, "raw" when empty.
//   - log: logger for archive writes.
// Returns:
//   - *PayloadArchive: archive ready to receive payloads.
func NewPayloadArchive(store ObjectStorage, prefix string, log *logger.Logger) *PayloadArchive {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = "raw"
	}
	return &PayloadArchive{
		store:  store,
		prefix: prefix,
		now:    time.Now,
		log:    log.WithComponent("archive"),
	}
}

// OpenArchive connects to the configured bucket, creating it when missing.
func OpenArchive(ctx context.Context, cfg *config.ArchiveConfig, log *logger.Logger) (*PayloadArchive, error) {
	store, err := NewStorage(cfg)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return NewPayloadArchive(store, cfg.Prefix, log), nil
}

// Key returns the object key for a payload of provider p fetched in cycle.
// A missing cycle id (a fetch outside an ingestion cycle) gets a fresh uuid.
func (a *PayloadArchive) Key(p domain.Provider, cycleID string, at time.Time) string {
	if cycleID == "" {
		cycleID = uuid.NewString()
	}
	return path.Join(a.prefix, string(p), at.UTC().Format("2006-01-02"), cycleID+".json")
}

// StorePayload uploads body as the raw payload of provider p for the cycle
// carried by ctx.
func (a *PayloadArchive) StorePayload(ctx context.Context, p domain.Provider, body []byte) error {
	key := a.Key(p, logger.GetCycleID(ctx), a.now())
	if err := a.store.Upload(ctx, key, bytes.NewReader(body), int64(len(body)), "application/json"); err != nil {
		return err
	}

	logger.FromContext(ctx, a.log).WithFields(logger.Fields{
		logger.FieldProvider: string(p),
		"key":                key,
		"bytes":              len(body),
	}).Debug("Archived provider payload")
	return nil
}
