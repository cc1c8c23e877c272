// Package provider holds what the per-provider adapters share: the warning
// observer used by transformers and the lenient field helpers.
package provider

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/timmy/joboffers/internal/domain"
	"github.com/timmy/joboffers/internal/logger"
)

// Observer receives degradation events from transformers. A transformer never
// fails on an unrecognized enum value; it maps it to Other and reports it here.
type Observer interface {
	// UnrecognizedValue is called with the raw value the provider sent.
	// Parameters:
	//   - p: provider the record came from.
	//   - field: canonical field name, e.g. "jobType" or "currency".
	//   - raw: the original, untrimmed string.
	UnrecognizedValue(p domain.Provider, field, raw string)
}

// LogObserver reports unrecognized values as warnings.
type LogObserver struct {
	log *logger.Logger
}

// NewLogObserver creates an Observer that logs through log.
func NewLogObserver(log *logger.Logger) *LogObserver {
	return &LogObserver{log: log}
}

func (o *LogObserver) UnrecognizedValue(p domain.Provider, field, raw string) {
	o.log.WithFields(logger.Fields{
		logger.FieldProvider: string(p),
		"field":              field,
		"raw_value":          raw,
	}).Warnf("Unrecognized %s: %s", field, raw)
}

// Event is one unrecognized value captured by a Recorder.
type Event struct {
	Provider domain.Provider
	Field    string
	Raw      string
}

// Recorder is an Observer that keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) UnrecognizedValue(p domain.Provider, field, raw string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Provider: p, Field: field, Raw: raw})
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Multi fans an event out to several observers.
type Multi []Observer

func (m Multi) UnrecognizedValue(p domain.Provider, field, raw string) {
	for _, o := range m {
		o.UnrecognizedValue(p, field, raw)
	}
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDate parses the date formats the providers are known to emit.
// Timestamps without a zone are taken as UTC.
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}

// OptionalString returns nil for blank input.
func OptionalString(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// intLimit is 2^63 on 64-bit platforms, the first float outside the int range.
const intLimit = -float64(math.MinInt)

// WholeUnits rounds f to the nearest integer. NaN, infinities and values that
// do not fit in an int give nil.
func WholeUnits(f float64) *int {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	r := math.Round(f)
	if r >= intLimit || r < -intLimit {
		return nil
	}
	n := int(r)
	return &n
}
