package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// fakeTimer fires immediately and records every requested delay.
type fakeTimer struct {
	delays []time.Duration
	c      chan time.Time
}

func newFakeTimer() *fakeTimer {
	return &fakeTimer{c: make(chan time.Time, 1)}
}

func (f *fakeTimer) Start(d time.Duration) {
	f.delays = append(f.delays, d)
	f.c <- time.Time{}
}

func (f *fakeTimer) Stop() {}

func (f *fakeTimer) C() <-chan time.Time { return f.c }

func TestDo(t *testing.T) {
	errBoom := errors.New("boom")

	tests := []struct {
		name       string
		policy     Policy
		failures   int
		wantErr    error
		wantCalls  int
		wantDelays []time.Duration
	}{
		{
			name:      "first attempt succeeds",
			policy:    Policy{Retries: 2, InitialDelay: time.Second},
			wantCalls: 1,
		},
		{
			name:       "succeeds on third attempt",
			policy:     Policy{Retries: 2, InitialDelay: time.Second},
			failures:   2,
			wantCalls:  3,
			wantDelays: []time.Duration{time.Second, 2 * time.Second},
		},
		{
			name:       "exhausted",
			policy:     Policy{Retries: 2, InitialDelay: time.Second},
			failures:   10,
			wantErr:    errBoom,
			wantCalls:  3,
			wantDelays: []time.Duration{time.Second, 2 * time.Second},
		},
		{
			name:       "longer schedule doubles",
			policy:     Policy{Retries: 4, InitialDelay: 100 * time.Millisecond},
			failures:   10,
			wantErr:    errBoom,
			wantCalls:  5,
			wantDelays: []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond, 800 * time.Millisecond},
		},
		{
			name:      "no retries",
			policy:    Policy{Retries: 0, InitialDelay: time.Second},
			failures:  1,
			wantErr:   errBoom,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timer := newFakeTimer()
			calls := 0
			err := Do(context.Background(), tt.policy, func(context.Context) error {
				calls++
				if calls <= tt.failures {
					return fmt.Errorf("attempt %d: %w", calls, errBoom)
				}
				return nil
			}, WithTimer(timer))

			if tt.wantErr == nil && err != nil {
				t.Fatalf("Do() error = %v, want nil", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("Do() error = %v, want %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if len(timer.delays) != len(tt.wantDelays) {
				t.Fatalf("delays = %v, want %v", timer.delays, tt.wantDelays)
			}
			for i := range tt.wantDelays {
				if timer.delays[i] != tt.wantDelays[i] {
					t.Errorf("delay[%d] = %v, want %v", i, timer.delays[i], tt.wantDelays[i])
				}
			}
		})
	}
}

func TestDo_ReturnsLastError(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{Retries: 2, InitialDelay: time.Second}, func(context.Context) error {
		calls++
		return fmt.Errorf("failure %d", calls)
	}, WithTimer(newFakeTimer()))

	if err == nil || err.Error() != "failure 3" {
		t.Errorf("Do() error = %v, want failure 3", err)
	}
}

func TestDo_Permanent(t *testing.T) {
	errInvalid := errors.New("invalid")
	timer := newFakeTimer()
	calls := 0

	err := Do(context.Background(), Policy{Retries: 5, InitialDelay: time.Second}, func(context.Context) error {
		calls++
		return Permanent(errInvalid)
	}, WithTimer(timer))

	if !errors.Is(err, errInvalid) {
		t.Errorf("Do() error = %v, want %v", err, errInvalid)
	}
	if calls != 1 || len(timer.delays) != 0 {
		t.Errorf("calls = %d, delays = %v; want a single call", calls, timer.delays)
	}
}

// cancelTimer cancels the context instead of firing.
type cancelTimer struct {
	cancel context.CancelFunc
}

func (c *cancelTimer) Start(time.Duration) { c.cancel() }
func (c *cancelTimer) Stop()               {}
func (c *cancelTimer) C() <-chan time.Time { return nil }

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	err := Do(ctx, Policy{Retries: 3, InitialDelay: time.Hour}, func(context.Context) error {
		calls++
		return errors.New("down")
	}, WithTimer(&cancelTimer{cancel: cancel}))

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Do() error = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDo_Notify(t *testing.T) {
	var attempts []int
	_ = Do(context.Background(), Policy{Retries: 2, InitialDelay: time.Millisecond}, func(context.Context) error {
		return errors.New("down")
	}, WithTimer(newFakeTimer()), WithNotify(func(err error, attempt int, d time.Duration) {
		attempts = append(attempts, attempt)
	}))

	if len(attempts) != 2 || attempts[0] != 1 || attempts[1] != 2 {
		t.Errorf("notified attempts = %v, want [1 2]", attempts)
	}
}
