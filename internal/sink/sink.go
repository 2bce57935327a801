package sink

import (
	"context"
	"errors"
)

// Sink delivers decoded events to an output destination.
type Sink interface {
	Publish(ctx context.Context, event map[string]any) error
	Close() error
}

// Multi fans every event out to all sinks.
type Multi []Sink

// Publish implements Sink, joining the errors of failed sinks.
func (m Multi) Publish(ctx context.Context, event map[string]any) error {
	var errs []error
	for _, s := range m {
		if err := s.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close implements Sink.
func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
