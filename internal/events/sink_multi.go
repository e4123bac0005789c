package events

import (
	"context"
	"errors"
)

type multiSink []Sink

// MultiSink writes every batch to each sink in order. All sinks are tried;
// their errors are joined.
func MultiSink(sinks ...Sink) Sink {
	return multiSink(sinks)
}

func (m multiSink) Write(ctx context.Context, events ...Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(ctx, events...); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
