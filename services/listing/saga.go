package listing

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

type compensation struct {
	name string
	undo func(ctx context.Context) error
}

// saga records the undo action of every completed step so a failed attempt
// leaves nothing behind.
type saga struct {
	steps  []compensation
	logger *zap.Logger
}

func newSaga(logger *zap.Logger) *saga {
	return &saga{logger: logger}
}

func (s *saga) onFailure(name string, undo func(ctx context.Context) error) {
	s.steps = append(s.steps, compensation{name: name, undo: undo})
}

// rollback runs compensations newest first. It keeps going past failures and
// returns them joined; the caller's original error stays primary.
func (s *saga) rollback(ctx context.Context) error {
	var errs []error
	for i := len(s.steps) - 1; i >= 0; i-- {
		step := s.steps[i]
		s.logger.Warn("Compensating ingestion step", zap.String("step", step.name))
		if err := step.undo(ctx); err != nil {
			s.logger.Error("Compensation failed", zap.String("step", step.name), zap.Error(err))
			errs = append(errs, fmt.Errorf("undo %s: %w", step.name, err))
		}
	}
	s.steps = nil
	return errors.Join(errs...)
}
