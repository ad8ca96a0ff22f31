package relations

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated short-circuits like and review actions without a caller.
var ErrUnauthenticated = errors.New("authentication required")

// Review submission steps, in order.
const (
	StepCreateReview = "createReview"
	StepLinkUser     = "linkUser"
	StepLinkBuilding = "linkBuilding"
	StepMarkLinked   = "markLinked"
)

// PersistenceError reports which write of a multi-step operation failed. When
// ReviewID is set the review already exists but is not fully cross-linked.
type PersistenceError struct {
	Step     string
	ReviewID string
	Err      error
}

func (e *PersistenceError) Error() string {
	if e.ReviewID != "" {
		return fmt.Sprintf("review %s: %s failed: %v", e.ReviewID, e.Step, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Step, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
