package recognition

import (
	"errors"
	"fmt"
)

// ErrNoMatch means the classifier answered but recognized no building.
var ErrNoMatch = errors.New("no matching building found")

// ServiceError is a transport or contract failure of the recognition service.
type ServiceError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("recognition %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("recognition %s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) transient() bool {
	return e.StatusCode == 0 || e.StatusCode >= 500
}
