package availability

import (
	"fmt"
	"time"

	"github.com/kilianp07/careplan/core/model"
)

// OverlapError is returned by Reserve when a resource is not fully free over
// the requested interval. It signals a broken placement invariant.
type OverlapError struct {
	ResourceID string
	Day        time.Time
	Interval   model.Interval
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("resource %s is not free on %s over %s",
		e.ResourceID, e.Day.Format(model.DateLayout), e.Interval)
}

// UnknownResourceError is returned when a resource id is not indexed.
type UnknownResourceError struct {
	ResourceID string
}

func (e *UnknownResourceError) Error() string {
	return fmt.Sprintf("unknown resource %s", e.ResourceID)
}
