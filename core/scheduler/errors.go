package scheduler

import "fmt"

// MalformedInputError rejects an activity that cannot be scheduled as
// described: unparseable frequency, missing resource, bad backup reference.
type MalformedInputError struct {
	ActivityID string
	Reason     string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("activity %s: %s", e.ActivityID, e.Reason)
}

func malformed(id, format string, args ...any) *MalformedInputError {
	return &MalformedInputError{ActivityID: id, Reason: fmt.Sprintf(format, args...)}
}
