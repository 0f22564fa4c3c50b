package scheduler

import (
	"fmt"

	"github.com/kilianp07/careplan/core/model"
)

var transitions = map[model.Status][]model.Status{
	model.StatusPending:         {model.StatusPlaced, model.StatusBackupAttempted, model.StatusUnscheduled},
	model.StatusBackupAttempted: {model.StatusBackupUsed, model.StatusUnscheduled},
}

// advance moves o to the next status, refusing transitions outside the
// occurrence lifecycle.
func advance(o *model.ScheduledOccurrence, to model.Status) error {
	for _, next := range transitions[o.Status] {
		if next == to {
			o.Status = to
			return nil
		}
	}
	return fmt.Errorf("occurrence %s: illegal transition %s -> %s", o.Key(), o.Status, to)
}
