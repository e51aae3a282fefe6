package moderation

import (
	"context"

	"github.com/apex/log"
)

// step is one unit of a moderation workflow. A critical step's failure
// aborts the sequence and surfaces the error; a best-effort step's failure
// only logs, and execution proceeds to the next step.
type step struct {
	name     string
	critical bool
	run      func(ctx context.Context) error
}

// runSteps executes the steps in order, exactly once each; there are no
// retries anywhere in the workflow.
func runSteps(ctx context.Context, op string, listingID int64, steps []step) error {
	logger := log.WithField("op", op).WithField("listing", listingID)
	for _, st := range steps {
		err := st.run(ctx)
		if err == nil {
			continue
		}
		if st.critical {
			logger.WithError(err).Errorf("%s failed, aborting %s", st.name, op)
			return err
		}
		logger.WithError(err).Warnf("%s failed, continuing", st.name)
	}
	return nil
}
