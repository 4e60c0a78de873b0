package orchestrator

import (
	"context"
	"errors"
)

var errInitDeclined = errors.New("broker declined initialization")

// runInit is the one-time initialization flow: verify broker availability,
// establish the native session, then settle before accepting permission
// requests. Runs off the loop; its resolution is posted back with the epoch
// it was started under.
func (c *Controller) runInit(ctx context.Context, epoch uint64) {
	err := c.initializeBroker(ctx)
	if err == nil {
		// The broker's native session may not be stable immediately after
		// initialize returns. Known readiness race, not a broker guarantee.
		if sErr := sleepCtx(ctx, c.policy.InitSettle); sErr != nil {
			return
		}
	}
	if ctx.Err() != nil {
		return
	}
	c.post(evInitResolved{epoch: epoch, err: err})
}

// initializeBroker performs one status-check-then-initialize pass. An
// unusable status fails without touching initialize: that is an environment
// problem the user has to fix, not a transient fault worth retrying.
func (c *Controller) initializeBroker(ctx context.Context) error {
	status, err := c.client.GetStatus(ctx)
	if err != nil {
		return classified(KindUnknown, "checking broker status: %v", err)
	}
	if !status.Usable() {
		return classified(KindEnvironment,
			"health broker is not installed or not usable (status: %s)", status)
	}

	ok, err := c.client.Initialize(ctx)
	if err != nil {
		return classified(KindTransientInit, "%v", err)
	}
	if !ok {
		return &Error{Kind: KindTransientInit, Err: errInitDeclined}
	}
	return nil
}
