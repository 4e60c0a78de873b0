package orchestrator

import (
	"context"

	"github.com/cenkalti/backoff/v5"

	"github.com/pulsegate-dev/pulsegate/internal/broker"
	"github.com/pulsegate-dev/pulsegate/internal/log"
)

// runRequest is the permission-request flow. It runs off the loop; the
// timeout timer and foreground recovery may end the cycle while this flow is
// still executing, in which case its late resolution is discarded by the
// epoch check in the loop.
func (c *Controller) runRequest(ctx context.Context, epoch uint64) {
	grant, err := c.executeRequest(ctx, epoch)
	if ctx.Err() != nil {
		return // controller shutdown; nobody is waiting for this resolution
	}
	c.post(evRequestResolved{epoch: epoch, grant: grant, err: err})
}

func (c *Controller) executeRequest(ctx context.Context, epoch uint64) (broker.Grant, error) {
	// 1. Fail fast if the environment became unusable since startup.
	status, err := c.client.GetStatus(ctx)
	if err != nil {
		return broker.Grant{}, classified(KindUnknown, "checking broker status: %v", err)
	}
	if !status.Usable() {
		return broker.Grant{}, classified(KindEnvironment,
			"health broker is not installed or not usable (status: %s)", status)
	}

	// 2. Re-run initialization up to the bound. The first initialize is
	// known to sometimes leave the native object silently unready; the
	// permission call needs a session established in this cycle.
	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		ok, iErr := c.client.Initialize(ctx)
		if iErr != nil {
			return struct{}{}, iErr
		}
		if !ok {
			return struct{}{}, errInitDeclined
		}
		return struct{}{}, nil
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(c.policy.InitBackoff)),
		backoff.WithMaxTries(uint(c.policy.InitAttempts)),
	)
	if err != nil {
		return broker.Grant{}, classified(KindTransientInit,
			"initialization failed after %d attempts: %v", c.policy.InitAttempts, err)
	}

	// 3. Second settle pause, longer than the startup one. Same readiness
	// race, worse under load.
	if sErr := sleepCtx(ctx, c.policy.RequestSettle); sErr != nil {
		return broker.Grant{}, sErr
	}

	// 4. The permission call itself. Faults correlate with initialization
	// staleness, so a forced re-initialization runs between attempts.
	attempt := 0
	grant, err := backoff.Retry(ctx, func() (broker.Grant, error) {
		attempt++
		c.post(evAttempt{epoch: epoch, attempt: attempt})
		if attempt > 1 {
			if ok, iErr := c.client.Initialize(ctx); iErr != nil || !ok {
				// Let the permission call decide; the retry bound still
				// caps the cycle either way.
				c.logRetryInit(epoch, iErr)
			}
		}
		return c.client.RequestPermission(ctx, c.request)
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(c.policy.RequestBackoff)),
		backoff.WithMaxTries(uint(c.policy.RequestAttempts)),
	)
	if err != nil {
		return broker.Grant{}, classified(KindTransientPermission,
			"permission request failed after %d attempts: %v", c.policy.RequestAttempts, err)
	}

	// 5. Classification against the target pair happens on the loop.
	return grant, nil
}

func (c *Controller) logRetryInit(epoch uint64, err error) {
	reason := "re-initialization before permission retry declined"
	if err != nil {
		reason = "re-initialization before permission retry failed: " + err.Error()
	}
	c.logEvent(log.LogEvent{Event: log.EventAttemptRetry, Epoch: epoch, Reason: reason})
}
