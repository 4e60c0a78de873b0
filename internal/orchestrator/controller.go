package orchestrator

import (
	"context"
	"time"

	"github.com/pulsegate-dev/pulsegate/internal/broker"
	"github.com/pulsegate-dev/pulsegate/internal/log"
)

// Internal events. Everything that mutates state flows through the
// controller loop as one of these.
type (
	cmdInitialize struct{}
	cmdRequest    struct{}
	cmdActivity   struct{ state Activity }
	cmdSnapshot   struct{ reply chan Snapshot }

	evInitResolved struct {
		epoch uint64
		err   error
	}
	evAttempt struct {
		epoch   uint64
		attempt int
	}
	evRequestResolved struct {
		epoch uint64
		grant broker.Grant
		err   error
	}
	evTimeoutFired struct{ epoch uint64 }
	evGraceElapsed struct{ epoch uint64 }
)

// Controller owns the orchestrator state. All logic runs on a single event
// loop (Run); broker calls and deliberate delays execute in spawned
// goroutines that post resolutions back tagged with the request epoch, so a
// late result for a dead request is discarded instead of clobbering a newer
// state. The one-in-flight invariant is enforced by guard checks in the
// loop, not by locks.
type Controller struct {
	policy  Policy
	client  broker.Client
	logger  *log.Logger
	request broker.Request
	target  broker.Pair

	events  chan any
	updates chan Snapshot
	done    chan struct{}

	// Loop-owned. Never touched outside Run.
	state        Snapshot
	epoch        uint64
	activity     Activity
	timeoutTimer *time.Timer
	graceTimer   *time.Timer
}

// New creates a Controller for the given broker client. The request is the
// full permission set to ask for; target is the pair whose presence in the
// grant decides granted versus denied. logger may be nil.
func New(policy Policy, client broker.Client, request broker.Request, target broker.Pair, logger *log.Logger) *Controller {
	return &Controller{
		policy:  policy,
		client:  client,
		logger:  logger,
		request: request,
		target:  target,
		events:  make(chan any, 16),
		updates: make(chan Snapshot, 64),
		done:    make(chan struct{}),
		state:   Snapshot{Phase: PhaseUninitialized},
	}
}

// Updates returns the snapshot stream. A snapshot is published after every
// state mutation; the channel is closed when Run returns.
func (c *Controller) Updates() <-chan Snapshot {
	return c.updates
}

// Current returns the state as seen by the loop right now.
func (c *Controller) Current() Snapshot {
	reply := make(chan Snapshot, 1)
	if !c.post(cmdSnapshot{reply: reply}) {
		return c.state // loop stopped; state is no longer mutated
	}
	select {
	case s := <-reply:
		return s
	case <-c.done:
		return c.state
	}
}

// Initialize requests the one-time initialization handshake. Ignored unless
// the state is Uninitialized.
func (c *Controller) Initialize() {
	c.post(cmdInitialize{})
}

// RequestPermission requests a new permission cycle. Ignored while another
// request is in flight or before initialization has completed.
func (c *Controller) RequestPermission() {
	c.post(cmdRequest{})
}

// SetActivity feeds the host's activity-state signal into the lifecycle
// guard.
func (c *Controller) SetActivity(a Activity) {
	c.post(cmdActivity{state: a})
}

func (c *Controller) post(ev any) bool {
	select {
	case c.events <- ev:
		return true
	case <-c.done:
		return false
	}
}

// Run drives the event loop until ctx is canceled. Spawned broker flows use
// ctx too, so canceling Run is the only thing that aborts an in-flight
// broker call; timeouts and recovery never do.
func (c *Controller) Run(ctx context.Context) {
	defer func() {
		c.disarmTimeout()
		c.disarmGrace()
		close(c.done)
		close(c.updates)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-c.events:
			c.handle(ctx, ev)
		}
	}
}

func (c *Controller) handle(ctx context.Context, ev any) {
	switch ev := ev.(type) {
	case cmdSnapshot:
		ev.reply <- c.state

	case cmdInitialize:
		c.handleInitialize(ctx)

	case evInitResolved:
		c.handleInitResolved(ev)

	case cmdRequest:
		c.handleRequest(ctx)

	case evAttempt:
		if ev.epoch == c.epoch && c.state.Phase == PhaseRequesting {
			c.state.Attempt = ev.attempt
			c.publish()
		}

	case evRequestResolved:
		c.handleRequestResolved(ev)

	case evTimeoutFired:
		c.handleTimeout(ev)

	case cmdActivity:
		c.handleActivity(ev.state)

	case evGraceElapsed:
		c.handleGrace(ev)
	}
}

func (c *Controller) handleInitialize(ctx context.Context) {
	if c.state.Phase != PhaseUninitialized {
		c.logEvent(log.LogEvent{Event: log.EventActionBlocked, Phase: c.state.Phase.String(), Reason: "initialize ignored"})
		return
	}

	c.epoch++
	c.state = Snapshot{Phase: PhaseInitializing, Epoch: c.epoch}
	c.publish()
	c.logEvent(log.LogEvent{Event: log.EventInitStarted, Epoch: c.epoch})

	go c.runInit(ctx, c.epoch)
}

func (c *Controller) handleInitResolved(ev evInitResolved) {
	if ev.epoch != c.epoch || c.state.Phase != PhaseInitializing {
		c.discardStale("init", ev.epoch)
		return
	}

	if ev.err != nil {
		c.state = Snapshot{
			Phase:  PhaseInitFailed,
			Epoch:  c.epoch,
			Reason: ev.err.Error(),
			Kind:   ClassifyKind(ev.err),
		}
		c.publish()
		c.logEvent(log.LogEvent{Event: log.EventInitFailed, Epoch: c.epoch, Reason: ev.err.Error()})
		return
	}

	c.state = Snapshot{Phase: PhaseReady, Epoch: c.epoch}
	c.publish()
	c.logEvent(log.LogEvent{Event: log.EventInitReady, Epoch: c.epoch})
}

func (c *Controller) handleRequest(ctx context.Context) {
	if !c.canRequest() {
		c.logEvent(log.LogEvent{Event: log.EventActionBlocked, Phase: c.state.Phase.String(), Reason: "request ignored"})
		return
	}

	c.epoch++
	c.state = Snapshot{
		Phase:     PhaseRequesting,
		Epoch:     c.epoch,
		Attempt:   1,
		StartedAt: time.Now(),
	}
	c.armTimeout(c.epoch)
	c.publish()
	c.logEvent(log.LogEvent{Event: log.EventPermissionRequested, Epoch: c.epoch, Categories: c.request.String()})

	go c.runRequest(ctx, c.epoch)
}

// canRequest is the primary concurrency guard: at most one permission request
// in flight, and only after initialization has completed. A fatal failure
// stays retryable unless the broker environment itself is unusable; the
// request flow re-checks status and re-initializes before asking, so a
// retry from a failed startup init is safe.
func (c *Controller) canRequest() bool {
	switch c.state.Phase {
	case PhaseReady, PhaseGranted, PhaseDenied, PhaseTimedOut:
		return true
	case PhaseInitFailed:
		return c.state.Kind != KindEnvironment
	default:
		return false
	}
}

func (c *Controller) handleRequestResolved(ev evRequestResolved) {
	if ev.epoch != c.epoch || c.state.Phase != PhaseRequesting {
		c.discardStale("request", ev.epoch)
		return
	}

	c.disarmTimeout()
	c.disarmGrace()

	if ev.err != nil {
		c.state = Snapshot{
			Phase:  PhaseInitFailed,
			Epoch:  c.epoch,
			Reason: ev.err.Error(),
			Kind:   ClassifyKind(ev.err),
		}
		c.publish()
		c.logEvent(log.LogEvent{Event: log.EventPermissionFailed, Epoch: c.epoch, Reason: ev.err.Error()})
		return
	}

	grant := ev.grant
	if grant.Includes(c.target) {
		c.state = Snapshot{Phase: PhaseGranted, Epoch: c.epoch, Grant: &grant}
		c.publish()
		c.logEvent(log.LogEvent{Event: log.EventPermissionGranted, Epoch: c.epoch, Categories: c.target.String()})
		return
	}

	c.state = Snapshot{Phase: PhaseDenied, Epoch: c.epoch}
	c.publish()
	c.logEvent(log.LogEvent{Event: log.EventPermissionDenied, Epoch: c.epoch, Categories: c.target.String()})
}

func (c *Controller) handleTimeout(ev evTimeoutFired) {
	if ev.epoch != c.epoch || c.state.Phase != PhaseRequesting {
		return // stale fire; a terminal transition already handled this cycle
	}

	c.disarmTimeout()
	c.disarmGrace()
	c.state = Snapshot{Phase: PhaseTimedOut, Epoch: c.epoch, Kind: KindTimeout}
	c.publish()
	c.logEvent(log.LogEvent{Event: log.EventRequestTimeout, Epoch: c.epoch})
}

// handleActivity implements foreground recovery. A background-to-foreground
// transition while a request is in flight means the user has come back from
// the broker's consent screen; if the broker's completion callback was lost,
// the grace timer will force-clear the in-flight state shortly after.
func (c *Controller) handleActivity(next Activity) {
	prev := c.activity
	c.activity = next

	if c.state.Phase != PhaseRequesting {
		return
	}
	if next != ActivityActive || prev == ActivityActive {
		return
	}

	c.disarmTimeout()
	c.armGrace(c.epoch)
}

func (c *Controller) handleGrace(ev evGraceElapsed) {
	if ev.epoch != c.epoch || c.state.Phase != PhaseRequesting {
		return
	}

	c.disarmGrace()
	c.state = Snapshot{
		Phase:  PhaseReady,
		Epoch:  c.epoch,
		Notice: "No response from the broker after returning. Try again.",
	}
	c.publish()
	c.logEvent(log.LogEvent{Event: log.EventForegroundRecovery, Epoch: c.epoch})
}

// --- Timers ---

func (c *Controller) armTimeout(epoch uint64) {
	c.disarmTimeout()
	c.timeoutTimer = time.AfterFunc(c.policy.RequestTimeout, func() {
		c.post(evTimeoutFired{epoch: epoch})
	})
}

func (c *Controller) disarmTimeout() {
	if c.timeoutTimer != nil {
		c.timeoutTimer.Stop()
		c.timeoutTimer = nil
	}
}

func (c *Controller) armGrace(epoch uint64) {
	c.disarmGrace()
	c.graceTimer = time.AfterFunc(c.policy.RecoveryGrace, func() {
		c.post(evGraceElapsed{epoch: epoch})
	})
}

func (c *Controller) disarmGrace() {
	if c.graceTimer != nil {
		c.graceTimer.Stop()
		c.graceTimer = nil
	}
}

// --- Plumbing ---

// publish pushes the current snapshot to subscribers. A slow subscriber
// loses the oldest snapshot rather than blocking the loop.
func (c *Controller) publish() {
	select {
	case c.updates <- c.state:
	default:
		select {
		case <-c.updates:
		default:
		}
		select {
		case c.updates <- c.state:
		default:
		}
	}
}

func (c *Controller) discardStale(flow string, epoch uint64) {
	c.logEvent(log.LogEvent{
		Event:  log.EventStaleResultDiscarded,
		Epoch:  epoch,
		Phase:  c.state.Phase.String(),
		Reason: flow,
	})
}

func (c *Controller) logEvent(ev log.LogEvent) {
	if c.logger == nil {
		return
	}
	_ = c.logger.Append(ev)
}

// sleepCtx pauses for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
