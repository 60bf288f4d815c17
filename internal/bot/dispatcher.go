package bot

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"botcore/internal/command"
)

var (
	// ErrNotReady means the gateway is not in the Ready state; events are
	// not processed outside it.
	ErrNotReady = errors.New("gateway not ready, event dropped")

	// ErrUnknownCommand means the token resolved to nothing on the event's
	// surface. Non-fatal; the structured surface gets an informational
	// reply, the text surface a silent no-op.
	ErrUnknownCommand = errors.New("unknown command")
)

// handlerTimeout bounds a single handler's execution.
const handlerTimeout = 30 * time.Second

// Dispatcher routes invocations to handlers. Each invocation runs as its own
// goroutine so a slow handler never stalls delivery of subsequent events.
// Handler failures, error returns and panics alike, are contained here.
type Dispatcher struct {
	registry *command.Registry
	ready    func() bool
	inflight *tracker
	log      zerolog.Logger
}

// NewDispatcher builds a dispatcher gated on ready.
func NewDispatcher(registry *command.Registry, ready func() bool, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		ready:    ready,
		inflight: newTracker(),
		log:      log.With().Str("component", "dispatcher").Logger(),
	}
}

// Dispatch resolves and launches one invocation. It returns once the handler
// is scheduled; handler outcomes are handled asynchronously.
func (d *Dispatcher) Dispatch(ctx context.Context, inv *command.Invocation) error {
	if !d.ready() {
		return ErrNotReady
	}

	desc, ok := d.registry.Resolve(inv.Token, inv.Surface)
	if !ok {
		d.log.Debug().Str("token", inv.Token).Stringer("surface", inv.Surface).Msg("no matching command")
		if inv.Surface == command.SurfaceSlash {
			// the user explicitly invoked a named command, so answer;
			// unprefixed chatter on the text surface stays silent. The
			// reply goes through the rate-limited outbound path, so it
			// runs off the caller's goroutine like any handler.
			done := d.inflight.add(inv.ID)
			go func() {
				defer done()
				replyCtx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
				defer cancel()
				if err := inv.Respond(replyCtx, "Unknown command. Try /help."); err != nil {
					d.log.Warn().Err(err).Msg("failed to send unknown-command reply")
				}
			}()
		}
		return ErrUnknownCommand
	}

	done := d.inflight.add(inv.ID)
	go d.run(desc, inv, done)
	return nil
}

// run executes the handler with panic containment. Handler failures become a
// generic reply to the invoking context; they never reach the event loop.
func (d *Dispatcher) run(desc *command.Descriptor, inv *command.Invocation, done func()) {
	defer done()

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	log := d.log.With().Str("command", desc.Name).Str("invocation", inv.ID).Str("user", inv.Origin.UserID).Logger()

	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Any("panic", rec).Msg("command handler panicked")
			d.replyFailure(ctx, inv)
		}
	}()

	start := time.Now()
	if err := desc.Handler(ctx, inv); err != nil {
		log.Error().Err(err).Msg("command handler failed")
		d.replyFailure(ctx, inv)
		return
	}
	log.Debug().Dur("took", time.Since(start)).Msg("command handled")
}

func (d *Dispatcher) replyFailure(ctx context.Context, inv *command.Invocation) {
	if err := inv.Respond(ctx, "Something went wrong running that command."); err != nil {
		d.log.Warn().Err(err).Msg("failed to send failure reply")
	}
}

// Shutdown waits up to timeout for in-flight invocations, then abandons any
// stragglers; their results are discarded, not awaited.
func (d *Dispatcher) Shutdown(timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := d.inflight.wait(ctx); err != nil {
		d.log.Warn().Strs("abandoned", d.inflight.list()).Msg("shutdown timeout, abandoning invocations")
		return
	}
	d.log.Debug().Msg("all invocations drained")
}
