package bot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"botcore/internal/command"
	"botcore/internal/gateway"
)

type recordingResponder struct {
	mu      sync.Mutex
	replies []string
	ch      chan string
}

func newRecordingResponder() *recordingResponder {
	return &recordingResponder{ch: make(chan string, 8)}
}

func (r *recordingResponder) Respond(ctx context.Context, origin command.Origin, content string) error {
	r.mu.Lock()
	r.replies = append(r.replies, content)
	r.mu.Unlock()
	r.ch <- content
	return nil
}

func (r *recordingResponder) waitReply(t *testing.T) string {
	t.Helper()
	select {
	case s := <-r.ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a reply")
		return ""
	}
}

func alwaysReady() bool { return true }

func textInvocation(token string, responder command.Responder, args ...string) *command.Invocation {
	inv := command.NewInvocation("inv-"+token, token, command.SurfaceText, command.Origin{
		ChannelID: "chan-1",
		UserID:    "u1",
	}, responder)
	inv.Args = args
	return inv
}

func slashInvocation(token string, responder command.Responder, options map[string]string) *command.Invocation {
	inv := command.NewInvocation("inv-"+token, token, command.SurfaceSlash, command.Origin{
		ChannelID:     "chan-1",
		UserID:        "u1",
		InteractionID: "int-1",
	}, responder)
	inv.Options = options
	return inv
}

func TestDispatchTextScenario(t *testing.T) {
	// prefix "!", text "!hello": parser output feeds the registry and the
	// registered handler runs
	registry := command.NewRegistry()
	invoked := make(chan *command.Invocation, 1)
	require.NoError(t, registry.Register(&command.Descriptor{
		Name:     "hello",
		Surfaces: command.SurfaceText | command.SurfaceSlash,
		Handler: func(ctx context.Context, inv *command.Invocation) error {
			invoked <- inv
			return inv.Respond(ctx, "Hello!")
		},
	}))

	responder := newRecordingResponder()
	p := NewParser("!", responder, zerolog.Nop())
	d := NewDispatcher(registry, alwaysReady, zerolog.Nop())

	inv := p.Parse(messageEvent(t, "!hello", gateway.User{ID: "u1", Username: "alice"}))
	require.NotNil(t, inv)
	require.NoError(t, d.Dispatch(context.Background(), inv))

	got := <-invoked
	assert.Equal(t, "hello", got.Token)
	assert.Empty(t, got.Args)
	assert.Equal(t, "Hello!", responder.waitReply(t))
}

func TestDispatchUnknownStructuredCommand(t *testing.T) {
	registry := command.NewRegistry()
	responder := newRecordingResponder()
	d := NewDispatcher(registry, alwaysReady, zerolog.Nop())

	err := d.Dispatch(context.Background(), slashInvocation("unknown", responder, nil))
	require.ErrorIs(t, err, ErrUnknownCommand)
	assert.Contains(t, responder.waitReply(t), "Unknown command")
}

// gatedResponder blocks every Respond until release is closed, simulating a
// slow outbound path.
type gatedResponder struct {
	release chan struct{}
	sent    chan string
}

func (g *gatedResponder) Respond(ctx context.Context, origin command.Origin, content string) error {
	<-g.release
	g.sent <- content
	return nil
}

func TestDispatchUnknownStructuredReplyDoesNotBlockDispatch(t *testing.T) {
	// Dispatch runs on the gateway read loop, so the unknown-command reply
	// must not hold it up even when the outbound path is saturated.
	registry := command.NewRegistry()
	responder := &gatedResponder{release: make(chan struct{}), sent: make(chan string, 1)}
	d := NewDispatcher(registry, alwaysReady, zerolog.Nop())

	start := time.Now()
	err := d.Dispatch(context.Background(), slashInvocation("unknown", responder, nil))
	require.ErrorIs(t, err, ErrUnknownCommand)
	assert.Less(t, time.Since(start), time.Second, "dispatch must return before the reply is delivered")

	close(responder.release)
	select {
	case reply := <-responder.sent:
		assert.Contains(t, reply, "Unknown command")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the unknown-command reply")
	}
	d.Shutdown(2 * time.Second)
	assert.Equal(t, 0, d.inflight.count())
}

func TestDispatchUnknownTextCommandIsSilent(t *testing.T) {
	registry := command.NewRegistry()
	responder := newRecordingResponder()
	d := NewDispatcher(registry, alwaysReady, zerolog.Nop())

	err := d.Dispatch(context.Background(), textInvocation("unknown", responder))
	require.ErrorIs(t, err, ErrUnknownCommand)

	select {
	case reply := <-responder.ch:
		t.Fatalf("unexpected reply %q for unknown text command", reply)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDispatchGatedOnReady(t *testing.T) {
	registry := command.NewRegistry()
	called := false
	require.NoError(t, registry.Register(&command.Descriptor{
		Name:     "hello",
		Surfaces: command.SurfaceText,
		Handler: func(ctx context.Context, inv *command.Invocation) error {
			called = true
			return nil
		},
	}))
	d := NewDispatcher(registry, func() bool { return false }, zerolog.Nop())

	err := d.Dispatch(context.Background(), textInvocation("hello", newRecordingResponder()))
	require.ErrorIs(t, err, ErrNotReady)
	assert.False(t, called)
}

func TestDispatchHandlerErrorBecomesFailureReply(t *testing.T) {
	registry := command.NewRegistry()
	require.NoError(t, registry.Register(&command.Descriptor{
		Name:     "broken",
		Surfaces: command.SurfaceText,
		Handler: func(ctx context.Context, inv *command.Invocation) error {
			return errors.New("database on fire")
		},
	}))
	responder := newRecordingResponder()
	d := NewDispatcher(registry, alwaysReady, zerolog.Nop())

	require.NoError(t, d.Dispatch(context.Background(), textInvocation("broken", responder)))
	assert.Contains(t, responder.waitReply(t), "went wrong")
}

func TestDispatchPanicDoesNotAffectConcurrentInvocation(t *testing.T) {
	registry := command.NewRegistry()
	release := make(chan struct{})
	require.NoError(t, registry.Register(&command.Descriptor{
		Name:     "panics",
		Surfaces: command.SurfaceText,
		Handler: func(ctx context.Context, inv *command.Invocation) error {
			<-release
			panic("handler bug")
		},
	}))
	require.NoError(t, registry.Register(&command.Descriptor{
		Name:     "fine",
		Surfaces: command.SurfaceText,
		Handler: func(ctx context.Context, inv *command.Invocation) error {
			<-release
			return inv.Respond(ctx, "still fine")
		},
	}))

	panicResponder := newRecordingResponder()
	fineResponder := newRecordingResponder()
	d := NewDispatcher(registry, alwaysReady, zerolog.Nop())

	require.NoError(t, d.Dispatch(context.Background(), textInvocation("panics", panicResponder)))
	require.NoError(t, d.Dispatch(context.Background(), textInvocation("fine", fineResponder)))
	close(release)

	assert.Contains(t, panicResponder.waitReply(t), "went wrong")
	assert.Equal(t, "still fine", fineResponder.waitReply(t))
}

func TestDispatchOptionsReachHandlerVerbatim(t *testing.T) {
	registry := command.NewRegistry()
	got := make(chan map[string]string, 1)
	require.NoError(t, registry.Register(&command.Descriptor{
		Name:     "echoopts",
		Surfaces: command.SurfaceSlash,
		Handler: func(ctx context.Context, inv *command.Invocation) error {
			got <- inv.Options
			return nil
		},
	}))
	d := NewDispatcher(registry, alwaysReady, zerolog.Nop())

	opts := map[string]string{"a": "1", "b": "two"}
	require.NoError(t, d.Dispatch(context.Background(), slashInvocation("echoopts", newRecordingResponder(), opts)))
	assert.Equal(t, opts, <-got)
}

func TestDispatchSlowHandlerDoesNotBlockDispatch(t *testing.T) {
	registry := command.NewRegistry()
	release := make(chan struct{})
	require.NoError(t, registry.Register(&command.Descriptor{
		Name:     "slow",
		Surfaces: command.SurfaceText,
		Handler: func(ctx context.Context, inv *command.Invocation) error {
			<-release
			return nil
		},
	}))
	d := NewDispatcher(registry, alwaysReady, zerolog.Nop())

	start := time.Now()
	require.NoError(t, d.Dispatch(context.Background(), textInvocation("slow", newRecordingResponder())))
	assert.Less(t, time.Since(start), time.Second, "dispatch must return before the handler finishes")
	close(release)
}

func TestShutdownWaitsForInflight(t *testing.T) {
	registry := command.NewRegistry()
	started := make(chan struct{})
	finished := make(chan struct{})
	require.NoError(t, registry.Register(&command.Descriptor{
		Name:     "slow",
		Surfaces: command.SurfaceText,
		Handler: func(ctx context.Context, inv *command.Invocation) error {
			close(started)
			time.Sleep(100 * time.Millisecond)
			close(finished)
			return nil
		},
	}))
	d := NewDispatcher(registry, alwaysReady, zerolog.Nop())

	require.NoError(t, d.Dispatch(context.Background(), textInvocation("slow", newRecordingResponder())))
	<-started
	d.Shutdown(2 * time.Second)

	select {
	case <-finished:
	default:
		t.Fatal("shutdown returned before the in-flight invocation finished")
	}
}

func TestShutdownAbandonsStragglers(t *testing.T) {
	registry := command.NewRegistry()
	release := make(chan struct{})
	defer close(release)
	started := make(chan struct{})
	require.NoError(t, registry.Register(&command.Descriptor{
		Name:     "stuck",
		Surfaces: command.SurfaceText,
		Handler: func(ctx context.Context, inv *command.Invocation) error {
			close(started)
			<-release
			return nil
		},
	}))
	d := NewDispatcher(registry, alwaysReady, zerolog.Nop())

	require.NoError(t, d.Dispatch(context.Background(), textInvocation("stuck", newRecordingResponder())))
	<-started

	start := time.Now()
	d.Shutdown(50 * time.Millisecond)
	assert.Less(t, time.Since(start), time.Second, "shutdown must give up after its timeout")
	assert.Equal(t, 1, d.inflight.count())
}
