package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"botcore/pkg/backoff"
)

// The gateway allows bursts of outbound frames but a bounded sustained rate.
const (
	sendRate  = rate.Limit(2) // frames per second, sustained
	sendBurst = 120
)

var (
	errHeartbeatTimeout   = errors.New("heartbeat not acknowledged within grace period")
	errReconnectRequested = errors.New("server requested reconnect")
	errSessionInvalidated = errors.New("session invalidated by server")
)

// EventHandler receives inbound dispatch events. It is called from the read
// loop and must not block; the runtime hands events off to its dispatcher.
type EventHandler func(ev Event)

// Config configures a gateway client.
type Config struct {
	URL     string
	Token   string
	Intents int
	Policy  backoff.Policy
	// PendingLimit bounds the outbound frames buffered while not Ready.
	PendingLimit int
}

// Client owns the gateway session: it connects, identifies, heartbeats, and
// reconnects with backoff, delivering dispatch events to the handler only
// while Ready.
type Client struct {
	cfg     Config
	dialer  Dialer
	handler EventHandler
	log     zerolog.Logger

	state   atomic.Int32
	seq     atomic.Int64
	hbAcked atomic.Bool
	hbSent  atomic.Int64 // unix nanos of last heartbeat send
	latency atomic.Int64 // nanos

	mu        sync.Mutex
	sessionID string
	tr        Transport
	pending   []*Frame

	limiter *rate.Limiter
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewClient builds a client. The handler may be nil (events are dropped).
func NewClient(cfg Config, dialer Dialer, handler EventHandler, log zerolog.Logger) *Client {
	if cfg.Policy == (backoff.Policy{}) {
		cfg.Policy = backoff.DefaultPolicy()
	}
	if cfg.Intents == 0 {
		cfg.Intents = IntentsAll
	}
	if cfg.PendingLimit == 0 {
		cfg.PendingLimit = 64
	}
	c := &Client{
		cfg:     cfg,
		dialer:  dialer,
		handler: handler,
		log:     log.With().Str("component", "gateway").Logger(),
		limiter: rate.NewLimiter(sendRate, sendBurst),
	}
	c.sleep = func(ctx context.Context, d time.Duration) error {
		return backoff.SleepContext(ctx, d)
	}
	return c
}

// State returns the current connection state. Safe from any goroutine; this
// is the dispatch gate's read.
func (c *Client) State() State { return State(c.state.Load()) }

// Ready reports whether events are currently being processed.
func (c *Client) Ready() bool { return c.State() == StateReady }

// Latency returns the last measured heartbeat round-trip, or 0 before the
// first acknowledgment.
func (c *Client) Latency() time.Duration { return time.Duration(c.latency.Load()) }

func (c *Client) setState(s State) {
	old := State(c.state.Swap(int32(s)))
	if old != s {
		c.log.Debug().Stringer("from", old).Stringer("to", s).Msg("state changed")
	}
}

// Run drives the connection until ctx is cancelled (clean shutdown, returns
// nil) or the handshake is rejected (returns ErrHandshakeRejected). Any
// other session failure reconnects with exponential backoff.
func (c *Client) Run(ctx context.Context) error {
	defer c.setState(StateDisconnected)

	attempt := 0
	for {
		if ctx.Err() != nil {
			return nil
		}

		c.setState(StateConnecting)
		tr, err := c.dialer.Dial(ctx, c.cfg.URL)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			attempt++
			delay := c.cfg.Policy.Delay(attempt)
			c.log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", delay).Msg("gateway dial failed")
			if c.sleep(ctx, delay) != nil {
				return nil
			}
			continue
		}

		reachedReady, err := c.session(ctx, tr)
		_ = tr.Close()
		if reachedReady {
			attempt = 0
		}

		switch {
		case errors.Is(err, ErrHandshakeRejected):
			c.log.Error().Err(err).Msg("handshake rejected, giving up")
			return ErrHandshakeRejected
		case ctx.Err() != nil:
			return nil
		}

		c.setState(StateReconnecting)
		attempt++
		delay := c.cfg.Policy.Delay(attempt)
		c.log.Warn().Err(err).Dur("retry_in", delay).Msg("gateway session ended, reconnecting")
		if c.sleep(ctx, delay) != nil {
			return nil
		}
	}
}

// session runs one transport session from hello to close. It reports whether
// the session ever reached Ready, so the caller can reset its backoff.
func (c *Client) session(parent context.Context, tr Transport) (bool, error) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	f, err := tr.ReadFrame()
	if err != nil {
		return false, fmt.Errorf("awaiting hello: %w", translateClose(err))
	}
	if f.Op != OpHello {
		return false, fmt.Errorf("expected hello, got op %d", f.Op)
	}
	var hello helloPayload
	if err := json.Unmarshal(f.Data, &hello); err != nil {
		return false, fmt.Errorf("decode hello: %w", err)
	}
	interval := time.Duration(hello.HeartbeatInterval) * time.Millisecond
	if interval <= 0 {
		return false, fmt.Errorf("hello carried heartbeat interval %dms", hello.HeartbeatInterval)
	}

	c.setState(StateIdentifying)
	c.mu.Lock()
	c.tr = tr
	resumeID, resumeSeq := c.sessionID, c.seq.Load()
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.tr = nil
		c.mu.Unlock()
	}()

	if resumeID != "" && resumeSeq > 0 {
		err = c.writeResume(tr, resumeID, resumeSeq)
	} else {
		err = c.writeIdentify(tr)
	}
	if err != nil {
		return false, fmt.Errorf("handshake send: %w", err)
	}

	var reachedReady atomic.Bool
	errCh := make(chan error, 2)
	go func() { errCh <- c.heartbeatLoop(ctx, tr, interval) }()
	go func() { errCh <- c.readLoop(ctx, tr, &reachedReady) }()

	select {
	case <-parent.Done():
		cancel()
		_ = tr.Close()
		return reachedReady.Load(), parent.Err()
	case err := <-errCh:
		cancel()
		_ = tr.Close()
		return reachedReady.Load(), err
	}
}

func (c *Client) writeIdentify(tr Transport) error {
	f, err := NewFrame(OpIdentify, "", identifyPayload{
		Token:   c.cfg.Token,
		Intents: c.cfg.Intents,
		Properties: identifyProperties{
			OS:     runtime.GOOS,
			Device: "botcore",
		},
	})
	if err != nil {
		return err
	}
	return tr.WriteFrame(f)
}

func (c *Client) writeResume(tr Transport, sessionID string, seq int64) error {
	f, err := NewFrame(OpResume, "", resumePayload{
		Token:     c.cfg.Token,
		SessionID: sessionID,
		Seq:       seq,
	})
	if err != nil {
		return err
	}
	return tr.WriteFrame(f)
}

// heartbeatLoop sends a heartbeat every interval. A beat still unacked when
// the next tick fires means the session is stale and must be re-established.
func (c *Client) heartbeatLoop(ctx context.Context, tr Transport, interval time.Duration) error {
	c.hbAcked.Store(true)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if !c.hbAcked.Load() {
				return errHeartbeatTimeout
			}
			if err := c.sendHeartbeat(tr); err != nil {
				return fmt.Errorf("send heartbeat: %w", err)
			}
		}
	}
}

func (c *Client) sendHeartbeat(tr Transport) error {
	seq := c.seq.Load()
	data, err := json.Marshal(seq)
	if err != nil {
		return err
	}
	c.hbAcked.Store(false)
	c.hbSent.Store(time.Now().UnixNano())
	return tr.WriteFrame(&Frame{Op: OpHeartbeat, Data: data})
}

func (c *Client) readLoop(ctx context.Context, tr Transport, reachedReady *atomic.Bool) error {
	for {
		f, err := tr.ReadFrame()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return translateClose(err)
		}

		switch f.Op {
		case OpDispatch:
			if f.Seq > 0 {
				c.seq.Store(f.Seq)
			}
			if err := c.handleDispatch(f, reachedReady); err != nil {
				return err
			}
		case OpHeartbeat:
			// server asked for an immediate beat
			if err := c.sendHeartbeat(tr); err != nil {
				return fmt.Errorf("send requested heartbeat: %w", err)
			}
		case OpHeartbeatAck:
			c.hbAcked.Store(true)
			if sent := c.hbSent.Load(); sent > 0 {
				c.latency.Store(time.Since(time.Unix(0, sent)).Nanoseconds())
			}
		case OpReconnect:
			return errReconnectRequested
		case OpInvalidSession:
			c.mu.Lock()
			c.sessionID = ""
			c.mu.Unlock()
			c.seq.Store(0)
			return errSessionInvalidated
		case OpHello:
			// duplicate hello, nothing to do
		default:
			c.log.Debug().Int("op", int(f.Op)).Msg("unknown gateway op")
		}
	}
}

func (c *Client) handleDispatch(f *Frame, reachedReady *atomic.Bool) error {
	switch f.Type {
	case EventReady:
		var ready readyPayload
		if err := json.Unmarshal(f.Data, &ready); err != nil {
			return fmt.Errorf("decode ready: %w", err)
		}
		c.mu.Lock()
		c.sessionID = ready.SessionID
		c.mu.Unlock()
		c.becomeReady(reachedReady)
		c.log.Info().Str("session_id", ready.SessionID).Str("user", ready.User.Username).Msg("✅ gateway session ready")
	case EventResumed:
		c.becomeReady(reachedReady)
		c.log.Info().Msg("✅ gateway session resumed")
	default:
		if !c.Ready() {
			// no replay for events missed outside Ready
			c.log.Debug().Str("type", f.Type).Msg("discarding event outside ready state")
			return nil
		}
		if c.handler != nil {
			c.handler(Event{Type: f.Type, Data: f.Data, Seq: f.Seq})
		}
	}
	return nil
}

func (c *Client) becomeReady(reachedReady *atomic.Bool) {
	c.setState(StateReady)
	reachedReady.Store(true)
	c.flushPending()
}

// Send delivers a frame through the gateway, waiting on the outbound rate
// limit. While the session is not Ready the frame is buffered (bounded) and
// replayed once Ready is reached again.
func (c *Client) Send(ctx context.Context, f *Frame) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	tr := c.tr
	if tr == nil || c.State() != StateReady {
		if len(c.pending) >= c.cfg.PendingLimit {
			c.pending = c.pending[1:]
			c.log.Warn().Msg("outbound buffer full, dropping oldest frame")
		}
		c.pending = append(c.pending, f)
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	return tr.WriteFrame(f)
}

func (c *Client) flushPending() {
	c.mu.Lock()
	queued := c.pending
	c.pending = nil
	tr := c.tr
	c.mu.Unlock()

	if tr == nil {
		return
	}
	for _, f := range queued {
		if err := tr.WriteFrame(f); err != nil {
			c.log.Warn().Err(err).Msg("failed to replay buffered frame")
			return
		}
	}
}

// SendMessage sends a text message to a channel.
func (c *Client) SendMessage(ctx context.Context, channelID, content string) error {
	f, err := NewFrame(OpDispatch, EventMessageSend, MessageSend{
		ChannelID: channelID,
		Content:   content,
	})
	if err != nil {
		return err
	}
	return c.Send(ctx, f)
}

// RespondInteraction answers a structured interaction.
func (c *Client) RespondInteraction(ctx context.Context, interactionID, content string) error {
	f, err := NewFrame(OpDispatch, EventInteractionResponse, InteractionResponse{
		InteractionID: interactionID,
		Content:       content,
	})
	if err != nil {
		return err
	}
	return c.Send(ctx, f)
}

// translateClose maps fatal close codes to ErrHandshakeRejected. Auth
// failures surface during or right after identify; either way retrying with
// the same credential cannot help.
func translateClose(err error) error {
	if isFatalClose(err) {
		return fmt.Errorf("%w: %v", ErrHandshakeRejected, err)
	}
	return err
}
