package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"botcore/internal/command"
	"botcore/internal/config"
	"botcore/internal/gateway"
)

// Bot wires the gateway client, parser, and dispatcher together and carries
// replies back out through the gateway's outbound channel. There is no
// ambient global state; everything hangs off this struct.
type Bot struct {
	cfg        *config.Config
	registry   *command.Registry
	client     *gateway.Client
	parser     *Parser
	dispatcher *Dispatcher
	log        zerolog.Logger
}

// New builds the runtime. The registry is expected to be populated (the load
// phase) before Run is called.
func New(cfg *config.Config, registry *command.Registry, log zerolog.Logger) *Bot {
	b := &Bot{
		cfg:      cfg,
		registry: registry,
		log:      log.With().Str("component", "bot").Logger(),
	}
	b.client = gateway.NewClient(gateway.Config{
		URL:     cfg.GatewayURL,
		Token:   cfg.BotToken,
		Intents: cfg.EventIntents,
	}, gateway.WebsocketDialer{}, b.handleEvent, log)
	b.parser = NewParser(cfg.CommandPrefix, b, log)
	b.dispatcher = NewDispatcher(registry, b.client.Ready, log)
	return b
}

// Run drives the gateway session until ctx is cancelled, then drains
// in-flight invocations within the configured timeout.
func (b *Bot) Run(ctx context.Context) error {
	b.log.Info().
		Str("gateway", b.cfg.GatewayURL).
		Str("prefix", b.cfg.CommandPrefix).
		Int("commands", b.registry.Len()).
		Msg("starting gateway session")

	err := b.client.Run(ctx)
	b.dispatcher.Shutdown(b.cfg.ShutdownTimeout)
	if err != nil {
		return fmt.Errorf("gateway: %w", err)
	}
	b.log.Info().Msg("❎ bot exited cleanly")
	return nil
}

// Latency exposes the gateway heartbeat round-trip for the ping command.
func (b *Bot) Latency() time.Duration { return b.client.Latency() }

// handleEvent runs on the gateway read loop: normalize, hand off, return.
// Dispatch schedules handlers on their own goroutines, so this never blocks
// delivery of the next event.
func (b *Bot) handleEvent(ev gateway.Event) {
	inv := b.parser.Parse(ev)
	if inv == nil {
		return
	}
	if err := b.dispatcher.Dispatch(context.Background(), inv); err != nil {
		b.log.Debug().Err(err).Str("token", inv.Token).Msg("invocation not dispatched")
	}
}

// Respond implements command.Responder: interaction origins answer the
// interaction, message origins get a channel message.
func (b *Bot) Respond(ctx context.Context, origin command.Origin, content string) error {
	if origin.InteractionID != "" {
		return b.client.RespondInteraction(ctx, origin.InteractionID, content)
	}
	return b.client.SendMessage(ctx, origin.ChannelID, content)
}
