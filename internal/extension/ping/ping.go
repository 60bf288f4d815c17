// Package ping reports the gateway's heartbeat round-trip time.
package ping

import (
	"context"
	"fmt"
	"time"

	"botcore/internal/command"
	"botcore/internal/extension"
)

// LatencyProvider exposes the gateway's last measured heartbeat latency.
type LatencyProvider interface {
	Latency() time.Duration
}

// Unit is registered explicitly from main with the runtime injected, since
// it needs a live latency source.
type Unit struct {
	provider LatencyProvider
}

// New returns a ping unit backed by p.
func New(p LatencyProvider) *Unit { return &Unit{provider: p} }

func (u *Unit) Name() string { return "ping" }

func (u *Unit) Register(r *command.Registry) error {
	return r.Register(&command.Descriptor{
		Name:        "ping",
		Description: "Check the bot's response time",
		Usage:       "!ping",
		Surfaces:    command.SurfaceText | command.SurfaceSlash,
		Handler:     u.run,
	})
}

func (u *Unit) run(ctx context.Context, inv *command.Invocation) error {
	latency := u.provider.Latency()
	if latency <= 0 {
		return inv.Respond(ctx, "Pong! (no heartbeat measured yet)")
	}
	return inv.Respond(ctx, fmt.Sprintf("Pong! ^~^ Response time: %dms", latency.Milliseconds()))
}

var _ extension.Unit = (*Unit)(nil)
