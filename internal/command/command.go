// Package command defines the command model shared by both invocation
// surfaces: descriptors, invocations, and the registry they live in. How a
// command is triggered (prefix message or structured interaction) is decided
// by the runtime; commands themselves only see an Invocation.
package command

import (
	"context"
	"fmt"
)

// Surface identifies the invocation grammar a command was triggered through.
type Surface uint8

const (
	// SurfaceText is the legacy prefix surface ("!hello world").
	SurfaceText Surface = 1 << iota
	// SurfaceSlash is the structured interaction surface (explicit command
	// name plus typed options).
	SurfaceSlash
)

// Has reports whether s includes the given surface.
func (s Surface) Has(other Surface) bool { return s&other != 0 }

func (s Surface) String() string {
	switch s {
	case SurfaceText:
		return "text"
	case SurfaceSlash:
		return "slash"
	case SurfaceText | SurfaceSlash:
		return "text|slash"
	default:
		return fmt.Sprintf("surface(%d)", uint8(s))
	}
}

// Handler executes one invocation. Errors are caught at the dispatch
// boundary and turned into a failure reply; they never reach the event loop.
type Handler func(ctx context.Context, inv *Invocation) error

// Option describes a structured-surface argument, used for help output and
// for advertising the command on that surface.
type Option struct {
	Name        string
	Description string
	Required    bool
}

// Descriptor is the registered metadata and handler for one command.
type Descriptor struct {
	Name        string
	Aliases     []string
	Description string
	Usage       string
	Surfaces    Surface
	Options     []Option
	Handler     Handler
}

// Origin identifies where an invocation came from and where replies go.
type Origin struct {
	ChannelID     string
	UserID        string
	Username      string
	InteractionID string // set only for the structured surface
}

// Responder delivers a reply to an invocation's origin. Implemented by the
// runtime on top of the gateway's outbound channel.
type Responder interface {
	Respond(ctx context.Context, origin Origin, content string) error
}

// Invocation is one normalized invocation request: the parsed token plus the
// arguments in the shape the originating surface produced. It is built per
// inbound event and discarded after dispatch completes.
type Invocation struct {
	ID      string
	Token   string
	Surface Surface
	Args    []string          // text surface: whitespace-split tokens after the command
	Options map[string]string // structured surface: typed options, copied verbatim
	Origin  Origin

	responder Responder
}

// NewInvocation binds a responder so handlers can reply without knowing the
// transport.
func NewInvocation(id, token string, surface Surface, origin Origin, responder Responder) *Invocation {
	return &Invocation{
		ID:        id,
		Token:     token,
		Surface:   surface,
		Origin:    origin,
		responder: responder,
	}
}

// Respond sends content back to the invoking channel or interaction.
func (inv *Invocation) Respond(ctx context.Context, content string) error {
	if inv.responder == nil {
		return fmt.Errorf("invocation %s has no responder", inv.ID)
	}
	return inv.responder.Respond(ctx, inv.Origin, content)
}

// Option returns the named structured option, or "" when absent.
func (inv *Invocation) Option(name string) string {
	return inv.Options[name]
}

// Arg returns the positional argument at i, or "" when out of range.
func (inv *Invocation) Arg(i int) string {
	if i < 0 || i >= len(inv.Args) {
		return ""
	}
	return inv.Args[i]
}
