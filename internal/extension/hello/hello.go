// Package hello greets the invoking user on both surfaces.
package hello

import (
	"context"
	"fmt"

	"botcore/internal/command"
	"botcore/internal/extension"
)

func init() { extension.Add(unit{}) }

type unit struct{}

func (unit) Name() string { return "hello" }

func (unit) Register(r *command.Registry) error {
	return r.Register(&command.Descriptor{
		Name:        "hello",
		Aliases:     []string{"hi"},
		Description: "Says hello to you",
		Usage:       "!hello",
		Surfaces:    command.SurfaceText | command.SurfaceSlash,
		Handler:     run,
	})
}

func run(ctx context.Context, inv *command.Invocation) error {
	return inv.Respond(ctx, fmt.Sprintf("Hello, <@%s> 👋", inv.Origin.UserID))
}
