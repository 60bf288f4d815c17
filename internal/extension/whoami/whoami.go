// Package whoami reports the invoking user's identity as the gateway sees it.
package whoami

import (
	"context"
	"fmt"

	"botcore/internal/command"
	"botcore/internal/extension"
)

func init() { extension.Add(unit{}) }

type unit struct{}

func (unit) Name() string { return "whoami" }

func (unit) Register(r *command.Registry) error {
	return r.Register(&command.Descriptor{
		Name:        "whoami",
		Description: "Displays information about you",
		Surfaces:    command.SurfaceSlash,
		Handler:     run,
	})
}

func run(ctx context.Context, inv *command.Invocation) error {
	origin := inv.Origin
	name := origin.Username
	if name == "" {
		name = "unknown"
	}
	return inv.Respond(ctx, fmt.Sprintf("You are **%s** (`%s`), talking in channel `%s`.", name, origin.UserID, origin.ChannelID))
}
