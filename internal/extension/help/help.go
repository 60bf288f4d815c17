// Package help lists the registered commands, or describes one of them.
package help

import (
	"context"
	"fmt"
	"strings"

	"botcore/internal/command"
	"botcore/internal/extension"
)

func init() { extension.Add(unit{}) }

type unit struct{}

func (unit) Name() string { return "help" }

func (unit) Register(r *command.Registry) error {
	return r.Register(&command.Descriptor{
		Name:        "help",
		Aliases:     []string{"commands"},
		Description: "Lists commands, or shows how to use one",
		Usage:       "!help [command]",
		Surfaces:    command.SurfaceText | command.SurfaceSlash,
		Options: []command.Option{
			{Name: "command", Description: "Command to describe"},
		},
		Handler: run(r),
	})
}

// run closes over the registry it was registered into; the command set is
// final once loading completes.
func run(r *command.Registry) command.Handler {
	return func(ctx context.Context, inv *command.Invocation) error {
		target := inv.Option("command")
		if target == "" {
			target = inv.Arg(0)
		}
		if target != "" {
			return inv.Respond(ctx, describe(r, target))
		}
		return inv.Respond(ctx, overview(r))
	}
}

func overview(r *command.Registry) string {
	var b strings.Builder
	b.WriteString("**Available commands**\n")
	for _, d := range r.All() {
		b.WriteString(fmt.Sprintf("`%s`", d.Name))
		if d.Description != "" {
			b.WriteString(" - " + d.Description)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func describe(r *command.Registry, target string) string {
	d, ok := lookup(r, target)
	if !ok {
		return fmt.Sprintf("No command named `%s`.", target)
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("**%s**", d.Name))
	if d.Description != "" {
		b.WriteString(" - " + d.Description)
	}
	b.WriteString("\n")
	if len(d.Aliases) > 0 {
		b.WriteString("Aliases: " + strings.Join(d.Aliases, ", ") + "\n")
	}
	if d.Usage != "" {
		b.WriteString("Usage: `" + d.Usage + "`\n")
	}
	for _, opt := range d.Options {
		line := fmt.Sprintf("Option `%s`: %s", opt.Name, opt.Description)
		if opt.Required {
			line += " (required)"
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// lookup matches target against names and aliases regardless of which
// surface the described command supports.
func lookup(r *command.Registry, target string) (*command.Descriptor, bool) {
	key := strings.ToLower(strings.TrimSpace(target))
	for _, d := range r.All() {
		if d.Name == key {
			return d, true
		}
		for _, a := range d.Aliases {
			if a == key {
				return d, true
			}
		}
	}
	return nil, false
}
