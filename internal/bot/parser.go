// Package bot is the runtime around the gateway client: it normalizes raw
// events from both invocation surfaces into invocations and dispatches them
// against the command registry.
package bot

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"botcore/internal/command"
	"botcore/internal/gateway"
)

// Parser turns raw gateway events into normalized invocations. Events that
// are not command invocations yield nil, which is a normal outcome.
type Parser struct {
	prefix    string
	responder command.Responder
	log       zerolog.Logger
}

// NewParser builds a parser for the configured text prefix.
func NewParser(prefix string, responder command.Responder, log zerolog.Logger) *Parser {
	return &Parser{
		prefix:    prefix,
		responder: responder,
		log:       log.With().Str("component", "parser").Logger(),
	}
}

// Parse normalizes one event. Text messages need the prefix stripped and
// tokenized; interactions already carry a command name and typed options and
// pass through verbatim. A structured event naming an unknown command still
// produces an invocation: absence is detected at resolution so both surfaces
// fail the same way.
func (p *Parser) Parse(ev gateway.Event) *command.Invocation {
	switch ev.Type {
	case gateway.EventMessageCreate:
		return p.parseMessage(ev.Data)
	case gateway.EventInteractionCreate:
		return p.parseInteraction(ev.Data)
	default:
		return nil
	}
}

func (p *Parser) parseMessage(data json.RawMessage) *command.Invocation {
	var msg gateway.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		p.log.Debug().Err(err).Msg("malformed message event")
		return nil
	}
	if msg.Author.Bot {
		return nil
	}
	if !strings.HasPrefix(msg.Content, p.prefix) {
		return nil
	}

	fields := strings.Fields(msg.Content[len(p.prefix):])
	if len(fields) == 0 {
		// bare prefix, nothing to look up
		return nil
	}

	inv := command.NewInvocation(
		uuid.NewString(),
		fields[0],
		command.SurfaceText,
		command.Origin{
			ChannelID: msg.ChannelID,
			UserID:    msg.Author.ID,
			Username:  msg.Author.Username,
		},
		p.responder,
	)
	inv.Args = fields[1:]
	return inv
}

func (p *Parser) parseInteraction(data json.RawMessage) *command.Invocation {
	var in gateway.Interaction
	if err := json.Unmarshal(data, &in); err != nil {
		p.log.Debug().Err(err).Msg("malformed interaction event")
		return nil
	}
	if in.Data.Name == "" {
		return nil
	}

	inv := command.NewInvocation(
		uuid.NewString(),
		in.Data.Name,
		command.SurfaceSlash,
		command.Origin{
			ChannelID:     in.ChannelID,
			UserID:        in.User.ID,
			Username:      in.User.Username,
			InteractionID: in.ID,
		},
		p.responder,
	)
	inv.Options = in.Data.Options
	return inv
}
