package relay

import (
	"context"

	"github.com/rs/zerolog"
)

// TokenValidator ties a relay announce to a real session. Implemented by
// the auth service.
type TokenValidator interface {
	// ValidateRelayToken returns the user ID a token was issued for.
	ValidateRelayToken(token string) (string, error)
}

type envelope struct {
	client *Client // nil for server-internal commands (REST forward/logout)
	cmd    *Command
}

// Hub routes messages between connected clients. A single goroutine owns
// the presence map and all routing state; clients talk to it over channels.
// Delivery is best-effort: no persistence, no acknowledgment, no retry.
//
// Register, unregister and relay commands share one ordered stream.
// A connection's register always precedes its unregister, so a
// short-lived connection can never leak its pump goroutine or leave a
// presence entry behind.
type Hub struct {
	validator TokenValidator
	log       *zerolog.Logger

	commands chan envelope

	presence *Presence
	clients  map[*Client]struct{}
}

// NewHub creates a hub. A nil validator accepts any announce; used in tests.
func NewHub(validator TokenValidator, logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		validator: validator,
		log:       logger,
		commands:  make(chan envelope, 64),
		presence:  NewPresence(),
		clients:   make(map[*Client]struct{}),
	}
}

// RegisterClient attaches a connection to the hub.
func (h *Hub) RegisterClient(c *Client) {
	h.commands <- envelope{client: c, cmd: &Command{Kind: commandRegister}}
}

// UnregisterClient detaches a connection. Its presence entries are removed
// so the hub never forwards to a closed connection.
func (h *Hub) UnregisterClient(c *Client) {
	h.commands <- envelope{client: c, cmd: &Command{Kind: commandUnregister}}
}

// Forward asks the hub to deliver text to a user's active connection, if
// any. Fire-and-forget: if the hub is saturated the request is dropped,
// consistent with best-effort delivery.
func (h *Hub) Forward(to, text string) {
	select {
	case h.commands <- envelope{cmd: &Command{Kind: CommandSend, To: to, Text: text}}:
	default:
		h.log.Debug().Str("to", to).Msg("relay forward dropped, hub saturated")
	}
}

// Disconnect clears the presence entry for a user (REST logout).
func (h *Hub) Disconnect(userID string) {
	select {
	case h.commands <- envelope{cmd: &Command{Kind: commandLogout, UserID: userID}}:
	default:
	}
}

// Run processes registrations and commands until the context is canceled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-h.commands:
			h.handle(ctx, env)
		}
	}
}

// pump forwards a client's commands into the hub's single command stream.
func (h *Hub) pump(ctx context.Context, c *Client) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case cmd := <-c.Commands:
			select {
			case h.commands <- envelope{client: c, cmd: cmd}:
			case <-ctx.Done():
				return
			case <-c.done:
				return
			}
		}
	}
}

func (h *Hub) handle(ctx context.Context, env envelope) {
	cmd := env.cmd
	switch cmd.Kind {
	case commandRegister:
		h.clients[env.client] = struct{}{}
		go h.pump(ctx, env.client)
	case commandUnregister:
		c := env.client
		if _, ok := h.clients[c]; !ok {
			return
		}
		delete(h.clients, c)
		removed := h.presence.RemoveClient(c)
		close(c.done)
		h.log.Debug().Str("conn_id", c.ID).Int("presence_removed", removed).Msg("client unregistered")
	case CommandAnnounce:
		h.handleAnnounce(env.client, cmd)
	case CommandSend:
		h.handleSend(cmd)
	case commandLogout:
		h.presence.Remove(cmd.UserID)
		h.log.Debug().Str("user_id", cmd.UserID).Msg("presence cleared on logout")
	}
}

func (h *Hub) handleAnnounce(c *Client, cmd *Command) {
	if c == nil {
		return
	}
	// The pump may still be forwarding a command that raced the
	// unregister; a detached connection must not claim presence.
	if _, ok := h.clients[c]; !ok {
		return
	}
	if cmd.UserID == "" {
		c.send(&Event{Kind: EventError, Error: &Error{Code: ErrCodeBadRequest, Message: "userId is required"}})
		return
	}
	if h.validator != nil {
		tokenUser, err := h.validator.ValidateRelayToken(cmd.Token)
		if err != nil || tokenUser != cmd.UserID {
			h.log.Warn().Str("claimed_user", cmd.UserID).Str("conn_id", c.ID).Msg("rejected relay announce")
			c.send(&Event{Kind: EventError, Error: &Error{Code: ErrCodeUnauthorized, Message: "invalid session token"}})
			return
		}
	}
	h.presence.Register(cmd.UserID, c)
	h.log.Debug().Str("user_id", cmd.UserID).Str("conn_id", c.ID).Msg("presence registered")
}

// handleSend looks up the recipient and forwards the bare text. If the
// recipient is not present, the message is silently dropped: the sender
// gets no failure signal and nothing is queued. Persistence happens
// out-of-band in the REST layer.
func (h *Hub) handleSend(cmd *Command) {
	target := h.presence.Lookup(cmd.To)
	if target == nil {
		h.log.Debug().Str("to", cmd.To).Msg("recipient not present, message dropped")
		return
	}
	target.send(&Event{Kind: EventReceive, Text: cmd.Text})
}
