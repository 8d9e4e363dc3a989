package relay

// Client is a relay connection as seen by the hub.
type Client struct {
	// ID is the connection identifier, not the user identifier. The user
	// a client represents is known only to the presence map, after a
	// successful announce.
	ID       string
	Commands chan *Command
	Events   chan *Event

	done chan struct{}
}

// NewClient constructs a client with initialized channels.
func NewClient(id string) *Client {
	return &Client{
		ID:       id,
		Commands: make(chan *Command, 8),
		Events:   make(chan *Event, 8),
		done:     make(chan struct{}),
	}
}

// send delivers an event without blocking the hub. Slow consumers drop.
func (c *Client) send(ev *Event) {
	select {
	case c.Events <- ev:
	default:
	}
}
