package relay

// CommandKind describes what a relay connection wants to do.
type CommandKind int

const (
	// CommandAnnounce registers the connection as a user's presence.
	CommandAnnounce CommandKind = iota
	// CommandSend requests forwarding a message to another user.
	CommandSend
	// commandLogout clears a user's presence entry (REST logout path).
	commandLogout
	// commandRegister attaches a connection to the hub.
	commandRegister
	// commandUnregister detaches a connection and clears its presence.
	commandUnregister
)

// Command represents an action requested over a relay connection.
type Command struct {
	Kind   CommandKind
	UserID string // announce: claimed user id; logout: user to clear
	Token  string // announce: session token backing the claim
	To     string // send: recipient user id
	From   string // send: sender user id (informational, not trusted)
	Text   string // send: bare message text
}

// EventKind is a notification the hub emits to clients.
type EventKind int

const (
	// EventReceive delivers a forwarded message's bare text.
	EventReceive EventKind = iota
	// EventError reports a rejected command.
	EventError
)

// Event is sent to clients to describe what happened.
type Event struct {
	Kind  EventKind
	Text  string
	Error *Error
}

// Error codes for relay errors.
const (
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeBadRequest   = "bad_request"
)

// Error wraps a code and human-readable message.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}
