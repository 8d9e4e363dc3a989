package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Wire event names kept compatible with the original browser client,
// misspelling included.
const (
	InboundTypeAddUser = "add-user"
	InboundTypeSendMsg = "send-msg"

	OutboundTypeReceive = "msg-recieve"
	OutboundTypeError   = "error"
)

// AddUserData announces which user this connection represents. The token
// must be a session token issued for that same user.
type AddUserData struct {
	UserID string `json:"userId"`
	Token  string `json:"token,omitempty"`
}

// SendMsgData asks the relay to forward msg to another user.
type SendMsgData struct {
	To   string `json:"to"`
	From string `json:"from"`
	Msg  string `json:"msg"`
}

// Outbound is the envelope for messages sent to the client. A delivered
// message carries only the bare text; the recipient computes everything
// else locally.
type Outbound struct {
	Type  string `json:"type"`
	Msg   string `json:"msg,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
