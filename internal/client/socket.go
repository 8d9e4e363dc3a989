package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/avolkov/quickchat/internal/proto"
)

// Socket is the client side of the relay connection. Incoming carries
// the bare text of each delivered message; the consumer wraps it into a
// view item itself.
type Socket struct {
	conn     *websocket.Conn
	Incoming chan string
	Errors   chan proto.Error
}

// DialSocket connects to the relay endpoint, e.g. "ws://localhost:8080/ws".
func DialSocket(ctx context.Context, addr string) (*Socket, error) {
	conn, _, err := websocket.Dial(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial relay: %w", err)
	}
	return &Socket{
		conn:     conn,
		Incoming: make(chan string, 16),
		Errors:   make(chan proto.Error, 4),
	}, nil
}

// Announce claims a user identity for this connection, backed by the
// session token.
func (s *Socket) Announce(ctx context.Context, userID, token string) error {
	data, err := json.Marshal(proto.AddUserData{UserID: userID, Token: token})
	if err != nil {
		return fmt.Errorf("marshal announce: %w", err)
	}
	return wsjson.Write(ctx, s.conn, proto.Inbound{Type: proto.InboundTypeAddUser, Data: data})
}

// Send emits a relay forward request. Kept for wire compatibility; the
// REST send endpoint already relays server-side, so a client using the
// API should not also call this for the same message.
func (s *Socket) Send(ctx context.Context, to, from, msg string) error {
	data, err := json.Marshal(proto.SendMsgData{To: to, From: from, Msg: msg})
	if err != nil {
		return fmt.Errorf("marshal send: %w", err)
	}
	return wsjson.Write(ctx, s.conn, proto.Inbound{Type: proto.InboundTypeSendMsg, Data: data})
}

// Listen reads relay events until the context is canceled or the
// connection closes, pushing delivered texts onto Incoming.
func (s *Socket) Listen(ctx context.Context) error {
	defer close(s.Incoming)
	for {
		var outbound proto.Outbound
		if err := wsjson.Read(ctx, s.conn, &outbound); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return nil
			}
			return err
		}

		switch outbound.Type {
		case proto.OutboundTypeReceive:
			select {
			case s.Incoming <- outbound.Msg:
			case <-ctx.Done():
				return nil
			}
		case proto.OutboundTypeError:
			if outbound.Error != nil {
				select {
				case s.Errors <- *outbound.Error:
				default:
				}
			}
		}
	}
}

// Close shuts the connection down.
func (s *Socket) Close() error {
	return s.conn.Close(websocket.StatusNormalClosure, "bye")
}
