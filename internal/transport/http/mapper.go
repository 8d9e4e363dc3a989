package http

import (
	"encoding/json"

	"github.com/avolkov/quickchat/internal/proto"
	"github.com/avolkov/quickchat/internal/relay"
)

func inboundToCommand(inbound proto.Inbound) (*relay.Command, *proto.Error, error) {
	switch inbound.Type {
	case proto.InboundTypeAddUser:
		var add proto.AddUserData
		if err := json.Unmarshal(inbound.Data, &add); err != nil {
			return nil, nil, err
		}
		if add.UserID == "" {
			return nil, &proto.Error{Code: relay.ErrCodeBadRequest, Msg: "userId is required"}, nil
		}
		return &relay.Command{
			Kind:   relay.CommandAnnounce,
			UserID: add.UserID,
			Token:  add.Token,
		}, nil, nil
	case proto.InboundTypeSendMsg:
		var send proto.SendMsgData
		if err := json.Unmarshal(inbound.Data, &send); err != nil {
			return nil, nil, err
		}
		if send.To == "" {
			return nil, &proto.Error{Code: relay.ErrCodeBadRequest, Msg: "to is required"}, nil
		}
		return &relay.Command{
			Kind: relay.CommandSend,
			To:   send.To,
			From: send.From,
			Text: send.Msg,
		}, nil, nil
	default:
		return nil, &proto.Error{Code: "invalid_message", Msg: "unknown message type"}, nil
	}
}

func outboundFromEvent(event *relay.Event) proto.Outbound {
	switch event.Kind {
	case relay.EventReceive:
		return proto.Outbound{
			Type: proto.OutboundTypeReceive,
			Msg:  event.Text,
		}
	case relay.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown event"}}
	}
}
