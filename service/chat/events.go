package chat

import (
	"encoding/json"

	usermodel "HelloChat/module/user/model"
	errs "HelloChat/tools/errs"

	"github.com/mitchellh/mapstructure"
)

type EventType string

const (
	EventNewMessage   EventType = "new_message"
	EventChangeStatus EventType = "change_message_status"
	EventNotification EventType = "notification"
)

// Envelope is the outbound frame shape shared by every event type. Data is
// a list of messages or notifications depending on EventType.
type Envelope struct {
	EventType  EventType             `json:"event_type"`
	Data       any                   `json:"data"`
	SenderUser usermodel.UserSummary `json:"sender_user"`
}

func (e *Envelope) Marshal() ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, errs.WrapMsg(err, "marshal envelope")
	}
	return b, nil
}

type NewMessagePayload struct {
	MessageText string `json:"message_text"`
}

type StatusChangePayload struct {
	MessageIDList []string `json:"message_id_list"`
	Status        string   `json:"status"`
}

// InboundFrame is the decoded tagged union of client events: exactly one of
// NewMessage / StatusChange is set, matching EventType.
type InboundFrame struct {
	EventType    EventType
	RoomID       string
	SenderUser   usermodel.UserSummary
	NewMessage   *NewMessagePayload
	StatusChange *StatusChangePayload
}

type wireFrame struct {
	EventType  string                `json:"event_type"`
	RoomID     string                `json:"room_id"`
	Data       map[string]any        `json:"data"`
	SenderUser usermodel.UserSummary `json:"sender_user"`
}

// DecodeInbound parses one raw socket frame. The data shape is checked
// against event_type here, so a mismatched payload is rejected at decode
// time instead of surfacing later in a handler. All failures are
// ErrMalformedFrame; the caller drops the frame and keeps the connection.
func DecodeInbound(raw []byte) (*InboundFrame, error) {
	var wf wireFrame
	if err := json.Unmarshal(raw, &wf); err != nil {
		return nil, errs.ErrMalformedFrame.WithDetail(err.Error())
	}
	if wf.Data == nil {
		return nil, errs.ErrMalformedFrame.WithDetail("missing data")
	}
	frame := &InboundFrame{
		EventType:  EventType(wf.EventType),
		RoomID:     wf.RoomID,
		SenderUser: wf.SenderUser,
	}
	switch frame.EventType {
	case EventNewMessage:
		if _, ok := wf.Data["message_text"]; !ok {
			return nil, errs.ErrMalformedFrame.WithDetail("new_message requires message_text")
		}
		var p NewMessagePayload
		if err := decodePayload(wf.Data, &p); err != nil {
			return nil, err
		}
		frame.NewMessage = &p
	case EventChangeStatus:
		if _, ok := wf.Data["message_id_list"]; !ok {
			return nil, errs.ErrMalformedFrame.WithDetail("change_message_status requires message_id_list")
		}
		var p StatusChangePayload
		if err := decodePayload(wf.Data, &p); err != nil {
			return nil, err
		}
		if len(p.MessageIDList) == 0 {
			return nil, errs.ErrMalformedFrame.WithDetail("empty message_id_list")
		}
		if p.Status != "delivered" && p.Status != "seen" {
			return nil, errs.ErrMalformedFrame.WithDetail("status must be delivered or seen")
		}
		frame.StatusChange = &p
	default:
		return nil, errs.ErrMalformedFrame.WithDetail("unknown event_type " + wf.EventType)
	}
	return frame, nil
}

// decodePayload maps the dynamic data object onto a typed payload. Strict
// types: a string where a list belongs (or vice versa) is a decode error.
func decodePayload(data map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  out,
	})
	if err != nil {
		return errs.WrapMsg(err, "new payload decoder")
	}
	if err := dec.Decode(data); err != nil {
		return errs.ErrMalformedFrame.WithDetail(err.Error())
	}
	return nil
}
