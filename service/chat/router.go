package chat

import (
	"context"

	"HelloChat/logger"
	chatmodel "HelloChat/module/chat/model"
)

// MessageGateway is the persistence contract the router dispatches into.
type MessageGateway interface {
	Create(ctx context.Context, roomID string, senderID int64, text string) (*chatmodel.Message, error)
	UpdateStatusBulk(ctx context.Context, ids []string, status string, requesterID int64) ([]chatmodel.Message, error)
	Recent(ctx context.Context, roomID string, limit, offset int64) ([]chatmodel.Message, error)
}

// EventRelay mirrors outbound room envelopes to out-of-process consumers.
type EventRelay interface {
	PublishRoomEvent(roomID string, payload []byte)
}

// Router decodes inbound socket frames and dispatches them: persist, then
// fan out. Every failure on this path is local: the frame is dropped, the
// connection and its read loop stay alive.
type Router struct {
	reg      *Registry
	messages MessageGateway
	relay    EventRelay // may be nil
}

func NewRouter(reg *Registry, messages MessageGateway, relay EventRelay) *Router {
	return &Router{reg: reg, messages: messages, relay: relay}
}

// HandleRoomFrame processes one frame read from a room socket.
func (rt *Router) HandleRoomFrame(ctx context.Context, sess *RoomSession, from *Client, raw []byte) {
	frame, err := DecodeInbound(raw)
	if err != nil {
		logger.Infof("[router] drop frame room=%s user=%d: %v", sess.RoomID, from.UserID, err)
		return
	}
	if frame.SenderUser.ID != from.UserID {
		logger.Warnf("[router] sender_user %d does not match socket user %d, frame dropped",
			frame.SenderUser.ID, from.UserID)
		return
	}

	switch frame.EventType {
	case EventNewMessage:
		if !sess.IsMember(from.UserID) {
			logger.Warnf("[router] user=%d not in room=%s, frame dropped", from.UserID, sess.RoomID)
			return
		}
		msg, err := rt.messages.Create(ctx, sess.RoomID, from.UserID, frame.NewMessage.MessageText)
		if err != nil {
			logger.Errorf("[router] persist message room=%s user=%d: %v", sess.RoomID, from.UserID, err)
			return
		}
		env := &Envelope{
			EventType:  EventNewMessage,
			Data:       []chatmodel.Message{*msg},
			SenderUser: frame.SenderUser,
		}
		payload, err := env.Marshal()
		if err != nil {
			logger.Errorf("[router] marshal envelope room=%s: %v", sess.RoomID, err)
			return
		}
		sess.Fanout(payload)
		rt.publish(sess.RoomID, payload)

	case EventChangeStatus:
		rt.applyStatusChange(ctx, from.UserID, frame)
	}
}

// HandleMainFrame processes one frame read from a main socket. Only status
// updates are accepted here; new_message belongs to a room socket and is
// dropped.
func (rt *Router) HandleMainFrame(ctx context.Context, from *MainSession, raw []byte) {
	frame, err := DecodeInbound(raw)
	if err != nil {
		logger.Infof("[router] drop main frame user=%d: %v", from.UserID, err)
		return
	}
	if frame.SenderUser.ID != from.UserID {
		logger.Warnf("[router] sender_user %d does not match socket user %d, frame dropped",
			frame.SenderUser.ID, from.UserID)
		return
	}
	if frame.EventType != EventChangeStatus {
		logger.Infof("[router] %s not accepted on main socket, user=%d", frame.EventType, from.UserID)
		return
	}
	rt.applyStatusChange(ctx, from.UserID, frame)
}

// applyStatusChange bulk-updates the listed messages (the store skips the
// requester's own and never regresses a status), then broadcasts the
// updated subset grouped per room: the id list may span rooms the user is
// not currently viewing. Rooms with no live session fall back to the
// senders' main sockets so they still learn their messages were read.
func (rt *Router) applyStatusChange(ctx context.Context, requesterID int64, frame *InboundFrame) {
	msgs, err := rt.messages.UpdateStatusBulk(ctx, frame.StatusChange.MessageIDList, frame.StatusChange.Status, requesterID)
	if err != nil {
		logger.Errorf("[router] bulk status update user=%d: %v", requesterID, err)
		return
	}
	if len(msgs) == 0 {
		return
	}

	byRoom := make(map[string][]chatmodel.Message)
	order := make([]string, 0, 1)
	for _, m := range msgs {
		if _, ok := byRoom[m.RoomID]; !ok {
			order = append(order, m.RoomID)
		}
		byRoom[m.RoomID] = append(byRoom[m.RoomID], m)
	}

	for _, roomID := range order {
		batch := byRoom[roomID]
		env := &Envelope{
			EventType:  EventChangeStatus,
			Data:       batch,
			SenderUser: frame.SenderUser,
		}
		payload, err := env.Marshal()
		if err != nil {
			logger.Errorf("[router] marshal envelope room=%s: %v", roomID, err)
			continue
		}
		if sess, ok := rt.reg.RoomSession(roomID); ok {
			sess.Fanout(payload)
		} else {
			rt.notifySenders(batch, payload)
		}
		rt.publish(roomID, payload)
	}
}

// notifySenders forwards a status batch to the main sockets of the authors
// of the affected messages.
func (rt *Router) notifySenders(batch []chatmodel.Message, payload []byte) {
	seen := make(map[int64]struct{}, len(batch))
	for _, m := range batch {
		if _, ok := seen[m.SenderID]; ok {
			continue
		}
		seen[m.SenderID] = struct{}{}
		if main, ok := rt.reg.LookupMain(m.SenderID); ok {
			if err := main.Forward(payload); err != nil {
				logger.Infof("[router] drop main-socket frame for user=%d: %v", m.SenderID, err)
			}
		}
	}
}

func (rt *Router) publish(roomID string, payload []byte) {
	if rt.relay != nil {
		rt.relay.PublishRoomEvent(roomID, payload)
	}
}
