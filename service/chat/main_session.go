package chat

import (
	usermodel "HelloChat/module/user/model"
)

// MainSession is one user's global socket: targeted notifications and
// cross-room status updates arrive here. At most one exists per user; a
// duplicate connect replaces it (the registry closes the old socket).
type MainSession struct {
	UserID int64
	client *Client
}

func NewMainSession(userID int64, client *Client) *MainSession {
	return &MainSession{UserID: userID, client: client}
}

func (m *MainSession) Client() *Client { return m.client }

// Send writes one framed event envelope to the socket.
func (m *MainSession) Send(env *Envelope) error {
	payload, err := env.Marshal()
	if err != nil {
		return err
	}
	return m.client.Enqueue(payload)
}

// Forward enqueues an already-marshaled envelope.
func (m *MainSession) Forward(payload []byte) error {
	return m.client.Enqueue(payload)
}

// SendNotification wraps a notification into the standard event envelope.
func (m *MainSession) SendNotification(n usermodel.Notification, sender usermodel.UserSummary) error {
	return m.Send(&Envelope{
		EventType:  EventNotification,
		Data:       []usermodel.Notification{n},
		SenderUser: sender,
	})
}
