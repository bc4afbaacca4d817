package relay

import (
	"strings"
	"time"

	"HelloChat/logger"
	errs "HelloChat/tools/errs"

	"github.com/nats-io/nats.go"
)

const subjectPrefix = "chat.room."

// Publisher mirrors every outbound room envelope onto NATS so downstream
// consumers (push, search indexing, audit) see the same stream the sockets
// do. Publishing is best-effort: a broker outage must never stall a
// broadcast.
type Publisher struct {
	nc *nats.Conn
}

func New(servers, name string) (*Publisher, error) {
	if servers == "" {
		return nil, errs.New("no nats servers configured")
	}
	nc, err := nats.Connect(strings.TrimSpace(servers),
		nats.Name(name),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, errs.WrapMsg(err, "connect nats")
	}
	return &Publisher{nc: nc}, nil
}

func (p *Publisher) PublishRoomEvent(roomID string, payload []byte) {
	if p == nil || p.nc == nil {
		return
	}
	if err := p.nc.Publish(subjectPrefix+roomID, payload); err != nil {
		logger.Infof("[relay] publish room=%s: %v", roomID, err)
	}
}

func (p *Publisher) Close() {
	if p != nil && p.nc != nil {
		p.nc.Close()
	}
}
