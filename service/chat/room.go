package chat

import (
	"sync"

	"HelloChat/logger"
)

// RoomSession owns the live sockets of one room. members is the persisted
// membership snapshot loaded when the session was created and is frozen for
// the session's lifetime; presence (conns) is ephemeral. A session exists
// only while at least one socket is attached; the registry releases it on
// last detach.
type RoomSession struct {
	RoomID string

	reg *Registry

	mu      sync.RWMutex
	members []int64
	conns   map[int64]*Client
}

func newRoomSession(roomID string, members []int64, reg *Registry) *RoomSession {
	ms := make([]int64, len(members))
	copy(ms, members)
	return &RoomSession{
		RoomID:  roomID,
		reg:     reg,
		members: ms,
		conns:   make(map[int64]*Client),
	}
}

// IsMember checks the frozen membership snapshot.
func (s *RoomSession) IsMember(userID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.members {
		if id == userID {
			return true
		}
	}
	return false
}

// Members returns a copy of the membership snapshot.
func (s *RoomSession) Members() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]int64, len(s.members))
	copy(out, s.members)
	return out
}

// ConnectedUsers snapshots the ids currently attached to this room.
func (s *RoomSession) ConnectedUsers() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]int64, 0, len(s.conns))
	for id := range s.conns {
		out = append(out, id)
	}
	return out
}

func (s *RoomSession) attach(c *Client) (*Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	member := false
	for _, id := range s.members {
		if id == c.UserID {
			member = true
			break
		}
	}
	if !member {
		return nil, errNotInSnapshot
	}
	replaced := s.conns[c.UserID]
	s.conns[c.UserID] = c
	return replaced, nil
}

// detach reports whether the connected set became empty.
func (s *RoomSession) detach(c *Client) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.conns[c.UserID]; ok && cur == c {
		delete(s.conns, c.UserID)
	}
	return len(s.conns) == 0
}

func (s *RoomSession) clients() []*Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Client, 0, len(s.conns))
	for _, c := range s.conns {
		out = append(out, c)
	}
	return out
}

// Fanout delivers one marshaled envelope to every socket attached to the
// room (the sender included) and, for members who are online but not
// attached here, to their main socket. The loop is sequential, so two
// fanouts by the same task reach each recipient in call order; fanouts from
// different tasks carry no cross-order guarantee.
func (s *RoomSession) Fanout(payload []byte) {
	s.mu.RLock()
	members := make([]int64, len(s.members))
	copy(members, s.members)
	attached := make(map[int64]*Client, len(s.conns))
	for id, c := range s.conns {
		attached[id] = c
	}
	s.mu.RUnlock()

	for id, c := range attached {
		if err := c.Enqueue(payload); err != nil {
			logger.Infof("[room %s] drop frame for user=%d: %v", s.RoomID, id, err)
		}
	}
	for _, id := range members {
		if _, ok := attached[id]; ok {
			continue
		}
		if main, ok := s.reg.LookupMain(id); ok {
			if err := main.Forward(payload); err != nil {
				logger.Infof("[room %s] drop main-socket frame for user=%d: %v", s.RoomID, id, err)
			}
		}
	}
}
