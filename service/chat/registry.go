package chat

import (
	"sync"

	errs "HelloChat/tools/errs"
)

// Registry is the process-wide connection state: one main session per
// online user, one room session per room with live sockets. It is the only
// cross-task shared mutable state in the core; every mutation of either map
// is a single step under mu, so check-empty-then-delete can never race with
// a concurrent attach on the same key. Nothing here is persisted; on
// restart the maps rebuild from live sockets.
type Registry struct {
	mu    sync.RWMutex
	mains map[int64]*MainSession
	rooms map[string]*RoomSession
}

func NewRegistry() *Registry {
	return &Registry{
		mains: make(map[int64]*MainSession),
		rooms: make(map[string]*RoomSession),
	}
}

// RegisterMain installs the user's main session, returning the session it
// replaced, if any. Last connect wins; the caller closes the prior socket.
func (r *Registry) RegisterMain(s *MainSession) *MainSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.mains[s.UserID]
	r.mains[s.UserID] = s
	return prev
}

// UnregisterMain removes the user's main entry, but only when it still
// belongs to s: a replacement registered by a newer connection stays.
func (r *Registry) UnregisterMain(userID int64, s *MainSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.mains[userID]; ok && cur == s {
		delete(r.mains, userID)
	}
}

func (r *Registry) LookupMain(userID int64) (*MainSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.mains[userID]
	return s, ok
}

// OnlineUsers snapshots the ids with an open main socket.
func (r *Registry) OnlineUsers() []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]int64, 0, len(r.mains))
	for id := range r.mains {
		out = append(out, id)
	}
	return out
}

// AttachRoom attaches c to the room's session, creating the session with
// the given membership snapshot when none exists. The snapshot is frozen
// for the session's lifetime; a later attach never refreshes it. Returns
// the session and the room socket c replaced for the same user, if any.
// Attaching a user outside the snapshot fails, which keeps the
// connected ⊆ members invariant at the only place it could break.
func (r *Registry) AttachRoom(roomID string, members []int64, c *Client) (*RoomSession, *Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.rooms[roomID]
	if !ok {
		sess = newRoomSession(roomID, members, r)
		r.rooms[roomID] = sess
	}
	replaced, err := sess.attach(c)
	if err != nil {
		if !ok {
			delete(r.rooms, roomID)
		}
		return nil, nil, err
	}
	return sess, replaced, nil
}

// DetachRoom removes c from the room session and releases the session when
// its connected set becomes empty. Removal and the empty check are one
// atomic step with respect to concurrent attaches.
func (r *Registry) DetachRoom(roomID string, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.rooms[roomID]
	if !ok {
		return
	}
	if sess.detach(c) {
		delete(r.rooms, roomID)
	}
}

// RoomSession returns the live session for roomID, if one exists.
func (r *Registry) RoomSession(roomID string) (*RoomSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.rooms[roomID]
	return sess, ok
}

// ForceCloseRoom releases the room session immediately regardless of how
// many sockets are attached and closes every one of them. Used when a room
// is deactivated externally (unfriend/block).
func (r *Registry) ForceCloseRoom(roomID string, code int, reason string) {
	r.mu.Lock()
	sess, ok := r.rooms[roomID]
	if ok {
		delete(r.rooms, roomID)
	}
	r.mu.Unlock()
	if !ok {
		return
	}
	for _, c := range sess.clients() {
		c.CloseWith(code, reason)
	}
}

var errNotInSnapshot = errs.ErrNotRoomMember.WithDetail("not in session membership snapshot")
