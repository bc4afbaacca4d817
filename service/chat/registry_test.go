package chat

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func newTestClient(userID int64) *Client {
	return NewClient(fmt.Sprintf("conn-%d-%d", userID, time.Now().UnixNano()), userID, nil, 16)
}

// recv pulls one enqueued frame without running a write pump.
func recv(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case b := <-c.send:
		return b
	default:
		t.Fatalf("no frame queued for user=%d", c.UserID)
		return nil
	}
}

func assertNoFrame(t *testing.T, c *Client) {
	t.Helper()
	select {
	case b := <-c.send:
		t.Fatalf("unexpected frame for user=%d: %s", c.UserID, b)
	default:
	}
}

func isClosed(c *Client) bool {
	select {
	case <-c.Done():
		return true
	default:
		return false
	}
}

func TestRegisterMainLastConnectWins(t *testing.T) {
	reg := NewRegistry()

	first := NewMainSession(1, newTestClient(1))
	if prev := reg.RegisterMain(first); prev != nil {
		t.Fatalf("fresh register returned prev=%v", prev)
	}

	second := NewMainSession(1, newTestClient(1))
	prev := reg.RegisterMain(second)
	if prev != first {
		t.Fatal("register did not hand back the replaced session")
	}

	got, ok := reg.LookupMain(1)
	if !ok || got != second {
		t.Fatal("lookup should resolve to the newest session")
	}
}

func TestUnregisterMainOnlyRemovesOwnEntry(t *testing.T) {
	reg := NewRegistry()

	stale := NewMainSession(1, newTestClient(1))
	reg.RegisterMain(stale)
	fresh := NewMainSession(1, newTestClient(1))
	reg.RegisterMain(fresh)

	// The stale connection's deferred cleanup runs after replacement; the
	// fresh entry must survive it.
	reg.UnregisterMain(1, stale)
	if got, ok := reg.LookupMain(1); !ok || got != fresh {
		t.Fatal("stale unregister evicted the fresh session")
	}

	reg.UnregisterMain(1, fresh)
	if _, ok := reg.LookupMain(1); ok {
		t.Fatal("fresh unregister should remove the entry")
	}
}

func TestOnlineUsers(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterMain(NewMainSession(1, newTestClient(1)))
	reg.RegisterMain(NewMainSession(2, newTestClient(2)))

	online := reg.OnlineUsers()
	if len(online) != 2 {
		t.Fatalf("online = %v", online)
	}
	seen := map[int64]bool{}
	for _, id := range online {
		seen[id] = true
	}
	if !seen[1] || !seen[2] {
		t.Fatalf("online = %v", online)
	}
}

func TestAttachRoomRejectsNonMember(t *testing.T) {
	reg := NewRegistry()

	outsider := newTestClient(99)
	if _, _, err := reg.AttachRoom("room-1", []int64{1, 2}, outsider); err == nil {
		t.Fatal("attach accepted a user outside the snapshot")
	}
	// The failed attach must not leave an empty session behind.
	if _, ok := reg.RoomSession("room-1"); ok {
		t.Fatal("failed attach leaked a room session")
	}
}

func TestAttachRoomFreezesSnapshot(t *testing.T) {
	reg := NewRegistry()

	a := newTestClient(1)
	sess, _, err := reg.AttachRoom("room-1", []int64{1, 2}, a)
	if err != nil {
		t.Fatalf("attach: %v", err)
	}

	// A later attach passes a wider membership list; the session keeps the
	// snapshot it was created with.
	b := newTestClient(2)
	sess2, _, err := reg.AttachRoom("room-1", []int64{1, 2, 3}, b)
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if sess2 != sess {
		t.Fatal("second attach created a new session")
	}
	if sess.IsMember(3) {
		t.Fatal("snapshot must stay frozen for the session lifetime")
	}
}

func TestAttachRoomReplacesDuplicateSocket(t *testing.T) {
	reg := NewRegistry()

	old := newTestClient(1)
	if _, replaced, err := reg.AttachRoom("room-1", []int64{1}, old); err != nil || replaced != nil {
		t.Fatalf("first attach: replaced=%v err=%v", replaced, err)
	}

	fresh := newTestClient(1)
	_, replaced, err := reg.AttachRoom("room-1", []int64{1}, fresh)
	if err != nil {
		t.Fatalf("second attach: %v", err)
	}
	if replaced != old {
		t.Fatal("attach did not hand back the replaced socket")
	}
}

func TestDetachRoomReleasesEmptySession(t *testing.T) {
	reg := NewRegistry()

	a := newTestClient(1)
	b := newTestClient(2)
	if _, _, err := reg.AttachRoom("room-1", []int64{1, 2}, a); err != nil {
		t.Fatalf("attach a: %v", err)
	}
	if _, _, err := reg.AttachRoom("room-1", []int64{1, 2}, b); err != nil {
		t.Fatalf("attach b: %v", err)
	}

	reg.DetachRoom("room-1", a)
	if _, ok := reg.RoomSession("room-1"); !ok {
		t.Fatal("session released while a socket is still attached")
	}

	reg.DetachRoom("room-1", b)
	if _, ok := reg.RoomSession("room-1"); ok {
		t.Fatal("last detach should release the session")
	}
}

func TestDetachRoomIgnoresReplacedSocket(t *testing.T) {
	reg := NewRegistry()

	old := newTestClient(1)
	reg.AttachRoom("room-1", []int64{1}, old)
	fresh := newTestClient(1)
	reg.AttachRoom("room-1", []int64{1}, fresh)

	// Cleanup of the replaced socket must not detach the fresh one.
	reg.DetachRoom("room-1", old)
	sess, ok := reg.RoomSession("room-1")
	if !ok {
		t.Fatal("fresh socket lost its session")
	}
	if got := sess.ConnectedUsers(); len(got) != 1 || got[0] != 1 {
		t.Fatalf("connected = %v", got)
	}
}

func TestForceCloseRoom(t *testing.T) {
	reg := NewRegistry()

	a := newTestClient(1)
	b := newTestClient(2)
	reg.AttachRoom("room-1", []int64{1, 2}, a)
	reg.AttachRoom("room-1", []int64{1, 2}, b)

	reg.ForceCloseRoom("room-1", websocket.ClosePolicyViolation, "room deactivated")

	if _, ok := reg.RoomSession("room-1"); ok {
		t.Fatal("session entry should be gone")
	}
	if !isClosed(a) || !isClosed(b) {
		t.Fatal("attached sockets should be told to close")
	}

	// Closing a room nobody is in is a no-op.
	reg.ForceCloseRoom("room-2", websocket.ClosePolicyViolation, "room deactivated")
}

func TestRegistryConcurrentRoomChurn(t *testing.T) {
	reg := NewRegistry()
	members := []int64{1, 2, 3, 4}

	var wg sync.WaitGroup
	for _, id := range members {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				c := newTestClient(userID)
				if _, _, err := reg.AttachRoom("room-1", members, c); err != nil {
					t.Errorf("attach user=%d: %v", userID, err)
					return
				}
				reg.DetachRoom("room-1", c)
			}
		}(id)
	}
	wg.Wait()

	if _, ok := reg.RoomSession("room-1"); ok {
		t.Fatal("session should be released once everyone detached")
	}
}
