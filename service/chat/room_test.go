package chat

import (
	"bytes"
	"fmt"
	"testing"
)

func TestFanoutDeliversToAttachedAndMains(t *testing.T) {
	reg := NewRegistry()
	members := []int64{1, 2, 3, 4}

	// 1 and 2 sit in the room, 3 is only on a main socket, 4 is offline.
	a := newTestClient(1)
	b := newTestClient(2)
	sess, _, err := reg.AttachRoom("room-1", members, a)
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if _, _, err := reg.AttachRoom("room-1", members, b); err != nil {
		t.Fatalf("attach: %v", err)
	}
	mainC := newTestClient(3)
	reg.RegisterMain(NewMainSession(3, mainC))

	payload := []byte(`{"event_type":"new_message"}`)
	sess.Fanout(payload)

	for _, c := range []*Client{a, b, mainC} {
		if got := recv(t, c); !bytes.Equal(got, payload) {
			t.Fatalf("user=%d got %s", c.UserID, got)
		}
	}
}

func TestFanoutSkipsMainOfAttachedUser(t *testing.T) {
	reg := NewRegistry()

	// User 1 holds both a main socket and a room socket; the frame arrives
	// on the room socket only.
	roomC := newTestClient(1)
	mainC := newTestClient(1)
	reg.RegisterMain(NewMainSession(1, mainC))
	sess, _, err := reg.AttachRoom("room-1", []int64{1}, roomC)
	if err != nil {
		t.Fatalf("attach: %v", err)
	}

	sess.Fanout([]byte("x"))

	recv(t, roomC)
	assertNoFrame(t, mainC)
}

func TestFanoutIncludesSender(t *testing.T) {
	reg := NewRegistry()
	sender := newTestClient(1)
	sess, _, err := reg.AttachRoom("room-1", []int64{1}, sender)
	if err != nil {
		t.Fatalf("attach: %v", err)
	}

	sess.Fanout([]byte("echo"))
	if got := recv(t, sender); string(got) != "echo" {
		t.Fatalf("sender echo = %s", got)
	}
}

func TestFanoutPreservesOrderPerRecipient(t *testing.T) {
	reg := NewRegistry()
	a := newTestClient(1)
	sess, _, err := reg.AttachRoom("room-1", []int64{1}, a)
	if err != nil {
		t.Fatalf("attach: %v", err)
	}

	for i := 0; i < 5; i++ {
		sess.Fanout([]byte(fmt.Sprintf("m%d", i)))
	}
	for i := 0; i < 5; i++ {
		if got := recv(t, a); string(got) != fmt.Sprintf("m%d", i) {
			t.Fatalf("frame %d = %s", i, got)
		}
	}
}

func TestFanoutSurvivesFullQueue(t *testing.T) {
	reg := NewRegistry()
	slow := NewClient("slow", 1, nil, 1)
	fast := newTestClient(2)
	sess, _, err := reg.AttachRoom("room-1", []int64{1, 2}, slow)
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if _, _, err := reg.AttachRoom("room-1", []int64{1, 2}, fast); err != nil {
		t.Fatalf("attach: %v", err)
	}

	// The slow client's queue fills after one frame; later frames are
	// dropped for it but still reach everyone else.
	sess.Fanout([]byte("m0"))
	sess.Fanout([]byte("m1"))

	recv(t, fast)
	if got := recv(t, fast); string(got) != "m1" {
		t.Fatalf("fast client missed m1, got %s", got)
	}
	recv(t, slow)
	assertNoFrame(t, slow)
}

func TestConnectedUsersSubsetOfMembers(t *testing.T) {
	reg := NewRegistry()
	members := []int64{1, 2, 3}
	a := newTestClient(1)
	sess, _, err := reg.AttachRoom("room-1", members, a)
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	c := newTestClient(3)
	if _, _, err := reg.AttachRoom("room-1", members, c); err != nil {
		t.Fatalf("attach: %v", err)
	}

	for _, id := range sess.ConnectedUsers() {
		if !sess.IsMember(id) {
			t.Fatalf("connected user %d is not a member", id)
		}
	}
	if got := sess.Members(); len(got) != 3 {
		t.Fatalf("members = %v", got)
	}
}

func TestSnapshotRederivedAfterRelease(t *testing.T) {
	reg := NewRegistry()

	a := newTestClient(1)
	sess, _, err := reg.AttachRoom("room-1", []int64{1, 2}, a)
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if sess.IsMember(3) {
		t.Fatal("unexpected member 3")
	}
	reg.DetachRoom("room-1", a)

	// Membership changed in storage while nobody was attached; the next
	// session is created from the new snapshot.
	b := newTestClient(3)
	sess2, _, err := reg.AttachRoom("room-1", []int64{1, 2, 3}, b)
	if err != nil {
		t.Fatalf("attach after release: %v", err)
	}
	if sess2 == sess {
		t.Fatal("released session was reused")
	}
	if !sess2.IsMember(3) {
		t.Fatal("new session should carry the refreshed snapshot")
	}
}
