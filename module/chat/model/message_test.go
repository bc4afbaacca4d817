package model

import (
	"testing"
	"time"
)

func TestStatusRankOrdering(t *testing.T) {
	if !(StatusRank(StatusSent) < StatusRank(StatusDelivered)) {
		t.Fatal("sent must rank below delivered")
	}
	if !(StatusRank(StatusDelivered) < StatusRank(StatusSeen)) {
		t.Fatal("delivered must rank below seen")
	}
	if StatusRank("bogus") >= StatusRank(StatusSent) {
		t.Fatal("unknown status must rank below everything")
	}
}

func TestValidTargetStatus(t *testing.T) {
	if ValidTargetStatus(StatusSent) {
		t.Fatal("sent is insert-only, never a target")
	}
	if !ValidTargetStatus(StatusDelivered) || !ValidTargetStatus(StatusSeen) {
		t.Fatal("delivered and seen are the only reader targets")
	}
	if ValidTargetStatus("archived") {
		t.Fatal("unknown target accepted")
	}
}

func TestValidMessageType(t *testing.T) {
	for _, mt := range []string{TypeText, TypeVideo, TypeImage, TypeDocument, TypeLinks} {
		if !ValidMessageType(mt) {
			t.Fatalf("%s rejected", mt)
		}
	}
	if ValidMessageType("audio") {
		t.Fatal("unknown type accepted")
	}
}

func TestDateFormatRoundTrip(t *testing.T) {
	now := FormattedNow()
	parsed, err := time.Parse(DateFormat, now)
	if err != nil {
		t.Fatalf("parse %q: %v", now, err)
	}
	if parsed.Year() < 2020 {
		t.Fatalf("parsed year %d", parsed.Year())
	}
}

func TestRoomMembership(t *testing.T) {
	r := &Room{Users: []RoomUser{{UserID: 1}, {UserID: 2}}}
	if !r.HasMember(1) || !r.HasMember(2) {
		t.Fatal("listed members missing")
	}
	if r.HasMember(3) {
		t.Fatal("non-member reported present")
	}
	ids := r.MemberIDs()
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
		t.Fatalf("member ids = %v", ids)
	}
}
