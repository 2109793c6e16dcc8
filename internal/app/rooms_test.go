package app

import (
	"testing"

	"github.com/youneskazemi/chatcord/internal/core"
	"github.com/youneskazemi/chatcord/internal/domain"
	"github.com/youneskazemi/chatcord/internal/protocol"
)

func TestJoinRosterKeepsInsertionOrder(t *testing.T) {
	h := newHarness()
	room := domain.TextRoomID("general")

	a, _ := h.connect("u1", "alice")
	b, _ := h.connect("u2", "bob")
	c, _ := h.connect("u3", "carol")

	h.rooms.Join(room, a)
	h.rooms.Join(room, b)
	roster := h.rooms.Join(room, c)

	want := []domain.UserID{"u1", "u2", "u3"}
	if len(roster) != len(want) {
		t.Fatalf("roster size = %d, want %d", len(roster), len(want))
	}
	for i, id := range want {
		if roster[i].ID != id {
			t.Errorf("roster[%d] = %s, want %s", i, roster[i].ID, id)
		}
	}
}

func TestRejoinKeepsPositionAndStaysSilent(t *testing.T) {
	h := newHarness()
	room := domain.TextRoomID("general")

	a, _ := h.connect("u1", "alice")
	b, connB := h.connect("u2", "bob")
	h.rooms.Join(room, a)
	h.rooms.Join(room, b)
	joinedBefore := connB.countType(protocol.TypeUserJoined)

	roster := h.rooms.Join(room, a)

	if roster[0].ID != "u1" || roster[1].ID != "u2" {
		t.Errorf("rejoin reordered roster: %v", roster)
	}
	if got := connB.countType(protocol.TypeUserJoined); got != joinedBefore {
		t.Errorf("rejoin announced userJoined again (%d -> %d)", joinedBefore, got)
	}
}

func TestJoinAnnouncesToOthersOnly(t *testing.T) {
	h := newHarness()
	room := domain.TextRoomID("general")

	a, connA := h.connect("u1", "alice")
	b, connB := h.connect("u2", "bob")
	h.rooms.Join(room, a)
	h.rooms.Join(room, b)

	var change protocol.MembershipChange
	connA.lastOfType(t, protocol.TypeUserJoined, &change)
	if change.UserID != "u2" || change.Username != "bob" || change.ChannelName != "general" {
		t.Errorf("unexpected join announcement: %+v", change)
	}
	if connB.countType(protocol.TypeUserJoined) != 0 {
		t.Error("joiner received its own join announcement")
	}
}

func TestLeaveIsIdempotent(t *testing.T) {
	h := newHarness()
	room := domain.TextRoomID("general")

	a, _ := h.connect("u1", "alice")
	b, connB := h.connect("u2", "bob")
	h.rooms.Join(room, a)
	h.rooms.Join(room, b)

	h.rooms.Leave(room, a)
	h.rooms.Leave(room, a)
	h.rooms.Leave(domain.TextRoomID("never-joined"), a)

	if got := connB.countType(protocol.TypeUserLeft); got != 1 {
		t.Fatalf("userLeft announced %d times, want 1", got)
	}
	roster := h.rooms.Roster(room)
	if len(roster) != 1 || roster[0].ID != "u2" {
		t.Errorf("roster after leave = %v", roster)
	}
}

func TestSwitchMovesBetweenRooms(t *testing.T) {
	h := newHarness()
	roomA := domain.TextRoomID("general")
	roomB := domain.TextRoomID("random")

	peerA, connPA := h.connect("u1", "alice")
	peerB, connPB := h.connect("u2", "bob")
	mover, _ := h.connect("u3", "carol")
	h.rooms.Join(roomA, peerA)
	h.rooms.Join(roomB, peerB)
	h.rooms.Join(roomA, mover)

	roster := h.rooms.Switch(roomA, roomB, mover)

	var left protocol.MembershipChange
	connPA.lastOfType(t, protocol.TypeUserLeft, &left)
	if left.UserID != "u3" || left.ChannelName != "general" {
		t.Errorf("unexpected leave announcement: %+v", left)
	}
	var joined protocol.MembershipChange
	connPB.lastOfType(t, protocol.TypeUserJoined, &joined)
	if joined.UserID != "u3" || joined.ChannelName != "random" {
		t.Errorf("unexpected join announcement: %+v", joined)
	}
	if len(roster) != 2 || roster[1].ID != "u3" {
		t.Errorf("switch roster = %v, want mover appended to random", roster)
	}
	for _, m := range h.rooms.Roster(roomA) {
		if m.ID == "u3" {
			t.Error("mover still present in old room")
		}
	}
}

func TestSwitchToSameRoomIsNoop(t *testing.T) {
	h := newHarness()
	room := domain.TextRoomID("general")

	a, _ := h.connect("u1", "alice")
	b, connB := h.connect("u2", "bob")
	h.rooms.Join(room, a)
	h.rooms.Join(room, b)
	before := connB.countType(protocol.TypeUserJoined) + connB.countType(protocol.TypeUserLeft)

	roster := h.rooms.Switch(room, room, a)

	after := connB.countType(protocol.TypeUserJoined) + connB.countType(protocol.TypeUserLeft)
	if after != before {
		t.Error("same-room switch produced membership events")
	}
	if len(roster) != 2 {
		t.Errorf("roster size = %d, want 2", len(roster))
	}
}

func TestDisconnectLeavesTextAndVoiceRooms(t *testing.T) {
	h := newHarness()
	text := domain.TextRoomID("general")
	voice := domain.VoiceRoomID("general")

	a, _ := h.connect("u1", "alice")
	b, connB := h.connect("u2", "bob")
	for _, room := range []domain.RoomID{text, voice} {
		h.rooms.Join(room, a)
		h.rooms.Join(room, b)
	}
	a.SetTextChannel(text)
	a.SetVoiceRoom(voice)

	h.registry.Unregister(a.ID())

	var left protocol.MembershipChange
	connB.lastOfType(t, protocol.TypeUserLeft, &left)
	if left.UserID != "u1" {
		t.Errorf("text leave announcement for %s, want u1", left.UserID)
	}
	var voiceLeft protocol.VoiceMembershipChange
	connB.lastOfType(t, protocol.TypeUserLeftVoice, &voiceLeft)
	if voiceLeft.UserID != "u1" || voiceLeft.ChannelName != "general" {
		t.Errorf("unexpected voice leave announcement: %+v", voiceLeft)
	}
	for _, room := range []domain.RoomID{text, voice} {
		for _, m := range h.rooms.Roster(room) {
			if m.ID == "u1" {
				t.Errorf("u1 still in %s after disconnect", room)
			}
		}
	}
}

// A session can be displaced after it entered a room but before it recorded
// that room on itself. Cleanup must still evict it from the roster.
func TestDisplacementBeforeLocationRecordedStillLeavesRoom(t *testing.T) {
	h := newHarness()
	voice := domain.VoiceRoomID("music")

	old, _ := h.connect("u1", "alice")
	h.rooms.Join(voice, old)

	// second login lands before the first session stored its voice room
	h.registry.Register(core.SessionID("sid-u1-b"), &domain.User{ID: "u1", Username: "alice"}, &fakeConn{})
	old.SetVoiceRoom(voice)

	if _, ok := h.registry.Lookup(old.ID()); ok {
		t.Fatal("displaced session still registered")
	}
	if roster := h.rooms.Roster(voice); len(roster) != 0 {
		t.Errorf("displaced session still in voice roster: %v", roster)
	}
}

func TestVoiceAnnouncementsUseVoiceEvents(t *testing.T) {
	h := newHarness()
	voice := domain.VoiceRoomID("music")

	a, connA := h.connect("u1", "alice")
	b, _ := h.connect("u2", "bob")
	h.rooms.Join(voice, a)
	h.rooms.Join(voice, b)

	var joined protocol.VoiceMembershipChange
	connA.lastOfType(t, protocol.TypeUserJoinedVoice, &joined)
	if joined.UserID != "u2" || joined.ChannelName != "music" {
		t.Errorf("unexpected voice join announcement: %+v", joined)
	}
	if connA.countType(protocol.TypeUserJoined) != 0 {
		t.Error("voice room join produced a text join event")
	}
}
