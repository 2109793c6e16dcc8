package app

import (
	"testing"

	"github.com/pion/webrtc/v4"

	"github.com/youneskazemi/chatcord/internal/domain"
	"github.com/youneskazemi/chatcord/internal/protocol"
)

func testSDP(kind webrtc.SDPType) webrtc.SessionDescription {
	return webrtc.SessionDescription{Type: kind, SDP: "v=0"}
}

func TestVoiceJoinReturnsExistingPeers(t *testing.T) {
	h := newHarness()
	a, _ := h.connect("u1", "alice")
	b, _ := h.connect("u2", "bob")

	if got := h.voice.Join("music", a); len(got) != 0 {
		t.Fatalf("first joiner sees %d peers, want 0", len(got))
	}
	got := h.voice.Join("music", b)
	if len(got) != 1 || got[0].UserID != "u1" || got[0].Username != "alice" {
		t.Fatalf("second joiner peers = %+v", got)
	}
}

// Offer arbitration: for every pair exactly one side dials, decided by user
// ID order. The joiner offers to peers with greater IDs and waits for the
// rest to dial it.
func TestVoiceJoinOfferArbitration(t *testing.T) {
	h := newHarness()
	b, _ := h.connect("u2", "bob")
	c, _ := h.connect("u3", "carol")
	h.voice.Join("music", b)
	h.voice.Join("music", c)

	a, _ := h.connect("u1", "alice")
	peers := h.voice.Join("music", a)

	if len(peers) != 2 {
		t.Fatalf("got %d peers, want 2", len(peers))
	}
	for _, p := range peers {
		if !p.ShouldOffer {
			t.Errorf("u1 must offer to %s (lesser ID dials)", p.UserID)
		}
	}

	d, _ := h.connect("u9", "dave")
	peers = h.voice.Join("music", d)
	for _, p := range peers {
		if p.ShouldOffer {
			t.Errorf("u9 must wait for %s to dial", p.UserID)
		}
	}
}

func TestVoiceJoinLeavesPreviousRoom(t *testing.T) {
	h := newHarness()
	a, _ := h.connect("u1", "alice")
	b, connB := h.connect("u2", "bob")
	h.voice.Join("music", a)
	h.voice.Join("music", b)

	h.voice.Join("gaming", a)

	var left protocol.VoiceMembershipChange
	connB.lastOfType(t, protocol.TypeUserLeftVoice, &left)
	if left.UserID != "u1" || left.ChannelName != "music" {
		t.Errorf("unexpected voice leave: %+v", left)
	}
	if a.VoiceRoom() != domain.VoiceRoomID("gaming") {
		t.Errorf("voice room = %s, want voice:gaming", a.VoiceRoom())
	}
}

func TestVoiceLeaveIsIdempotent(t *testing.T) {
	h := newHarness()
	a, _ := h.connect("u1", "alice")
	b, connB := h.connect("u2", "bob")
	h.voice.Join("music", a)
	h.voice.Join("music", b)

	h.voice.Leave(a)
	h.voice.Leave(a)

	if got := connB.countType(protocol.TypeUserLeftVoice); got != 1 {
		t.Fatalf("userLeftVoice announced %d times, want 1", got)
	}
	if a.VoiceRoom() != "" {
		t.Error("voice room not cleared after leave")
	}
}

func TestVoiceOfferRelayedWithSenderIdentity(t *testing.T) {
	h := newHarness()
	a, _ := h.connect("u1", "alice")
	b, connB := h.connect("u2", "bob")
	h.voice.Join("music", a)
	h.voice.Join("music", b)

	h.voice.RelayOffer(a, protocol.VoiceSignal{
		TargetUserID: "u2",
		ChannelName:  "music",
		SDP:          testSDP(webrtc.SDPTypeOffer),
	})

	var fwd protocol.VoiceSignalForward
	connB.lastOfType(t, protocol.TypeVoiceOffer, &fwd)
	if fwd.From != "u1" || fwd.ChannelName != "music" || fwd.SDP.Type != webrtc.SDPTypeOffer {
		t.Errorf("unexpected forwarded offer: %+v", fwd)
	}
}

func TestVoiceSignalingDroppedAfterLeave(t *testing.T) {
	h := newHarness()
	a, _ := h.connect("u1", "alice")
	b, connB := h.connect("u2", "bob")
	h.voice.Join("music", a)
	h.voice.Join("music", b)
	h.voice.Leave(a)

	h.voice.RelayOffer(a, protocol.VoiceSignal{
		TargetUserID: "u2", ChannelName: "music", SDP: testSDP(webrtc.SDPTypeOffer),
	})
	h.voice.RelayCandidate(a, protocol.VoiceCandidate{
		TargetUserID: "u2", ChannelName: "music",
	})

	if connB.countType(protocol.TypeVoiceOffer) != 0 {
		t.Error("offer from departed session was relayed")
	}
	if connB.countType(protocol.TypeVoiceIceCandidate) != 0 {
		t.Error("candidate from departed session was relayed")
	}
}

func TestMuteToggleBroadcastsToRoom(t *testing.T) {
	h := newHarness()
	a, connA := h.connect("u1", "alice")
	b, connB := h.connect("u2", "bob")
	h.voice.Join("music", a)
	h.voice.Join("music", b)

	if err := h.voice.SetMute(a, protocol.ToggleMute{ChannelName: "music", IsMuted: true}); err != nil {
		t.Fatalf("SetMute: %v", err)
	}

	var change protocol.VoiceMuteChanged
	connB.lastOfType(t, protocol.TypeUserMuteChanged, &change)
	if change.UserID != "u1" || !change.IsMuted {
		t.Errorf("unexpected mute change: %+v", change)
	}
	if connA.countType(protocol.TypeUserMuteChanged) != 0 {
		t.Error("mute change echoed back to the toggling session")
	}
}

func TestMuteOutsideVoiceFails(t *testing.T) {
	h := newHarness()
	a, _ := h.connect("u1", "alice")

	err := h.voice.SetMute(a, protocol.ToggleMute{ChannelName: "music", IsMuted: true})
	if err != ErrNotInVoice {
		t.Fatalf("SetMute = %v, want ErrNotInVoice", err)
	}
	err = h.voice.SetDeafen(a, protocol.ToggleDeafen{ChannelName: "music", IsDeafened: true})
	if err != ErrNotInVoice {
		t.Fatalf("SetDeafen = %v, want ErrNotInVoice", err)
	}
}
