package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/youneskazemi/chatcord/internal/core"
	"github.com/youneskazemi/chatcord/internal/domain"
	"github.com/youneskazemi/chatcord/internal/protocol"
)

// fakeConn records every frame pushed to a session so tests can assert on
// the exact event stream a client would see.
type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	closed bool
	full   bool // when set, TrySend reports backpressure
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.full {
		return errors.New("backpressure")
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) events() []protocol.Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]protocol.Envelope, 0, len(c.frames))
	for _, f := range c.frames {
		env, err := protocol.Decode(f)
		if err != nil {
			continue
		}
		out = append(out, env)
	}
	return out
}

func (c *fakeConn) countType(eventType string) int {
	n := 0
	for _, env := range c.events() {
		if env.Type == eventType {
			n++
		}
	}
	return n
}

// lastOfType decodes the newest event of eventType into dst. Fails the test
// when no such event arrived.
func (c *fakeConn) lastOfType(t *testing.T, eventType string, dst any) {
	t.Helper()
	events := c.events()
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Type != eventType {
			continue
		}
		if err := json.Unmarshal(events[i].Data, dst); err != nil {
			t.Fatalf("decode %s payload: %v", eventType, err)
		}
		return
	}
	t.Fatalf("no %s event received (got %d events)", eventType, len(events))
}

type fakeDir struct {
	mu    sync.Mutex
	convs map[domain.ConversationID]*domain.Conversation
}

func newFakeDir() *fakeDir {
	return &fakeDir{convs: make(map[domain.ConversationID]*domain.Conversation)}
}

func (d *fakeDir) add(id domain.ConversationID, a, b domain.UserID) *domain.Conversation {
	ua, ub := domain.CanonicalPair(a, b)
	conv := &domain.Conversation{ID: id, UserA: ua, UserB: ub}
	d.mu.Lock()
	d.convs[id] = conv
	d.mu.Unlock()
	return conv
}

func (d *fakeDir) GetConversationByID(_ context.Context, id domain.ConversationID) (*domain.Conversation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	conv, ok := d.convs[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return conv, nil
}

type fakeCallLog struct {
	mu      sync.Mutex
	records map[domain.ConversationID][]domain.CallRecord
}

func newFakeCallLog() *fakeCallLog {
	return &fakeCallLog{records: make(map[domain.ConversationID][]domain.CallRecord)}
}

func (l *fakeCallLog) AppendCallRecord(_ context.Context, convID domain.ConversationID, rec domain.CallRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records[convID] = append(l.records[convID], rec)
	return nil
}

func (l *fakeCallLog) history(convID domain.ConversationID) []domain.CallRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.CallRecord(nil), l.records[convID]...)
}

// harness wires the full app layer against fakes, the same shape main.go
// assembles in production.
type harness struct {
	bus      *Bus
	registry *Registry
	rooms    *Rooms
	relay    *Relay
	voice    *Voice
	calls    *CallManager
	dir      *fakeDir
	callLog  *fakeCallLog
	now      time.Time
}

func newHarness() *harness {
	h := &harness{
		bus:     NewBus(),
		dir:     newFakeDir(),
		callLog: newFakeCallLog(),
		now:     time.Unix(1700000000, 0),
	}
	h.registry = NewRegistry(h.bus)
	h.rooms = NewRooms(h.bus)
	h.relay = NewRelay(h.registry)
	h.voice = NewVoice(h.rooms, h.relay)
	h.calls = NewCallManager(h.registry, h.relay, h.dir, h.callLog, h.bus)
	h.calls.nowFn = func() time.Time { return h.now }
	return h
}

func (h *harness) advance(d time.Duration) { h.now = h.now.Add(d) }

// connect registers a live session for the given user id and username.
func (h *harness) connect(id domain.UserID, username string) (*Session, *fakeConn) {
	conn := &fakeConn{}
	sid := core.SessionID("sid-" + string(id))
	sess := h.registry.Register(sid, &domain.User{ID: id, Username: username}, conn)
	return sess, conn
}
