package room

import "testing"

type fakeSession struct {
	buf    chan []byte
	closed bool
}

func newFakeSession() *fakeSession {
	return &fakeSession{buf: make(chan []byte, 4)}
}

func (f *fakeSession) Send(data []byte) bool {
	select {
	case f.buf <- data:
		return true
	default:
		return false
	}
}

func TestJoinAndBroadcastDeliversToAllPlayers(t *testing.T) {
	m := NewManager()
	a, b := newFakeSession(), newFakeSession()
	m.Join("match-1", "alice", a)
	m.Join("match-1", "bob", b)

	if err := m.Broadcast("match-1", map[string]string{"type": "hello"}); err != nil {
		t.Fatalf("Broadcast: %v", err)
	}

	if len(a.buf) != 1 || len(b.buf) != 1 {
		t.Errorf("expected both sessions to receive the broadcast, got a=%d b=%d", len(a.buf), len(b.buf))
	}
}

func TestLeaveDoesNotEvictAReplacementSession(t *testing.T) {
	m := NewManager()
	old := newFakeSession()
	m.Join("match-1", "alice", old)

	next := newFakeSession()
	m.Join("match-1", "alice", next) // reconnect replaces the slot

	m.Leave("match-1", "alice", old) // the stale connection's own cleanup

	got, ok := m.Get("match-1", "alice")
	if !ok || got != Session(next) {
		t.Error("leave from a stale session should not evict the current one")
	}
}

func TestCountReflectsAttachedPlayers(t *testing.T) {
	m := NewManager()
	if m.Count("match-1") != 0 {
		t.Fatal("expected 0 before any join")
	}
	m.Join("match-1", "alice", newFakeSession())
	m.Join("match-1", "bob", newFakeSession())
	if m.Count("match-1") != 2 {
		t.Errorf("expected 2, got %d", m.Count("match-1"))
	}
}

func TestSendToPlayerDropsSilentlyWhenAbsent(t *testing.T) {
	m := NewManager()
	if err := m.SendToPlayer("match-1", "nobody", map[string]string{"type": "ping"}); err != nil {
		t.Fatalf("unexpected error sending to an absent player: %v", err)
	}
}

func TestSpectatorsReceiveBroadcastsButNotDirectSends(t *testing.T) {
	m := NewManager()
	spectator := newFakeSession()
	m.JoinSpectator("match-1", "spec-1", spectator)

	m.Broadcast("match-1", map[string]string{"type": "state"})
	if len(spectator.buf) != 1 {
		t.Errorf("expected spectator to receive broadcast, got %d", len(spectator.buf))
	}

	m.SendToPlayer("match-1", "spec-1", map[string]string{"type": "direct"})
	if len(spectator.buf) != 1 {
		t.Errorf("expected a direct send to skip the spectator, got %d frames", len(spectator.buf))
	}
}
