// Package room generalizes the teacher's ws.Hub (internal/ws/handler.go)
// from a single global gameID->playerID->*Client map into a per-match
// session set plus a separate spectator set, adding explicit leave() and
// count() operations the teacher only ever did inline.
package room

import (
	"encoding/json"
	"sync"
)

// Session is anything a Room can fan a message out to: a live WebSocket
// connection in production, a channel-backed fake in tests.
type Session interface {
	// Send delivers data without blocking. It returns false if the
	// session's outbound buffer was full and the message was dropped —
	// mirroring the teacher's BroadcastToGame/SendToPlayer select/default
	// "drop rather than block one slow client" behavior.
	Send(data []byte) bool
}

// Manager tracks, per matchId, the set of player sessions and the set
// of spectator sessions currently attached.
type Manager struct {
	mu         sync.RWMutex
	players    map[string]map[string]Session // matchId -> playerId -> Session
	spectators map[string]map[string]Session // matchId -> spectatorId -> Session
}

func NewManager() *Manager {
	return &Manager{
		players:    make(map[string]map[string]Session),
		spectators: make(map[string]map[string]Session),
	}
}

// Join attaches a player's session to a match room, replacing any
// existing session for that player (a reconnect silently takes over the
// slot, same as the teacher's runGameHub register case).
func (m *Manager) Join(matchID, playerID string, s Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.players[matchID]
	if !ok {
		room = make(map[string]Session)
		m.players[matchID] = room
	}
	room[playerID] = s
}

// Leave detaches a player's session. It is a no-op if the session
// passed is not the one currently registered (an old, already-replaced
// connection closing after a reconnect shouldn't evict the new one).
func (m *Manager) Leave(matchID, playerID string, s Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.players[matchID]
	if !ok {
		return
	}
	if room[playerID] != s {
		return
	}
	delete(room, playerID)
	if len(room) == 0 {
		delete(m.players, matchID)
	}
}

// JoinSpectator attaches a spectator session, keyed by a session id the
// caller generates (spectators have no player identity).
func (m *Manager) JoinSpectator(matchID, sessionID string, s Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.spectators[matchID]
	if !ok {
		room = make(map[string]Session)
		m.spectators[matchID] = room
	}
	room[sessionID] = s
}

func (m *Manager) LeaveSpectator(matchID, sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.spectators[matchID]
	if !ok {
		return
	}
	delete(room, sessionID)
	if len(room) == 0 {
		delete(m.spectators, matchID)
	}
}

// Get returns the currently registered session for a player, if any.
func (m *Manager) Get(matchID, playerID string) (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room, ok := m.players[matchID]
	if !ok {
		return nil, false
	}
	s, ok := room[playerID]
	return s, ok
}

// Count returns the number of player sessions currently attached to a
// match (0, 1, or 2 for a two-player game).
func (m *Manager) Count(matchID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.players[matchID])
}

// Broadcast marshals message and fans it out to every player session in
// the match. A full send buffer drops that one client's copy rather
// than blocking the others, same as the teacher's BroadcastToGame.
func (m *Manager) Broadcast(matchID string, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.players[matchID] {
		s.Send(data)
	}
	for _, s := range m.spectators[matchID] {
		s.Send(data)
	}
	return nil
}

// SendToPlayer marshals message and delivers it to one player's
// session, if attached.
func (m *Manager) SendToPlayer(matchID, playerID string, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	m.mu.RLock()
	s, ok := m.players[matchID][playerID]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	s.Send(data)
	return nil
}
