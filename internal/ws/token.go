package ws

import (
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"
)

// DefaultTokenTTL is the WS Token lifetime (spec §3's Glossary: "TTL ≈
// 5 min").
const DefaultTokenTTL = 5 * time.Minute

type tokenEntry struct {
	matchID   string
	playerID  string
	expiresAt time.Time
}

// Tokens issues and consumes single-use WS Tokens authorizing one
// first-attach HELLO for a specific (matchId, playerId). Consuming a
// token invalidates it; reconnects afterward use a signed HELLO
// instead (internal/auth), same exactly-once shape as
// matchmaking.Invites.
type Tokens struct {
	mu      sync.Mutex
	ttl     time.Duration
	byToken map[string]tokenEntry
}

func NewTokens(ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Tokens{ttl: ttl, byToken: make(map[string]tokenEntry)}
}

// Issue mints a fresh token for one player's first attach to a match.
func (t *Tokens) Issue(matchID, playerID string) string {
	buf := make([]byte, 24)
	rand.Read(buf)
	token := base64.RawURLEncoding.EncodeToString(buf)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.byToken[token] = tokenEntry{matchID: matchID, playerID: playerID, expiresAt: time.Now().Add(t.ttl)}
	return token
}

// Consume redeems a token for the named (matchId, playerId), deleting
// it whether or not it matched so a stolen or reused token never
// succeeds twice.
func (t *Tokens) Consume(token, matchID, playerID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.byToken[token]
	delete(t.byToken, token)
	if !ok {
		return false
	}
	if time.Now().After(entry.expiresAt) {
		return false
	}
	return entry.matchID == matchID && entry.playerID == playerID
}
