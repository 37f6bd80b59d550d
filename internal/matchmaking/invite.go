package matchmaking

import (
	"crypto/rand"
	"sync"
	"time"
)

// inviteAlphabet is URL-safe and excludes visually ambiguous characters,
// the same concern the teacher's generateToken (manager.go) sidesteps by
// hex-encoding instead — here a short human-shareable code is required,
// so hex is replaced with a deliberately chosen alphabet.
const inviteAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

// inviteCodeLength of 8 chars over a 32-symbol alphabet gives 2^40
// entropy, comfortably above the spec's documented >= 2^36 floor.
const inviteCodeLength = 8

type invite struct {
	code      string
	gameID    string
	stake     string
	hostID    string
	createdAt time.Time
}

// Invites tracks outstanding private-match invite codes.
type Invites struct {
	mu      sync.Mutex
	byCode  map[string]*invite
}

func NewInvites() *Invites {
	return &Invites{byCode: make(map[string]*invite)}
}

func generateInviteCode() string {
	b := make([]byte, inviteCodeLength)
	rand.Read(b)
	out := make([]byte, inviteCodeLength)
	for i, v := range b {
		out[i] = inviteAlphabet[int(v)%len(inviteAlphabet)]
	}
	return string(out)
}

// Create allocates a fresh invite code for hostID hosting gameID at the
// given stake. Collisions are vanishingly unlikely at this entropy but
// are still checked for, matching the teacher's generateToken retry-free
// assumption while staying correct if the birthday bound is ever hit.
func (iv *Invites) Create(gameID, stake, hostID string) string {
	iv.mu.Lock()
	defer iv.mu.Unlock()
	for {
		code := generateInviteCode()
		if _, exists := iv.byCode[code]; exists {
			continue
		}
		iv.byCode[code] = &invite{
			code:      code,
			gameID:    gameID,
			stake:     stake,
			hostID:    hostID,
			createdAt: time.Now(),
		}
		return code
	}
}

// Consume removes and returns the invite for code exactly once;
// accepting the same code twice fails the second time (spec's "invite
// code consumed twice" boundary case).
func (iv *Invites) Consume(code string) (gameID, stake, hostID string, ok bool) {
	iv.mu.Lock()
	defer iv.mu.Unlock()
	in, exists := iv.byCode[code]
	if !exists {
		return "", "", "", false
	}
	delete(iv.byCode, code)
	return in.gameID, in.stake, in.hostID, true
}

// DefaultPendingMatchTTL is how long a pending-match notification (the
// opponent's half of a queue pairing) survives before it is considered
// stale and the opponent must re-join the queue.
const DefaultPendingMatchTTL = 2 * time.Minute

// PendingMatch is the notification left for the opponent side of a
// pairing created by Queue.Join, so a client polling checkActiveMatch
// or joinQueue again can discover the match it was just paired into.
type PendingMatch struct {
	MatchID   string
	Opponent  string
	createdAt time.Time
}

// PendingMatches tracks one outstanding notification per playerId.
type PendingMatches struct {
	mu  sync.Mutex
	ttl time.Duration
	byPlayer map[string]PendingMatch
}

func NewPendingMatches(ttl time.Duration) *PendingMatches {
	if ttl <= 0 {
		ttl = DefaultPendingMatchTTL
	}
	return &PendingMatches{ttl: ttl, byPlayer: make(map[string]PendingMatch)}
}

// Put records a pending match for playerID.
func (p *PendingMatches) Put(playerID, matchID, opponent string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byPlayer[playerID] = PendingMatch{MatchID: matchID, Opponent: opponent, createdAt: time.Now()}
}

// Consume removes and returns playerID's pending match if it exists and
// has not expired.
func (p *PendingMatches) Consume(playerID string) (PendingMatch, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pm, ok := p.byPlayer[playerID]
	if !ok {
		return PendingMatch{}, false
	}
	delete(p.byPlayer, playerID)
	if time.Since(pm.createdAt) > p.ttl {
		return PendingMatch{}, false
	}
	return pm, true
}
