// Package matchmaking generalizes the teacher's GameManager queue
// (internal/game/manager.go's matchmakingQueue map[int][]QueueEntry)
// from a single stake-amount key to a (gameId, stake) composite key,
// and from a shared mutex over the whole map to one mutex per queue key
// so pairing two tickets in one game never blocks a join on another.
package matchmaking

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"
)

// DefaultTicketTTL mirrors the teacher's queue-entry lifetime, widened
// to the spec's documented default.
const DefaultTicketTTL = 30 * time.Second

// Ticket is the opaque handle returned to a queued player.
type Ticket struct {
	Token     string
	PlayerID  string
	GameID    string
	Stake     string
	JoinedAt  time.Time
	expiresAt time.Time
}

func (t Ticket) expired(now time.Time) bool {
	return now.After(t.expiresAt)
}

// JoinResult is the outcome of a joinQueue call.
type JoinResult struct {
	Matched  bool
	MatchID  string // set by the caller via CreateMatch, not by Queue itself
	Opponent string
	Ticket   Ticket
}

// queueKey identifies one matchmaking pool.
type queueKey struct {
	gameID string
	stake  string
}

// pool is one (gameId, stake) queue, guarded by its own lock so
// concurrent joins across different games/stakes never contend.
type pool struct {
	mu      sync.Mutex
	tickets []Ticket
}

// Queue holds every (gameId, stake) pool the server is matchmaking for.
type Queue struct {
	mu    sync.RWMutex
	ttl   time.Duration
	pools map[queueKey]*pool
}

// New creates an empty Queue. ttl <= 0 uses DefaultTicketTTL.
func New(ttl time.Duration) *Queue {
	if ttl <= 0 {
		ttl = DefaultTicketTTL
	}
	return &Queue{
		ttl:   ttl,
		pools: make(map[queueKey]*pool),
	}
}

func (q *Queue) poolFor(key queueKey) *pool {
	q.mu.Lock()
	defer q.mu.Unlock()
	p, ok := q.pools[key]
	if !ok {
		p = &pool{}
		q.pools[key] = p
	}
	return p
}

func generateToken() string {
	b := make([]byte, 16)
	rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// Join attempts to pair playerID against an existing ticket in the
// (gameId, stake) pool. If found, both tickets are atomically removed
// (the pool's own lock serializes this against any other concurrent
// Join on the same key) and Matched is returned — the caller is
// responsible for instantiating the match and publishing a pending-
// match notification to the opponent. If no opponent is waiting, a
// fresh ticket is added (purging any stale ticket the same player
// already held in this pool, per the "handling stale polls" rule) and
// Queued is returned.
func (q *Queue) Join(gameID, playerID, stake string) JoinResult {
	key := queueKey{gameID: gameID, stake: stake}
	p := q.poolFor(key)

	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	live := p.tickets[:0]
	for _, t := range p.tickets {
		if t.expired(now) || t.PlayerID == playerID {
			continue
		}
		live = append(live, t)
	}

	if len(live) > 0 {
		opponent := live[0]
		p.tickets = live[1:]
		return JoinResult{
			Matched:  true,
			Opponent: opponent.PlayerID,
			Ticket:   opponent,
		}
	}

	p.tickets = live
	ticket := Ticket{
		Token:     generateToken(),
		PlayerID:  playerID,
		GameID:    gameID,
		Stake:     stake,
		JoinedAt:  now,
		expiresAt: now.Add(q.ttl),
	}
	p.tickets = append(p.tickets, ticket)
	return JoinResult{Matched: false, Ticket: ticket}
}

// Leave removes a ticket by token from the (gameId, stake) pool named
// by the caller; other pools are not searched. Returns false if that
// pool holds no ticket with this token.
func (q *Queue) Leave(gameID, stake, token string) bool {
	key := queueKey{gameID: gameID, stake: stake}
	p := q.poolFor(key)

	p.mu.Lock()
	defer p.mu.Unlock()
	for i, t := range p.tickets {
		if t.Token == token {
			p.tickets = append(p.tickets[:i], p.tickets[i+1:]...)
			return true
		}
	}
	return false
}

// Refresh extends a ticket's TTL, the same "refreshed on poll" rule
// the spec's data model names for Queue Ticket.
func (q *Queue) Refresh(gameID, stake, token string) bool {
	key := queueKey{gameID: gameID, stake: stake}
	p := q.poolFor(key)

	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	for i := range p.tickets {
		if p.tickets[i].Token == token {
			p.tickets[i].expiresAt = now.Add(q.ttl)
			return true
		}
	}
	return false
}

// Snapshot reports the live (non-expired) ticket count per (gameId,
// stake) key, for the /api/queues endpoint.
func (q *Queue) Snapshot() map[string]int {
	q.mu.RLock()
	keys := make([]queueKey, 0, len(q.pools))
	pools := make([]*pool, 0, len(q.pools))
	for k, p := range q.pools {
		keys = append(keys, k)
		pools = append(pools, p)
	}
	q.mu.RUnlock()

	now := time.Now()
	out := make(map[string]int, len(keys))
	for i, k := range keys {
		p := pools[i]
		p.mu.Lock()
		n := 0
		for _, t := range p.tickets {
			if !t.expired(now) {
				n++
			}
		}
		p.mu.Unlock()
		out[fmt.Sprintf("%s:%s", k.gameID, k.stake)] = n
	}
	return out
}
