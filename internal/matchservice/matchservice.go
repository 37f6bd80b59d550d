// Package matchservice is the Match Service façade of spec §4.6: it
// generalizes the teacher's GameManager (internal/game/manager.go) —
// a mutex-guarded games/playerToGame/matchmakingQueue trio exposing
// JoinQueue/LeaveQueue/CreateGameFromMatch/handleConcede-style methods
// — into a process-wide component wrapping one orchestrator.Orchestrator
// per live match, a matchmaking.Queue, an activeindex.Index, and an
// optional settlement.Coordinator for staked play.
package matchservice

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/dorkfun/matchserver/internal/activeindex"
	"github.com/dorkfun/matchserver/internal/apperr"
	"github.com/dorkfun/matchserver/internal/elo"
	"github.com/dorkfun/matchserver/internal/gamemodule"
	"github.com/dorkfun/matchserver/internal/matchmaking"
	"github.com/dorkfun/matchserver/internal/orchestrator"
	"github.com/dorkfun/matchserver/internal/settlement"
	"github.com/dorkfun/matchserver/internal/transcript"
)

// Notifier lets the Session Transport own every client-facing wire
// frame; the Match Service only reports domain events through it and
// never builds a Frame itself. The concrete implementation is
// ws.Server.
type Notifier interface {
	// DepositRequired is emitted once per staked match creation, to
	// every attached session (spec §4.8 Phase A step 2).
	DepositRequired(matchID string, players []string, escrowAddress, stakeWei string, matchIDHash [32]byte)
	// DepositConfirmed is a single-player ack sent as each deposit is
	// observed on-chain (spec §4.8 Phase A step 3).
	DepositConfirmed(matchID, playerID string)
	// MatchActive fires once both deposits are confirmed and the match
	// transitions WAITING -> ACTIVE.
	MatchActive(matchID string)
	// MatchOver fires for every finalize that wasn't already announced
	// by the Session Transport's own STEP_RESULT-triggered GAME_OVER
	// (forfeit, emergency draw, stale-match timeout).
	MatchOver(matchID string, outcome gamemodule.Outcome)
	// DepositTimeout fires when a staked match's deposit deadline
	// passes before both players deposited; the match is cancelled, not
	// completed.
	DepositTimeout(matchID string)
}

// Persistence abstracts match archival so the Service can be built
// without a live Postgres connection (unit tests, or an in-memory-only
// deployment). The concrete implementation is store.Store.
type Persistence interface {
	CreateMatch(ctx context.Context, matchID, gameID, stake string, players []string) error
	RecordMove(ctx context.Context, matchID string, entry transcript.Entry) error
	FinalizeMatch(ctx context.Context, matchID, status string, outcome gamemodule.Outcome, rootHash, settlementTx string) error
	BumpStats(ctx context.Context, playerID, gameID string, newRating, winDelta, lossDelta, drawDelta int) error
	Rating(ctx context.Context, playerID, gameID string) (int, error)
}

// Status is a Match's place in the lifecycle named by spec's Data
// Model: WAITING -> ACTIVE -> COMPLETED -> (SETTLED | DISPUTED).
type Status string

const (
	StatusWaiting   Status = "WAITING"
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
	StatusSettled   Status = "SETTLED"
	StatusDisputed  Status = "DISPUTED"
)

// Match is one live match's full server-side state.
type Match struct {
	mu sync.Mutex

	ID      string
	GameID  string
	Stake   string
	Players []string
	Status  Status

	Orchestrator *orchestrator.Orchestrator

	DepositConfirmed map[string]bool

	CreatedAt    time.Time
	LastActivity time.Time

	MoveTimeoutMs int64
	SettlementTx  string
}

func (m *Match) touch() {
	m.LastActivity = time.Now()
}

// Service is the process-wide Match Service.
type Service struct {
	mu      sync.RWMutex
	matches map[string]*Match

	registry *gamemodule.Registry
	queue    *matchmaking.Queue
	invites  *matchmaking.Invites
	pending  *matchmaking.PendingMatches
	index    *activeindex.Index
	coord    *settlement.Coordinator
	persist  Persistence
	notifier Notifier

	escrowAddress string

	stakeMinimum func(ctx context.Context, gameID string) (string, error)

	emergency atomic.Bool

	completedEvictionAge time.Duration
}

// Config bundles Service's collaborators. Index and Coord may be nil —
// a deployment with no Redis or no chain RPC configured simply skips
// active-match recovery and staked play respectively.
type Config struct {
	Registry             *gamemodule.Registry
	Queue                *matchmaking.Queue
	Invites              *matchmaking.Invites
	Pending              *matchmaking.PendingMatches
	Index                *activeindex.Index
	Coordinator          *settlement.Coordinator
	Persistence          Persistence
	EscrowAddress        string
	StakeMinimum         func(ctx context.Context, gameID string) (string, error)
	CompletedEvictionAge time.Duration
}

func New(cfg Config) *Service {
	if cfg.CompletedEvictionAge <= 0 {
		cfg.CompletedEvictionAge = 30 * time.Minute
	}
	s := &Service{
		matches:              make(map[string]*Match),
		registry:             cfg.Registry,
		queue:                cfg.Queue,
		invites:              cfg.Invites,
		pending:              cfg.Pending,
		index:                cfg.Index,
		coord:                cfg.Coordinator,
		persist:              cfg.Persistence,
		escrowAddress:        cfg.EscrowAddress,
		stakeMinimum:         cfg.StakeMinimum,
		completedEvictionAge: cfg.CompletedEvictionAge,
	}
	if s.coord != nil {
		s.coord.OnAllConfirmed = s.onDepositsConfirmed
		s.coord.OnDepositConfirmed = s.onDepositConfirmed
		s.coord.OnTimeout = s.onDepositTimeout
	}
	return s
}

// SetNotifier wires the Session Transport that owns client-facing
// framing. Called once at startup, after both the Service and the
// ws.Server exist, to break their circular construction order.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// matchIDHash derives the bytes32 the Escrow/Settlement contracts key
// deposits and outcomes by, from the string matchId.
func matchIDHash(matchID string) [32]byte {
	return sha256.Sum256([]byte(matchID))
}

// JoinQueueResult is what the Edge API returns from joinQueue.
type JoinQueueResult struct {
	Matched  bool
	MatchID  string
	Opponent string
	Ticket   string
}

// JoinQueue implements spec §4.6's joinQueue algorithm: consume a
// pending-match notification if one exists, otherwise try to pair
// against the (gameId, stake) queue, otherwise enqueue.
func (s *Service) JoinQueue(ctx context.Context, playerID, gameID, stake string) (JoinQueueResult, error) {
	if s.emergency.Load() {
		return JoinQueueResult{}, apperr.New(apperr.MatchEmergencyMode, "new matches are disabled")
	}
	if _, ok := s.registry.Get(gameID); !ok {
		return JoinQueueResult{}, apperr.New(apperr.QueueInvalidStake, "unknown game")
	}
	if err := s.validateStake(ctx, gameID, stake); err != nil {
		return JoinQueueResult{}, err
	}

	if pm, ok := s.pending.Consume(playerID); ok {
		return JoinQueueResult{Matched: true, MatchID: pm.MatchID, Opponent: pm.Opponent}, nil
	}

	result := s.queue.Join(gameID, playerID, stake)
	if !result.Matched {
		return JoinQueueResult{Ticket: result.Ticket.Token}, nil
	}

	matchID, err := s.createMatch(ctx, gameID, stake, []string{result.Opponent, playerID})
	if err != nil {
		return JoinQueueResult{}, err
	}
	s.pending.Put(result.Opponent, matchID, playerID)
	return JoinQueueResult{Matched: true, MatchID: matchID, Opponent: result.Opponent}, nil
}

// LeaveQueue drops a queued ticket.
func (s *Service) LeaveQueue(gameID, stake, ticket string) bool {
	return s.queue.Leave(gameID, stake, ticket)
}

// CreatePrivateMatch allocates an invite code a second player can
// redeem via AcceptPrivateMatch.
func (s *Service) CreatePrivateMatch(gameID, stake, hostID string) (string, error) {
	if s.emergency.Load() {
		return "", apperr.New(apperr.MatchEmergencyMode, "new matches are disabled")
	}
	if _, ok := s.registry.Get(gameID); !ok {
		return "", apperr.New(apperr.QueueInvalidStake, "unknown game")
	}
	return s.invites.Create(gameID, stake, hostID), nil
}

// AcceptPrivateMatch redeems an invite code, pairing the accepting
// player against the invite's host.
func (s *Service) AcceptPrivateMatch(ctx context.Context, code, playerID string) (string, error) {
	gameID, stake, hostID, ok := s.invites.Consume(code)
	if !ok {
		return "", apperr.New(apperr.MatchNotFound, "invite code not found or already used")
	}
	if hostID == playerID {
		return "", apperr.New(apperr.QueueDuplicateJoin, "cannot accept your own invite")
	}
	return s.createMatch(ctx, gameID, stake, []string{hostID, playerID})
}

func (s *Service) validateStake(ctx context.Context, gameID, stake string) error {
	if stake == "0" || stake == "" || s.stakeMinimum == nil {
		return nil
	}
	min, err := s.stakeMinimum(ctx, gameID)
	if err != nil {
		return apperr.New(apperr.Internal, "failed to read minimum stake")
	}
	if stakeLess(stake, min) {
		return apperr.New(apperr.QueueBelowMinimum, "stake below minimum")
	}
	return nil
}

// stakeLess compares two decimal-integer wei strings numerically
// without risking float precision loss: a length-then-lexicographic
// comparison, exact for decimal strings without leading zeros.
func stakeLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

// createMatch instantiates the orchestrator, registers the match, and
// either opens a deposit gate (stake > 0) or activates it immediately.
func (s *Service) createMatch(ctx context.Context, gameID, stake string, players []string) (string, error) {
	module, ok := s.registry.Get(gameID)
	if !ok {
		return "", apperr.New(apperr.MatchNotFound, "unknown game")
	}

	matchID := uuid.NewString()
	seed := matchID
	orch, err := orchestrator.New(matchID, module, players, seed, gamemodule.InitConfig{GameID: gameID})
	if err != nil {
		return "", fmt.Errorf("matchservice: %w", err)
	}

	m := &Match{
		ID:               matchID,
		GameID:           gameID,
		Stake:            stake,
		Players:          players,
		Orchestrator:     orch,
		DepositConfirmed: make(map[string]bool, len(players)),
		CreatedAt:        time.Now(),
		LastActivity:     time.Now(),
	}

	staked := stake != "0" && stake != ""
	if staked {
		m.Status = StatusWaiting
		if s.coord != nil {
			s.coord.OpenGate(matchID, matchIDHash(matchID), players, time.Now().Add(5*time.Minute))
		}
		if s.notifier != nil {
			s.notifier.DepositRequired(matchID, players, s.escrowAddress, stake, matchIDHash(matchID))
		}
	} else {
		m.Status = StatusActive
	}

	s.mu.Lock()
	s.matches[matchID] = m
	s.mu.Unlock()

	if !staked {
		s.publishActiveIndex(ctx, m)
	}
	if s.persist != nil {
		if err := s.persist.CreateMatch(ctx, matchID, gameID, stake, players); err != nil {
			log.Printf("[MATCHSERVICE] failed to persist new match %s: %v", matchID, err)
		}
	}
	return matchID, nil
}

func (s *Service) publishActiveIndex(ctx context.Context, m *Match) {
	if s.index == nil {
		return
	}
	for _, p := range m.Players {
		if err := s.index.Set(ctx, p, activeindex.Entry{MatchID: m.ID, GameID: m.GameID, Stake: m.Stake}); err != nil {
			log.Printf("[MATCHSERVICE] failed to publish active index for %s: %v", p, err)
		}
	}
}

func (s *Service) clearActiveIndex(ctx context.Context, m *Match) {
	if s.index == nil {
		return
	}
	for _, p := range m.Players {
		if err := s.index.Clear(ctx, p); err != nil {
			log.Printf("[MATCHSERVICE] failed to clear active index for %s: %v", p, err)
		}
	}
}

// onDepositConfirmed is the Coordinator's per-player ack callback: a
// single deposit has been observed on-chain. It is not itself a
// status transition — OnAllConfirmed fires separately once every
// player in the match has deposited.
func (s *Service) onDepositConfirmed(matchID, player string) {
	s.mu.RLock()
	m := s.matches[matchID]
	s.mu.RUnlock()
	if m == nil {
		return
	}
	m.mu.Lock()
	if m.DepositConfirmed == nil {
		m.DepositConfirmed = make(map[string]bool)
	}
	m.DepositConfirmed[player] = true
	m.touch()
	m.mu.Unlock()

	if s.notifier != nil {
		s.notifier.DepositConfirmed(matchID, player)
	}
}

func (s *Service) onDepositsConfirmed(matchID string) {
	s.mu.RLock()
	m := s.matches[matchID]
	s.mu.RUnlock()
	if m == nil {
		return
	}
	m.mu.Lock()
	m.Status = StatusActive
	m.touch()
	m.mu.Unlock()

	s.publishActiveIndex(context.Background(), m)
	if s.notifier != nil {
		s.notifier.MatchActive(matchID)
	}
}

func (s *Service) onDepositTimeout(matchID string) {
	s.mu.Lock()
	m, ok := s.matches[matchID]
	if ok {
		delete(s.matches, matchID)
	}
	s.mu.Unlock()
	if !ok {
		return
	}
	if s.notifier != nil {
		s.notifier.DepositTimeout(matchID)
	}
	s.clearActiveIndex(context.Background(), m)
}

// Get returns a live match by id.
func (s *Service) Get(matchID string) (*Match, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.matches[matchID]
	return m, ok
}

// Summary is the Edge API's read-only view of a live match, grounded
// on the teacher's lightweight GameSession-status JSON responses in
// handlers/game.go.
type Summary struct {
	ID        string    `json:"id"`
	GameID    string    `json:"gameId"`
	Stake     string    `json:"stake"`
	Players   []string  `json:"players"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// Summary returns a read-only snapshot of the match's public fields.
func (m *Match) Summary() Summary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Summary{
		ID:        m.ID,
		GameID:    m.GameID,
		Stake:     m.Stake,
		Players:   append([]string(nil), m.Players...),
		Status:    string(m.Status),
		CreatedAt: m.CreatedAt,
	}
}

// ListLive returns a snapshot of every in-memory match ("GET
// /api/matches").
func (s *Service) ListLive() []Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Summary, 0, len(s.matches))
	for _, m := range s.matches {
		out = append(out, m.Summary())
	}
	return out
}

// CheckActiveMatch implements the reconnection-discovery endpoint: it
// cross-checks the Active-Match Index against the live Match Service,
// deleting a stale index entry rather than reporting a dead match.
func (s *Service) CheckActiveMatch(ctx context.Context, playerID string) (activeindex.Entry, bool) {
	if s.index == nil {
		return activeindex.Entry{}, false
	}
	entry, ok, err := s.index.Get(ctx, playerID)
	if err != nil || !ok {
		return activeindex.Entry{}, false
	}
	m, live := s.Get(entry.MatchID)
	if !live || m.Status == StatusCompleted || m.Status == StatusSettled || m.Status == StatusDisputed {
		s.index.Clear(ctx, playerID)
		return activeindex.Entry{}, false
	}
	return entry, true
}

// ApplyAction submits a player's action to the match's orchestrator
// under that match's own lock, then finalizes the match if it became
// terminal.
func (s *Service) ApplyAction(ctx context.Context, matchID, playerID string, action gamemodule.Action, timestampMs int64) (transcript.Entry, error) {
	m, ok := s.Get(matchID)
	if !ok {
		return transcript.Entry{}, apperr.New(apperr.MatchNotFound, "no such match")
	}

	m.mu.Lock()
	if m.Status != StatusActive {
		m.mu.Unlock()
		return transcript.Entry{}, apperr.New(apperr.MatchAlreadyOver, "match not active")
	}
	entry, err := m.Orchestrator.SubmitAction(playerID, action, timestampMs)
	if err != nil {
		m.mu.Unlock()
		return transcript.Entry{}, mapOrchestratorErr(err)
	}
	m.touch()
	terminal := m.Orchestrator.IsTerminal()
	m.mu.Unlock()

	if s.persist != nil {
		if err := s.persist.RecordMove(ctx, matchID, entry); err != nil {
			log.Printf("[MATCHSERVICE] failed to persist move %d for %s: %v", entry.Sequence, matchID, err)
		}
	}
	if terminal {
		s.finalize(ctx, m, "")
	}
	return entry, nil
}

func mapOrchestratorErr(err error) error {
	switch {
	case errorIs(err, orchestrator.ErrAlreadyOver):
		return apperr.New(apperr.MatchAlreadyOver, err.Error())
	case errorIs(err, orchestrator.ErrNotYourTurn):
		return apperr.New(apperr.MatchNotYourTurn, err.Error())
	default:
		return apperr.New(apperr.MatchInvalidAction, err.Error())
	}
}

// Forfeit ends a match immediately in the opponent's favor. Forfeiting
// an already-over match is a documented no-op, not an error escalation
// (spec §8 boundary behavior).
func (s *Service) Forfeit(ctx context.Context, matchID, playerID string) error {
	m, ok := s.Get(matchID)
	if !ok {
		return apperr.New(apperr.MatchNotFound, "no such match")
	}
	m.mu.Lock()
	if m.Status != StatusActive {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()
	s.finalize(ctx, m, "forfeit:"+playerID)
	return nil
}

// finalize transitions a match out of ACTIVE once it is terminal
// (either the module reported IsTerminal, or reason forces termination
// via forfeit/emergency/stale-timeout) and kicks off Phase B settlement
// for staked matches.
func (s *Service) finalize(ctx context.Context, m *Match, reason string) {
	m.mu.Lock()
	if m.Status == StatusCompleted || m.Status == StatusSettled || m.Status == StatusDisputed {
		m.mu.Unlock()
		return
	}
	m.Status = StatusCompleted
	outcome := m.Orchestrator.Outcome()
	if !m.Orchestrator.IsTerminal() {
		outcome = forcedOutcome(m.Players, reason)
	}
	root := m.Orchestrator.Transcript.Root()
	staked := m.Stake != "0" && m.Stake != ""
	gameID := m.GameID
	matchID := m.ID
	players := append([]string(nil), m.Players...)
	m.mu.Unlock()

	if s.coord != nil {
		s.coord.CloseGate(matchID)
	}
	s.clearActiveIndex(ctx, m)

	// reason == "" means ApplyAction's natural-terminal path finalized
	// this match; ws.Server's STEP_RESULT dispatch already broadcasts a
	// well-formed GAME_OVER for that case (broadcastStepResult). Forfeit/
	// emergency/stale-timeout have no other broadcast path, so those
	// announce here.
	if s.notifier != nil && reason != "" {
		s.notifier.MatchOver(matchID, outcome)
	}

	s.applyRatings(ctx, gameID, players, outcome)

	if !staked || s.coord == nil {
		if s.persist != nil {
			if err := s.persist.FinalizeMatch(ctx, matchID, string(m.Status), outcome, root.Hex(), ""); err != nil {
				log.Printf("[MATCHSERVICE] failed to persist finalize for %s: %v", matchID, err)
			}
		}
		return
	}

	go s.settleStaked(context.Background(), m, outcome, root)
}

// forcedOutcome derives an Outcome for a match ended by reason rather
// than by the module reporting terminal state: a forfeit awards the
// opponent, everything else (emergency draw-all, stale-match timeout)
// is a no-fault draw.
func forcedOutcome(players []string, reason string) gamemodule.Outcome {
	const forfeitPrefix = "forfeit:"
	if len(reason) > len(forfeitPrefix) && reason[:len(forfeitPrefix)] == forfeitPrefix {
		loser := reason[len(forfeitPrefix):]
		for _, p := range players {
			if p != loser {
				return gamemodule.Outcome{Winner: p, Reason: reason}
			}
		}
	}
	return gamemodule.Outcome{Draw: true, Reason: reason}
}

// applyRatings updates each player's Elo rating and win/loss/draw
// tally for the match's gameId. A no-op if no Persistence is wired.
func (s *Service) applyRatings(ctx context.Context, gameID string, players []string, outcome gamemodule.Outcome) {
	if s.persist == nil || len(players) != 2 {
		return
	}
	a, b := players[0], players[1]
	ratingA, _ := s.persist.Rating(ctx, a, gameID)
	ratingB, _ := s.persist.Rating(ctx, b, gameID)

	result := elo.Draw
	if !outcome.Draw {
		if outcome.Winner == a {
			result = elo.Win
		} else if outcome.Winner == b {
			result = elo.Loss
		}
	}
	change := elo.Calculate(ratingA, ratingB, result, 0)

	winA, lossA, drawA := 0, 0, 0
	winB, lossB, drawB := 0, 0, 0
	switch result {
	case elo.Win:
		winA, lossB = 1, 1
	case elo.Loss:
		lossA, winB = 1, 1
	default:
		drawA, drawB = 1, 1
	}

	if err := s.persist.BumpStats(ctx, a, gameID, change.NewA, winA, lossA, drawA); err != nil {
		log.Printf("[MATCHSERVICE] failed to bump stats for %s: %v", a, err)
	}
	if err := s.persist.BumpStats(ctx, b, gameID, change.NewB, winB, lossB, drawB); err != nil {
		log.Printf("[MATCHSERVICE] failed to bump stats for %s: %v", b, err)
	}
}

func (s *Service) settleStaked(ctx context.Context, m *Match, outcome gamemodule.Outcome, root [32]byte) {
	winnerAddr := zeroAddress
	isDraw := outcome.Draw
	if !isDraw {
		winnerAddr = outcome.Winner
	}

	txID, err := s.coord.SubmitOutcome(ctx, matchIDHash(m.ID), common.HexToAddress(winnerAddr), isDraw, root)
	m.mu.Lock()
	if err != nil {
		m.Status = StatusDisputed
		log.Printf("[MATCHSERVICE] settlement failed for %s, marking disputed: %v", m.ID, err)
	} else {
		m.Status = StatusSettled
		m.SettlementTx = txID
	}
	status := m.Status
	matchID := m.ID
	m.mu.Unlock()

	if s.persist != nil {
		if perr := s.persist.FinalizeMatch(ctx, matchID, string(status), outcome, root.Hex(), txID); perr != nil {
			log.Printf("[MATCHSERVICE] failed to persist settlement for %s: %v", matchID, perr)
		}
	}
}

const zeroAddress = "0x0000000000000000000000000000000000000000"

// EmergencyDrawAll draws every live match and blocks new creation until
// Resume is called, grounded on the teacher's handleConcede (forces a
// completion) applied process-wide.
func (s *Service) EmergencyDrawAll(ctx context.Context) int {
	s.emergency.Store(true)
	s.mu.RLock()
	var live []*Match
	for _, m := range s.matches {
		m.mu.Lock()
		active := m.Status == StatusActive || m.Status == StatusWaiting
		m.mu.Unlock()
		if active {
			live = append(live, m)
		}
	}
	s.mu.RUnlock()

	for _, m := range live {
		s.finalize(ctx, m, "emergency")
	}
	return len(live)
}

// ResumeFromEmergency clears the emergency flag.
func (s *Service) ResumeFromEmergency() {
	s.emergency.Store(false)
}

// EmergencyActive reports the current flag state.
func (s *Service) EmergencyActive() bool {
	return s.emergency.Load()
}

// CleanupCompletedMatches evicts completed/settled/disputed matches
// whose last activity is older than maxAge from memory (they remain in
// the database per spec §5's resource model).
func (s *Service) CleanupCompletedMatches(maxAge time.Duration) int {
	if maxAge <= 0 {
		maxAge = s.completedEvictionAge
	}
	cutoff := time.Now().Add(-maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for id, m := range s.matches {
		m.mu.Lock()
		done := m.Status == StatusCompleted || m.Status == StatusSettled || m.Status == StatusDisputed
		stale := m.LastActivity.Before(cutoff)
		m.mu.Unlock()
		if done && stale {
			delete(s.matches, id)
			evicted++
		}
	}
	return evicted
}

// CleanupStaleMatches force-terminates any ACTIVE match whose last
// activity predates timeout as a draw, per spec §4.9's stale match
// sweep.
func (s *Service) CleanupStaleMatches(ctx context.Context, timeout time.Duration) int {
	cutoff := time.Now().Add(-timeout)

	s.mu.RLock()
	var stale []*Match
	for _, m := range s.matches {
		m.mu.Lock()
		if m.Status == StatusActive && m.LastActivity.Before(cutoff) {
			stale = append(stale, m)
		}
		m.mu.Unlock()
	}
	s.mu.RUnlock()

	for _, m := range stale {
		s.finalize(ctx, m, "stale_timeout")
	}
	return len(stale)
}

// errorIs reports whether target is err or appears in err's chain of
// single Unwrap() results; joined multi-errors are not searched.
func errorIs(err, target error) bool {
	for err != nil {
		if err == target {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

