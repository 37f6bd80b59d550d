package matchservice

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dorkfun/matchserver/internal/apperr"
	"github.com/dorkfun/matchserver/internal/gamemodule"
	"github.com/dorkfun/matchserver/internal/gamemodule/tictactoe"
	"github.com/dorkfun/matchserver/internal/matchmaking"
	"github.com/dorkfun/matchserver/internal/settlement"
)

func newTestService() *Service {
	reg := gamemodule.NewRegistry()
	reg.Register(tictactoe.New())
	return New(Config{
		Registry: reg,
		Queue:    matchmaking.New(time.Minute),
		Invites:  matchmaking.NewInvites(),
		Pending:  matchmaking.NewPendingMatches(time.Minute),
	})
}

// fakeNotifier records every Notifier call a test exercises, guarded by a
// mutex since the settlement path calls some of these from a goroutine
// (finalize's go s.settleStaked).
type fakeNotifier struct {
	mu               sync.Mutex
	depositRequired  []string
	depositConfirmed []string
	matchActive      []string
	matchOver        []string
	depositTimeout   []string
}

func (f *fakeNotifier) DepositRequired(matchID string, players []string, escrowAddress, stakeWei string, matchIDHash [32]byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.depositRequired = append(f.depositRequired, matchID)
}

func (f *fakeNotifier) DepositConfirmed(matchID, playerID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.depositConfirmed = append(f.depositConfirmed, matchID+":"+playerID)
}

func (f *fakeNotifier) MatchActive(matchID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.matchActive = append(f.matchActive, matchID)
}

func (f *fakeNotifier) MatchOver(matchID string, outcome gamemodule.Outcome) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.matchOver = append(f.matchOver, matchID)
}

func (f *fakeNotifier) DepositTimeout(matchID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.depositTimeout = append(f.depositTimeout, matchID)
}

// fakeStakeSubmitter and noopStakeWatcher mirror settlement_test.go's
// fakeSubmitter/noopWatcher so this package's tests can drive a real
// settlement.Coordinator without a chain RPC.
type fakeStakeSubmitter struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeStakeSubmitter) SubmitOutcome(ctx context.Context, matchID [32]byte, winner common.Address, isDraw bool, rootHash [32]byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return "0xsettled", nil
}

func (f *fakeStakeSubmitter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type noopStakeWatcher struct{}

func (noopStakeWatcher) PollDeposits(ctx context.Context, fromBlock uint64) ([]settlement.DepositEvent, uint64, error) {
	return nil, fromBlock, nil
}

// newTestServiceWithSettlement builds a Service wired to a real
// settlement.Coordinator (fake chain watcher/submitter) and notifier, so
// tests can exercise the staked deposit-gating path end to end.
func newTestServiceWithSettlement(notifier Notifier) (*Service, *settlement.Coordinator, *fakeStakeSubmitter) {
	reg := gamemodule.NewRegistry()
	reg.Register(tictactoe.New())
	sub := &fakeStakeSubmitter{}
	coord := settlement.New(noopStakeWatcher{}, sub, 3)
	s := New(Config{
		Registry:      reg,
		Queue:         matchmaking.New(time.Minute),
		Invites:       matchmaking.NewInvites(),
		Pending:       matchmaking.NewPendingMatches(time.Minute),
		Coordinator:   coord,
		EscrowAddress: "0x00000000000000000000000000000000000eee",
	})
	s.SetNotifier(notifier)
	return s, coord, sub
}

func cellAction(cell int) gamemodule.Action {
	b, _ := json.Marshal(map[string]int{"cell": cell})
	return b
}

func TestJoinQueuePairsTwoUnstakedPlayers(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	r1, err := s.JoinQueue(ctx, "alice", "tictactoe", "0")
	if err != nil {
		t.Fatalf("alice JoinQueue: %v", err)
	}
	if r1.Matched {
		t.Fatal("alice should be queued, not matched, with no opponent yet")
	}

	r2, err := s.JoinQueue(ctx, "bob", "tictactoe", "0")
	if err != nil {
		t.Fatalf("bob JoinQueue: %v", err)
	}
	if !r2.Matched || r2.MatchID == "" {
		t.Fatalf("expected bob to be matched into a new match, got %+v", r2)
	}

	m, ok := s.Get(r2.MatchID)
	if !ok {
		t.Fatal("match should be live immediately for an unstaked pairing")
	}
	if m.Status != StatusActive {
		t.Errorf("expected unstaked match to start ACTIVE, got %s", m.Status)
	}

	// Alice should find the same match via her pending notification.
	r3, err := s.JoinQueue(ctx, "alice", "tictactoe", "0")
	if err != nil {
		t.Fatalf("alice re-join: %v", err)
	}
	if !r3.Matched || r3.MatchID != r2.MatchID {
		t.Fatalf("expected alice's pending notification to resolve to the same match, got %+v", r3)
	}
}

func TestApplyActionRejectsWrongTurnWithMatchErrorTag(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	s.JoinQueue(ctx, "alice", "tictactoe", "0")
	r2, _ := s.JoinQueue(ctx, "bob", "tictactoe", "0")

	_, err := s.ApplyAction(ctx, r2.MatchID, "bob", cellAction(0), 1)
	if err == nil {
		t.Fatal("expected an error since alice moves first")
	}
	ae, ok := apperr.As(err)
	if !ok || ae.Tag != apperr.MatchNotYourTurn {
		t.Errorf("expected tag %s, got %v", apperr.MatchNotYourTurn, err)
	}
}

func TestApplyActionThroughToGameOverSettlesCompleted(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	s.JoinQueue(ctx, "alice", "tictactoe", "0")
	r2, _ := s.JoinQueue(ctx, "bob", "tictactoe", "0")
	matchID := r2.MatchID

	moves := []struct {
		player string
		cell   int
	}{
		{"alice", 0}, {"bob", 3}, {"alice", 1}, {"bob", 4}, {"alice", 2},
	}
	for _, mv := range moves {
		if _, err := s.ApplyAction(ctx, matchID, mv.player, cellAction(mv.cell), 1); err != nil {
			t.Fatalf("ApplyAction(%s, %d): %v", mv.player, mv.cell, err)
		}
	}

	m, _ := s.Get(matchID)
	if m.Status != StatusCompleted {
		t.Errorf("expected unstaked match to reach COMPLETED (no SETTLED call), got %s", m.Status)
	}
}

func TestForfeitEndsMatchAndIsNoOpAfterGameOver(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	s.JoinQueue(ctx, "alice", "tictactoe", "0")
	r2, _ := s.JoinQueue(ctx, "bob", "tictactoe", "0")
	matchID := r2.MatchID

	if err := s.Forfeit(ctx, matchID, "alice"); err != nil {
		t.Fatalf("Forfeit: %v", err)
	}
	m, _ := s.Get(matchID)
	if m.Status != StatusCompleted {
		t.Errorf("expected match to complete on forfeit, got %s", m.Status)
	}

	if err := s.Forfeit(ctx, matchID, "bob"); err != nil {
		t.Errorf("a second forfeit after game over must be a no-op, not an error: %v", err)
	}
}

func TestEmergencyDrawAllEndsLiveMatchesAndBlocksNewOnes(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	s.JoinQueue(ctx, "alice", "tictactoe", "0")
	r2, _ := s.JoinQueue(ctx, "bob", "tictactoe", "0")

	n := s.EmergencyDrawAll(ctx)
	if n != 1 {
		t.Errorf("expected 1 live match drawn, got %d", n)
	}
	m, _ := s.Get(r2.MatchID)
	if m.Status != StatusCompleted {
		t.Errorf("expected match to complete during emergency draw, got %s", m.Status)
	}

	if _, err := s.JoinQueue(ctx, "carol", "tictactoe", "0"); err == nil {
		t.Error("expected joinQueue to be rejected during emergency mode")
	}

	s.ResumeFromEmergency()
	if _, err := s.JoinQueue(ctx, "carol", "tictactoe", "0"); err != nil {
		t.Errorf("expected joinQueue to succeed again after resume: %v", err)
	}
}

func TestAcceptPrivateMatchCannotBeConsumedTwice(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	code, err := s.CreatePrivateMatch("tictactoe", "0", "alice")
	if err != nil {
		t.Fatalf("CreatePrivateMatch: %v", err)
	}

	matchID, err := s.AcceptPrivateMatch(ctx, code, "bob")
	if err != nil || matchID == "" {
		t.Fatalf("AcceptPrivateMatch: %v", err)
	}

	if _, err := s.AcceptPrivateMatch(ctx, code, "carol"); err == nil {
		t.Error("expected a consumed invite code to be rejected on a second accept")
	}
}

// TestStakedJoinQueueOpensDepositGateAndNotifies covers spec §8 scenario 1's
// staked variant: Phase A's DEPOSIT_REQUIRED -> per-player DEPOSITS_CONFIRMED
// ack -> all-confirmed ACTIVE transition.
func TestStakedJoinQueueOpensDepositGateAndNotifies(t *testing.T) {
	notifier := &fakeNotifier{}
	s, coord, _ := newTestServiceWithSettlement(notifier)
	ctx := context.Background()

	s.JoinQueue(ctx, "alice", "tictactoe", "1000")
	r2, err := s.JoinQueue(ctx, "bob", "tictactoe", "1000")
	if err != nil {
		t.Fatalf("bob JoinQueue: %v", err)
	}
	matchID := r2.MatchID

	m, ok := s.Get(matchID)
	if !ok {
		t.Fatal("staked match should be created immediately, gated rather than absent")
	}
	if m.Status != StatusWaiting {
		t.Errorf("expected staked match to start WAITING, got %s", m.Status)
	}

	notifier.mu.Lock()
	depositRequired := len(notifier.depositRequired)
	notifier.mu.Unlock()
	if depositRequired != 1 {
		t.Errorf("expected exactly one DepositRequired notification, got %d", depositRequired)
	}

	// Simulate the chain observer confirming each player's deposit in turn,
	// the same callback path settlement.Coordinator.handleDeposit drives.
	coord.OnDepositConfirmed(matchID, "alice")
	coord.OnDepositConfirmed(matchID, "bob")
	coord.OnAllConfirmed(matchID)

	m, _ = s.Get(matchID)
	m.mu.Lock()
	status := m.Status
	confirmed := m.DepositConfirmed["alice"] && m.DepositConfirmed["bob"]
	m.mu.Unlock()
	if status != StatusActive {
		t.Errorf("expected match to go ACTIVE once all deposits confirmed, got %s", status)
	}
	if !confirmed {
		t.Error("expected both players marked deposit-confirmed")
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.depositConfirmed) != 2 {
		t.Errorf("expected 2 DepositConfirmed acks, got %d", len(notifier.depositConfirmed))
	}
	if len(notifier.matchActive) != 1 {
		t.Errorf("expected exactly 1 MatchActive notification, got %d", len(notifier.matchActive))
	}
}

// TestStakedMatchDepositTimeoutCancelsWithoutSettlement covers spec §8
// scenario 2: a deposit deadline passing before both players deposit drops
// the match rather than completing or settling it.
func TestStakedMatchDepositTimeoutCancelsWithoutSettlement(t *testing.T) {
	notifier := &fakeNotifier{}
	s, coord, sub := newTestServiceWithSettlement(notifier)
	ctx := context.Background()

	s.JoinQueue(ctx, "alice", "tictactoe", "1000")
	r2, _ := s.JoinQueue(ctx, "bob", "tictactoe", "1000")
	matchID := r2.MatchID

	coord.OnTimeout(matchID)

	if _, ok := s.Get(matchID); ok {
		t.Fatal("expected a deposit-timed-out match to be dropped, not left around as COMPLETED")
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.depositTimeout) != 1 || notifier.depositTimeout[0] != matchID {
		t.Errorf("expected exactly one DepositTimeout notification for %s, got %v", matchID, notifier.depositTimeout)
	}
	if len(notifier.matchOver) != 0 {
		t.Error("a deposit-timed-out match never reaches COMPLETED, so MatchOver must not fire")
	}
	if sub.callCount() != 0 {
		t.Error("a deposit-timed-out match must never reach settlement")
	}
}

// TestEmergencyDrawAllSettlesStakedMatches covers the staked leg of spec §8
// scenario 6: an emergency draw on a live staked match still submits an
// on-chain settlement, asynchronously via finalize's settleStaked goroutine.
func TestEmergencyDrawAllSettlesStakedMatches(t *testing.T) {
	notifier := &fakeNotifier{}
	s, _, sub := newTestServiceWithSettlement(notifier)
	ctx := context.Background()

	s.JoinQueue(ctx, "alice", "tictactoe", "1000")
	r2, _ := s.JoinQueue(ctx, "bob", "tictactoe", "1000")
	matchID := r2.MatchID

	// Jump straight to ACTIVE, the same transition onDepositsConfirmed
	// performs once both deposits land.
	m, _ := s.Get(matchID)
	m.mu.Lock()
	m.Status = StatusActive
	m.mu.Unlock()

	if n := s.EmergencyDrawAll(ctx); n != 1 {
		t.Fatalf("expected 1 live match drawn, got %d", n)
	}

	deadline := time.Now().Add(time.Second)
	var status Status
	for time.Now().Before(deadline) {
		m, _ = s.Get(matchID)
		m.mu.Lock()
		status = m.Status
		m.mu.Unlock()
		if status == StatusSettled {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if status != StatusSettled {
		t.Fatalf("expected staked emergency draw to settle asynchronously, got %s", status)
	}
	if sub.callCount() != 1 {
		t.Errorf("expected exactly one settlement submission, got %d", sub.callCount())
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.matchOver) != 1 {
		t.Errorf("expected exactly one MatchOver notification, got %d", len(notifier.matchOver))
	}
}
