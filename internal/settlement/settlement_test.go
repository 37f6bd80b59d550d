package settlement

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type fakeSubmitter struct {
	failTimes int
	calls     int
}

func (f *fakeSubmitter) SubmitOutcome(ctx context.Context, matchID [32]byte, winner common.Address, isDraw bool, rootHash [32]byte) (string, error) {
	f.calls++
	if f.calls <= f.failTimes {
		return "", errors.New("rpc unavailable")
	}
	return "0xdeadbeef", nil
}

type noopWatcher struct{}

func (noopWatcher) PollDeposits(ctx context.Context, fromBlock uint64) ([]DepositEvent, uint64, error) {
	return nil, fromBlock, nil
}

func TestSubmitOutcomeRetriesUntilSuccess(t *testing.T) {
	sub := &fakeSubmitter{failTimes: 2}
	c := New(noopWatcher{}, sub, 5)

	txID, err := c.SubmitOutcome(context.Background(), [32]byte{1}, common.Address{}, false, [32]byte{2})
	if err != nil {
		t.Fatalf("expected eventual success, got: %v", err)
	}
	if txID != "0xdeadbeef" {
		t.Errorf("unexpected tx id: %q", txID)
	}
	if sub.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", sub.calls)
	}
}

func TestSubmitOutcomeFailsAfterMaxAttempts(t *testing.T) {
	sub := &fakeSubmitter{failTimes: 100}
	c := New(noopWatcher{}, sub, 3)

	_, err := c.SubmitOutcome(context.Background(), [32]byte{1}, common.Address{}, false, [32]byte{2})
	if err == nil {
		t.Fatal("expected failure after exhausting retries")
	}
	if sub.calls != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", sub.calls)
	}
}

func TestHandleDepositTracksBothPlayersBeforeConfirming(t *testing.T) {
	alice := "0x0000000000000000000000000000000000000001"
	bob := "0x0000000000000000000000000000000000000002"
	hash := [32]byte{9}

	var allConfirmed bool
	var confirmedCalls []string
	c := New(noopWatcher{}, &fakeSubmitter{}, 0)
	c.OnAllConfirmed = func(matchID string) { allConfirmed = true }
	c.OnDepositConfirmed = func(matchID, player string) { confirmedCalls = append(confirmedCalls, player) }

	c.OpenGate("match-1", hash, []string{alice, bob}, time.Now().Add(time.Hour))

	c.handleDeposit(DepositEvent{MatchID: hash, Player: common.HexToAddress(alice)})
	if allConfirmed {
		t.Fatal("should not confirm until both players have deposited")
	}

	c.handleDeposit(DepositEvent{MatchID: hash, Player: common.HexToAddress(bob)})
	if !allConfirmed {
		t.Fatal("expected OnAllConfirmed after both deposits")
	}
	if len(confirmedCalls) != 2 {
		t.Errorf("expected 2 per-player confirmations, got %d", len(confirmedCalls))
	}
}

func TestSweepTimeoutsFiresOnlyForExpiredIncompleteGates(t *testing.T) {
	hash := [32]byte{7}
	var timedOut []string
	c := New(noopWatcher{}, &fakeSubmitter{}, 0)
	c.OnTimeout = func(matchID string) { timedOut = append(timedOut, matchID) }

	c.OpenGate("stale", hash, []string{"0xaa"}, time.Now().Add(-time.Second))
	c.OpenGate("fresh", [32]byte{8}, []string{"0xbb"}, time.Now().Add(time.Hour))

	c.sweepTimeouts(time.Now())

	if len(timedOut) != 1 || timedOut[0] != "stale" {
		t.Errorf("expected only the stale gate to time out, got %v", timedOut)
	}
}
