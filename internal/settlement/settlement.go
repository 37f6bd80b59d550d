// Package settlement implements the two-phase Settlement Coordinator
// of spec §4.8: deposit gating before a staked match goes ACTIVE, and
// outcome attestation once it reaches a terminal state. The deposit
// sweep is grounded on the teacher's idle_worker.go (a ticker scanning
// a Redis sorted set by score, removing due members race-safely via
// ZRem's return count); the outcome-submission retry is grounded on
// sms/dmark.go's attempt-count-with-sleep backoff loop.
package settlement

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// EscrowWatcher abstracts the on-chain deposit observation so the
// coordinator can be tested without a live chain. The concrete
// implementation is chain.EscrowClient.
type EscrowWatcher interface {
	// PollDeposits returns every Deposited event since fromBlock and
	// the block number to resume from on the next call.
	PollDeposits(ctx context.Context, fromBlock uint64) (events []DepositEvent, nextBlock uint64, err error)
}

// DepositEvent mirrors chain.DepositEvent without requiring this
// package to import go-ethereum's ethclient.
type DepositEvent struct {
	MatchID [32]byte
	Player  common.Address
}

// SettlementSubmitter abstracts the outcome-attestation call. The
// concrete implementation is chain.SettlementClient.
type SettlementSubmitter interface {
	SubmitOutcome(ctx context.Context, matchID [32]byte, winner common.Address, isDraw bool, rootHash [32]byte) (txID string, err error)
}

// ErrDepositTimeout names the failure of a staked match whose deposit
// deadline passes before both players deposited. The Coordinator does not
// return it; it reports a timeout by calling OnTimeout with the matchID.
var ErrDepositTimeout = errors.New("settlement: deposit timeout")

// matchGate tracks one staked match's deposit-confirmation state.
type matchGate struct {
	matchID     string
	matchIDHash [32]byte
	players     []string
	confirmed   map[string]bool
	deadline    time.Time
}

func (g *matchGate) allConfirmed() bool {
	for _, p := range g.players {
		if !g.confirmed[p] {
			return false
		}
	}
	return true
}

// Coordinator runs Phase A (deposit gating) and Phase B (outcome
// attestation) for staked matches. It holds no knowledge of game rules;
// callers (Match Service) supply the hooks it invokes on deposit
// confirmation and timeout; SubmitOutcome returns its result directly.
type Coordinator struct {
	watcher   EscrowWatcher
	submitter SettlementSubmitter
	maxAttempts int

	mu    sync.Mutex
	gates map[string]*matchGate

	// OnAllConfirmed is invoked once a match's deposits are all in;
	// the caller transitions the match to ACTIVE.
	OnAllConfirmed func(matchID string)
	// OnDepositConfirmed is invoked once per confirmed player, for the
	// single-player DEPOSITS_CONFIRMED ack.
	OnDepositConfirmed func(matchID, player string)
	// OnTimeout is invoked if the deadline passes with a deposit still
	// missing; the caller cancels the match.
	OnTimeout func(matchID string)
}

// New builds a Coordinator. maxAttempts <= 0 uses a default of 5 (spec's
// "up to ~5 attempts").
func New(watcher EscrowWatcher, submitter SettlementSubmitter, maxAttempts int) *Coordinator {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Coordinator{
		watcher:     watcher,
		submitter:   submitter,
		maxAttempts: maxAttempts,
		gates:       make(map[string]*matchGate),
	}
}

// OpenGate registers a staked match awaiting deposits, starting its
// deposit-timeout clock.
func (c *Coordinator) OpenGate(matchID string, matchIDHash [32]byte, players []string, deadline time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gates[matchID] = &matchGate{
		matchID:     matchID,
		matchIDHash: matchIDHash,
		players:     players,
		confirmed:   make(map[string]bool, len(players)),
		deadline:    deadline,
	}
}

// CloseGate removes a match's deposit gate (the Match Service calls it
// when the match finalizes; a fully confirmed or timed-out gate is
// already dropped by the coordinator itself), so later chain polls
// don't waste work rechecking it.
func (c *Coordinator) CloseGate(matchID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.gates, matchID)
}

// RunDepositSweep polls the Escrow contract for Deposited events and
// advances every open gate, ticking at the given interval until ctx is
// cancelled. fromBlock is the chain height to start scanning from.
func (c *Coordinator) RunDepositSweep(ctx context.Context, interval time.Duration, fromBlock uint64) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	next := fromBlock

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			events, resume, err := c.watcher.PollDeposits(ctx, next)
			if err != nil {
				log.Printf("[SETTLEMENT] deposit poll failed: %v", err)
				continue
			}
			next = resume
			for _, ev := range events {
				c.handleDeposit(ev)
			}
			c.sweepTimeouts(time.Now())
		}
	}
}

func (c *Coordinator) handleDeposit(ev DepositEvent) {
	c.mu.Lock()
	var matched *matchGate
	var playerAddr string
	for _, g := range c.gates {
		if g.matchIDHash == ev.MatchID {
			matched = g
			break
		}
	}
	if matched != nil {
		playerAddr = ev.Player.Hex()
		for _, p := range matched.players {
			if common.HexToAddress(p) == ev.Player {
				matched.confirmed[p] = true
				playerAddr = p
				break
			}
		}
	}
	allDone := matched != nil && matched.allConfirmed()
	matchID := ""
	if matched != nil {
		matchID = matched.matchID
	}
	if allDone {
		delete(c.gates, matchID)
	}
	c.mu.Unlock()

	if matched == nil {
		return
	}
	if c.OnDepositConfirmed != nil {
		c.OnDepositConfirmed(matchID, playerAddr)
	}
	if allDone && c.OnAllConfirmed != nil {
		c.OnAllConfirmed(matchID)
	}
}

func (c *Coordinator) sweepTimeouts(now time.Time) {
	c.mu.Lock()
	var expired []string
	for id, g := range c.gates {
		if now.After(g.deadline) && !g.allConfirmed() {
			expired = append(expired, id)
			delete(c.gates, id)
		}
	}
	c.mu.Unlock()

	for _, id := range expired {
		if c.OnTimeout != nil {
			c.OnTimeout(id)
		}
	}
}

// SubmitOutcome attempts the Phase B attestation with exponential
// backoff, the same attempt-count/sleep shape as sms/dmark.go's
// SendSMS retry loop. It returns the settlement tx id on success, or
// the last error after exhausting maxAttempts.
func (c *Coordinator) SubmitOutcome(ctx context.Context, matchIDHash [32]byte, winner common.Address, isDraw bool, rootHash [32]byte) (string, error) {
	var lastErr error
	backoff := 500 * time.Millisecond
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		txID, err := c.submitter.SubmitOutcome(ctx, matchIDHash, winner, isDraw, rootHash)
		if err == nil {
			return txID, nil
		}
		lastErr = err
		log.Printf("[SETTLEMENT] submitOutcome attempt %d/%d failed: %v", attempt+1, c.maxAttempts, err)
		if attempt < c.maxAttempts-1 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}
	return "", lastErr
}
