// Package transcript builds the hash-chained move log committed to
// settlement at the end of a match. It is built fresh (the teacher has
// no equivalent — its game_moves rows aren't hash-chained) on top of
// internal/canonical's encoding and go-ethereum's Keccak256, the same
// hash primitive other_examples/.../matcher.go uses for its own
// commitments.
package transcript

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dorkfun/matchserver/internal/canonical"
	"github.com/dorkfun/matchserver/internal/gamemodule"
)

// Entry is one applied move in a match's history.
type Entry struct {
	Sequence      int                `json:"sequence"`
	PlayerAddress string             `json:"playerAddress"`
	Action        gamemodule.Action  `json:"action"`
	StateHash     common.Hash        `json:"stateHash"`
	PrevHash      common.Hash        `json:"prevHash"`
	TimestampMs   int64              `json:"timestampMs"`
}

// Builder accumulates a match's transcript. Not safe for concurrent use;
// callers serialize access the way the orchestrator serializes
// submitAction on its own per-match lock.
type Builder struct {
	MatchID     string
	GameID      string
	Entries     []Entry
	CurrentHash common.Hash
}

// NewBuilder seeds the chain with hashState(initialState), per spec
// §4.2's "currentHash initialized to hashState(initialState)".
func NewBuilder(matchID, gameID string, initialState gamemodule.State) (*Builder, error) {
	h, err := canonical.HashState(initialState)
	if err != nil {
		return nil, fmt.Errorf("transcript: hash initial state: %w", err)
	}
	return &Builder{MatchID: matchID, GameID: gameID, CurrentHash: h}, nil
}

// AddEntry implements the three-step algorithm of spec §4.2:
//  1. stateHash = hashState(newState)
//  2. build the entry, with prevHash set to the chain's current head
//  3. currentHash = chainHash(prevHash, entry); append
func (b *Builder) AddEntry(playerAddress string, action gamemodule.Action, newState gamemodule.State, timestampMs int64) (Entry, error) {
	stateHash, err := canonical.HashState(newState)
	if err != nil {
		return Entry{}, fmt.Errorf("transcript: hash new state: %w", err)
	}

	entry := Entry{
		Sequence:      len(b.Entries),
		PlayerAddress: playerAddress,
		Action:        action,
		StateHash:     stateHash,
		PrevHash:      b.CurrentHash,
		TimestampMs:   timestampMs,
	}

	next, err := canonical.ChainHash(entry.PrevHash, entry)
	if err != nil {
		return Entry{}, fmt.Errorf("transcript: chain hash: %w", err)
	}

	b.CurrentHash = next
	b.Entries = append(b.Entries, entry)
	return entry, nil
}

// Root returns the commitment hash for settlement: the chain head after
// the last applied entry (or the initial-state hash if none have been
// applied yet).
func (b *Builder) Root() common.Hash {
	return b.CurrentHash
}

// Verify replays every entry against its recorded prevHash/chainHash
// to confirm the chain hasn't been tampered with. entries[0].PrevHash
// must equal initialHash.
func Verify(initialHash common.Hash, entries []Entry) error {
	prev := initialHash
	for i, e := range entries {
		if e.Sequence != i {
			return fmt.Errorf("transcript: entry %d has out-of-order sequence %d", i, e.Sequence)
		}
		if e.PrevHash != prev {
			return fmt.Errorf("transcript: entry %d prevHash mismatch", i)
		}
		next, err := canonical.ChainHash(e.PrevHash, e)
		if err != nil {
			return fmt.Errorf("transcript: entry %d: %w", i, err)
		}
		prev = next
	}
	return nil
}
