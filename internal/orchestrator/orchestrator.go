// Package orchestrator wraps one gamemodule.Module and one
// transcript.Builder per match, generalizing the teacher's per-GameState
// CurrentTurn/Status fields (internal/game/pool_state.go,
// internal/game/manager.go's GameState) into the spec's submitAction
// state machine.
package orchestrator

import (
	"errors"
	"fmt"

	"github.com/dorkfun/matchserver/internal/gamemodule"
	"github.com/dorkfun/matchserver/internal/transcript"
)

// Typed sentinels so the Edge API and Session Transport can map a
// rejected action onto the match_* apperr tags of spec §7 — a bare
// errors.New (the teacher's style in manager.go) can't drive that
// mapping.
var (
	ErrAlreadyOver   = errors.New("orchestrator: match already over")
	ErrNotYourTurn   = errors.New("orchestrator: not your turn")
	ErrInvalidAction = errors.New("orchestrator: invalid action")
)

// Orchestrator drives a single match: one module instance, one
// transcript, one current state.
type Orchestrator struct {
	MatchID string
	Module  gamemodule.Module
	State   gamemodule.State
	Rand    *gamemodule.Rand

	Transcript *transcript.Builder
}

// New initializes a match's state via Module.Init and seeds a fresh
// transcript from it.
func New(matchID string, module gamemodule.Module, players []string, seed string, cfg gamemodule.InitConfig) (*Orchestrator, error) {
	state, err := module.Init(cfg, players, seed)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: init: %w", err)
	}
	tb, err := transcript.NewBuilder(matchID, cfg.GameID, state)
	if err != nil {
		return nil, err
	}
	seedInt := fnv1a(seed)
	return &Orchestrator{
		MatchID:    matchID,
		Module:     module,
		State:      state,
		Rand:       gamemodule.NewRand(seedInt),
		Transcript: tb,
	}, nil
}

// SubmitAction validates and applies a player's action, appending it to
// the transcript on success. It never mutates State in place on
// failure — the caller's view of the match is unaffected by a rejected
// action.
func (o *Orchestrator) SubmitAction(playerAddress string, action gamemodule.Action, timestampMs int64) (transcript.Entry, error) {
	if o.Module.IsTerminal(o.State) {
		return transcript.Entry{}, ErrAlreadyOver
	}
	if !o.Module.ValidateAction(o.State, playerAddress, action) {
		legal := o.Module.GetLegalActions(o.State, playerAddress)
		if len(legal) == 0 {
			// No legal action exists for this player right now — most
			// likely it isn't their turn.
			return transcript.Entry{}, ErrNotYourTurn
		}
		return transcript.Entry{}, ErrInvalidAction
	}

	newState, err := o.Module.ApplyAction(o.State, playerAddress, action, o.Rand)
	if err != nil {
		return transcript.Entry{}, fmt.Errorf("%w: %v", ErrInvalidAction, err)
	}

	entry, err := o.Transcript.AddEntry(playerAddress, action, newState, timestampMs)
	if err != nil {
		return transcript.Entry{}, fmt.Errorf("orchestrator: %w", err)
	}

	o.State = newState
	return entry, nil
}

// IsTerminal reports whether the match has reached a terminal state.
func (o *Orchestrator) IsTerminal() bool {
	return o.Module.IsTerminal(o.State)
}

// Outcome returns the module's terminal outcome; callers should check
// IsTerminal first.
func (o *Orchestrator) Outcome() gamemodule.Outcome {
	return o.Module.GetOutcome(o.State)
}

// ObservationFor returns playerID's view of the current state.
func (o *Orchestrator) ObservationFor(playerID string) gamemodule.Observation {
	return o.Module.GetObservation(o.State, playerID)
}

// fnv1a derives a deterministic int64 seed from a string seed, the same
// scheme internal/gamemodule/matatu uses for its own deck shuffle so a
// replay with the same seed always draws the same sequence.
func fnv1a(s string) int64 {
	var h uint64 = 14695981039346656037
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= 1099511628211
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return v
}
