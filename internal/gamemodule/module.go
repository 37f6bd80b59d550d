// Package gamemodule defines the pluggable, deterministic rule-engine
// contract every registered game must satisfy (spec §4.1), plus the
// process-wide Registry that the Match Orchestrator looks games up by
// gameId from.
package gamemodule

import "encoding/json"

// State, Action and Observation are opaque, module-owned JSON blobs.
// Neither the registry nor the orchestrator interprets their
// contents; only the owning Module does. Keeping them opaque is what
// lets one registry and one orchestrator host arbitrarily different
// games without a type switch anywhere in the core.
type State json.RawMessage
type Action json.RawMessage
type Observation json.RawMessage

// InitConfig carries the free-form settings a match was created with.
type InitConfig struct {
	GameID  string          `json:"gameId"`
	Version string          `json:"version"`
	Options json.RawMessage `json:"options,omitempty"`
}

// Outcome is returned by GetOutcome once IsTerminal(state) is true.
type Outcome struct {
	Winner string             `json:"winner,omitempty"`
	Draw   bool               `json:"draw"`
	Scores map[string]float64 `json:"scores,omitempty"`
	Reason string             `json:"reason"`
}

// Metadata describes a module for catalog listings and the Edge API's
// /api/games endpoint.
type Metadata struct {
	GameID           string `json:"gameId"`
	DisplayName      string `json:"displayName"`
	Description      string `json:"description"`
	MinPlayers       int    `json:"minPlayers"`
	MaxPlayers       int    `json:"maxPlayers"`
	// MoveTimeoutMs overrides the server default move timeout when
	// positive. A value of -1 means "disabled" (no per-move timeout).
	// Zero means "absent" (use the server default).
	MoveTimeoutMs int `json:"moveTimeoutMs,omitempty"`
}

// MoveTimeoutDisabled is the sentinel Metadata.MoveTimeoutMs value
// meaning "no per-move timeout for this game".
const MoveTimeoutDisabled = -1

// Module is the seven-operation capability set every registered game
// implements. Implementations must be pure and deterministic: equal
// inputs to Init/ApplyAction must produce byte-identical State, since
// State is hashed into the transcript.
type Module interface {
	Metadata() Metadata

	// Init builds the initial state for an ordered player list and an
	// RNG seed. Identical inputs must yield identical output bytes.
	Init(cfg InitConfig, players []string, seed string) (State, error)

	// ValidateAction reports whether action is playable right now by
	// playerID. It must never panic on malformed input — return false.
	ValidateAction(state State, playerID string, action Action) bool

	// ApplyAction returns the next state. It must not mutate state.
	// rng is the match's seeded RNG, passed on every call; modules that
	// consume no randomness during play ignore it.
	ApplyAction(state State, playerID string, action Action, rng *Rand) (State, error)

	IsTerminal(state State) bool

	GetOutcome(state State) Outcome

	// GetObservation returns the view of state visible to playerID
	// (public fields plus any fields private to that player).
	GetObservation(state State, playerID string) Observation

	// GetLegalActions returns the finite set of actions playerID may
	// take right now; empty if it is not their turn.
	GetLegalActions(state State, playerID string) []Action
}
