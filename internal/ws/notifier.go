package ws

import (
	"encoding/hex"
	"encoding/json"

	"github.com/dorkfun/matchserver/internal/apperr"
	"github.com/dorkfun/matchserver/internal/gamemodule"
)

// The methods in this file satisfy matchservice.Notifier: Server is
// the only place in the tree allowed to build a Frame, so every
// domain event the Match Service reports lands here as one.

type depositRequiredPayload struct {
	EscrowAddress string `json:"escrowAddress"`
	StakeWei      string `json:"stakeWei"`
	MatchIDBytes  string `json:"matchIdBytes32"`
}

// DepositRequired broadcasts spec §4.8 Phase A's opening frame to
// every player attached to the match.
func (s *Server) DepositRequired(matchID string, players []string, escrowAddress, stakeWei string, matchIDHash [32]byte) {
	s.rooms.Broadcast(matchID, Frame{
		Type:    TypeDepositRequired,
		MatchID: matchID,
		Payload: marshalPayload(depositRequiredPayload{
			EscrowAddress: escrowAddress,
			StakeWei:      stakeWei,
			MatchIDBytes:  "0x" + hex.EncodeToString(matchIDHash[:]),
		}),
		Timestamp: nowMs(),
	})
}

// DepositConfirmed is a single-player ack, not a broadcast: only the
// depositing player's session is told their deposit landed.
func (s *Server) DepositConfirmed(matchID, playerID string) {
	s.rooms.SendToPlayer(matchID, playerID, Frame{
		Type:      TypeDepositsConfirmed,
		MatchID:   matchID,
		Timestamp: nowMs(),
	})
}

// MatchActive announces the WAITING -> ACTIVE transition once both
// deposits are confirmed, as a GAME_STATE carrying each player's
// observation (mirroring sendGameState's shape on attach).
func (s *Server) MatchActive(matchID string) {
	m, ok := s.matches.Get(matchID)
	if !ok {
		return
	}
	for _, p := range m.Players {
		var obs []byte
		if m.Orchestrator != nil {
			obs = m.Orchestrator.ObservationFor(p)
		}
		s.rooms.SendToPlayer(matchID, p, Frame{
			Type:      TypeGameState,
			MatchID:   matchID,
			Payload:   marshalPayload(map[string]interface{}{"observation": json.RawMessage(rawOrNull(obs)), "status": m.Status}),
			Timestamp: nowMs(),
		})
	}
}

// MatchOver announces a match end that broadcastStepResult never saw
// (forfeit, emergency draw, stale-match timeout): sequence/prevHash
// come off the transcript's current head rather than a specific move.
func (s *Server) MatchOver(matchID string, outcome gamemodule.Outcome) {
	m, ok := s.matches.Get(matchID)
	if !ok {
		return
	}
	sequence, prevHash := 0, ""
	if m.Orchestrator != nil && m.Orchestrator.Transcript != nil {
		sequence = len(m.Orchestrator.Transcript.Entries)
		prevHash = m.Orchestrator.Transcript.Root().Hex()
	}
	s.broadcastGameOver(matchID, outcome, sequence, prevHash)
}

// DepositTimeout announces that a staked match's deposit deadline
// passed before both players deposited; the match was dropped, never
// settled.
func (s *Server) DepositTimeout(matchID string) {
	s.rooms.Broadcast(matchID, Frame{
		Type:      TypeError,
		MatchID:   matchID,
		Payload:   marshalPayload(map[string]string{"code": string(apperr.DepositTimeout)}),
		Timestamp: nowMs(),
	})
}

func rawOrNull(b []byte) []byte {
	if b == nil {
		return []byte("null")
	}
	return b
}
