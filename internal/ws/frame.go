// Package ws is the Session Transport of spec §4.5: a gorilla/websocket
// upgrade per match, generalizing the teacher's Client/Hub/readPump/
// writePump (formerly internal/ws/handler.go, pool_handler.go) from a
// single global hub keyed by playerID into per-match room.Manager
// sessions speaking the spec's framed wire protocol instead of the
// teacher's bare {type, data} envelope.
package ws

import "encoding/json"

// Frame is the wire envelope every message, in either direction, is
// carried in.
type Frame struct {
	Type      string          `json:"type"`
	MatchID   string          `json:"matchId,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Sequence  int             `json:"sequence"`
	PrevHash  string          `json:"prevHash,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// Frame types, per spec §6's wire protocol list.
const (
	TypeHello              = "HELLO"
	TypeActionCommit       = "ACTION_COMMIT"
	TypeActionReveal       = "ACTION_REVEAL"
	TypeStepResult         = "STEP_RESULT"
	TypeGameState          = "GAME_STATE"
	TypeGameOver           = "GAME_OVER"
	TypeSpectateJoin       = "SPECTATE_JOIN"
	TypeSpectateState      = "SPECTATE_STATE"
	TypeChat               = "CHAT"
	TypeChatHistory        = "CHAT_HISTORY"
	TypeSyncRequest        = "SYNC_REQUEST"
	TypeSyncResponse       = "SYNC_RESPONSE"
	TypeDepositRequired    = "DEPOSIT_REQUIRED"
	TypeDepositsConfirmed  = "DEPOSITS_CONFIRMED"
	TypeForfeit            = "FORFEIT"
	TypeError              = "ERROR"
)

func marshalPayload(v interface{}) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return b
}
