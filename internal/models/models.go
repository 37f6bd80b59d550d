// Package models holds the row types persisted to Postgres: the five
// logical tables of spec §3's persistence mapping (players, per-game
// stats, matches, match_moves, chat_messages). Generalizes the
// teacher's models.go (Player/Transaction/GameSession/EscrowLedger)
// field-by-field: phone+PIN identity becomes an EVM address, momo
// ledgers become the on-chain settlement tx id, GameMove's
// CardPlayed/SuitDeclared becomes an opaque action/stateHash pair
// since the Game-Module interface, not the row schema, owns move shape.
package models

import (
	"encoding/json"
	"time"
)

// Player is one EVM address that has ever authenticated.
type Player struct {
	ID          string    `db:"id" json:"id"` // lowercased 0x address
	DisplayName string    `db:"display_name" json:"displayName,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	LastSeenAt  time.Time `db:"last_seen_at" json:"lastSeenAt"`
}

// PlayerGameStats is one player's cumulative record and Elo rating for
// one gameId.
type PlayerGameStats struct {
	PlayerID string `db:"player_id" json:"playerId"`
	GameID   string `db:"game_id" json:"gameId"`
	Rating   int    `db:"rating" json:"rating"`
	Wins     int    `db:"wins" json:"wins"`
	Losses   int    `db:"losses" json:"losses"`
	Draws    int    `db:"draws" json:"draws"`

	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Match is one match's persisted record, written on finalize and read
// back for /api/matches/:id and /api/archive.
type Match struct {
	ID      string `db:"id" json:"id"`
	GameID  string `db:"game_id" json:"gameId"`
	Stake   string `db:"stake" json:"stake"`
	Players []byte `db:"players" json:"-"` // JSON array of player addresses

	Status       string `db:"status" json:"status"`
	Winner       string `db:"winner" json:"winner,omitempty"`
	Draw         bool   `db:"draw" json:"draw"`
	Reason       string `db:"reason" json:"reason,omitempty"`
	RootHash     string `db:"root_hash" json:"rootHash,omitempty"`
	SettlementTx string `db:"settlement_tx" json:"settlementTx,omitempty"`

	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	CompletedAt *time.Time `db:"completed_at" json:"completedAt,omitempty"`
}

// PlayersList decodes the Players JSON column.
func (m Match) PlayersList() []string {
	var out []string
	json.Unmarshal(m.Players, &out)
	return out
}

// MarshalJSON surfaces the decoded player list under "players" in place
// of the raw, db-only Players column (tagged json:"-" above) so archive
// and detail responses carry the same shape as a live match's Summary.
func (m Match) MarshalJSON() ([]byte, error) {
	type alias Match
	return json.Marshal(struct {
		alias
		Players []string `json:"players"`
	}{alias: alias(m), Players: m.PlayersList()})
}

// MatchMove is one row per transcript entry (spec §3: "match_moves —
// one row per transcript entry: match_id, sequence, ...").
type MatchMove struct {
	MatchID       string    `db:"match_id" json:"matchId"`
	Sequence      int       `db:"sequence" json:"sequence"`
	PlayerAddress string    `db:"player_address" json:"playerAddress"`
	Action        []byte    `db:"action" json:"action"`
	StateHash     string    `db:"state_hash" json:"stateHash"`
	PrevHash      string    `db:"prev_hash" json:"prevHash"`
	TimestampMs   int64     `db:"timestamp_ms" json:"timestampMs"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}

// ChatMessage is one chat_messages row, as written by store.RecordChat
// (which no code path calls; live chat stays in the ws package's
// in-memory log). Unlike MatchMove, it carries no hash-chain linkage —
// it is outside the cryptographic transcript.
type ChatMessage struct {
	ID        int64     `db:"id" json:"id"`
	MatchID   string    `db:"match_id" json:"matchId"`
	PlayerID  string    `db:"player_id" json:"playerId"`
	Text      string    `db:"text" json:"text"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
