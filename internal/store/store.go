// Package store persists finalized matches, their move transcripts,
// chat lines, and per-game player stats, and serves the archive and
// leaderboard reads. Grounded directly on the teacher's GameManager
// (internal/game/manager.go), which talks to Postgres with raw
// sqlx.DB.Exec/Queryx/Get calls rather than an ORM — kept exactly that
// way here.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/dorkfun/matchserver/internal/gamemodule"
	"github.com/dorkfun/matchserver/internal/models"
	"github.com/dorkfun/matchserver/internal/transcript"
)

type Store struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// UpsertPlayer records an address's first/most-recent authentication.
func (s *Store) UpsertPlayer(ctx context.Context, playerID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO players (id, created_at, last_seen_at)
		VALUES ($1, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET last_seen_at = NOW()`, playerID)
	return err
}

// CreateMatch inserts a match's initial row when it goes live.
func (s *Store) CreateMatch(ctx context.Context, matchID, gameID, stake string, players []string) error {
	playersJSON, err := json.Marshal(players)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO matches (id, game_id, stake, players, status, created_at)
		VALUES ($1, $2, $3, $4, 'ACTIVE', NOW())`, matchID, gameID, stake, playersJSON)
	return err
}

// RecordMove appends one transcript entry's persisted row.
func (s *Store) RecordMove(ctx context.Context, matchID string, entry transcript.Entry) error {
	action, err := json.Marshal(entry.Action)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO match_moves (match_id, sequence, player_address, action, state_hash, prev_hash, timestamp_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())`,
		matchID, entry.Sequence, entry.PlayerAddress, action, entry.StateHash.Hex(), entry.PrevHash.Hex(), entry.TimestampMs)
	return err
}

// RecordChat appends one chat line for the archive.
func (s *Store) RecordChat(ctx context.Context, matchID, playerID, text string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_messages (match_id, player_id, text, created_at)
		VALUES ($1, $2, $3, NOW())`, matchID, playerID, text)
	return err
}

// FinalizeMatch marks a match terminal and records its outcome, root
// hash and settlement tx on the matches row. It does not touch
// player_game_stats; BumpStats does that.
func (s *Store) FinalizeMatch(ctx context.Context, matchID, status string, outcome gamemodule.Outcome, rootHash, settlementTx string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE matches
		SET status = $1, winner = $2, draw = $3, reason = $4, root_hash = $5, settlement_tx = $6, completed_at = NOW()
		WHERE id = $7`,
		status, outcome.Winner, outcome.Draw, outcome.Reason, rootHash, settlementTx, matchID)
	return err
}

// BumpStats updates one player's (gameId) record after a finalize.
func (s *Store) BumpStats(ctx context.Context, playerID, gameID string, newRating, winDelta, lossDelta, drawDelta int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO player_game_stats (player_id, game_id, rating, wins, losses, draws, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (player_id, game_id) DO UPDATE SET
			rating = $3,
			wins = player_game_stats.wins + $4,
			losses = player_game_stats.losses + $5,
			draws = player_game_stats.draws + $6,
			updated_at = NOW()`,
		playerID, gameID, newRating, winDelta, lossDelta, drawDelta)
	return err
}

// Rating reads a player's current rating for a game, defaulting to the
// Elo starting rating if they have no record yet.
func (s *Store) Rating(ctx context.Context, playerID, gameID string) (int, error) {
	var rating int
	err := s.db.GetContext(ctx, &rating, `SELECT rating FROM player_game_stats WHERE player_id = $1 AND game_id = $2`, playerID, gameID)
	if err != nil {
		return 1000, nil
	}
	return rating, nil
}

// GetMatch reads one archived match by id.
func (s *Store) GetMatch(ctx context.Context, matchID string) (models.Match, error) {
	var m models.Match
	err := s.db.GetContext(ctx, &m, `SELECT * FROM matches WHERE id = $1`, matchID)
	if err != nil {
		return models.Match{}, fmt.Errorf("store: match not found: %w", err)
	}
	return m, nil
}

// Archive lists completed matches for a game, newest first.
func (s *Store) Archive(ctx context.Context, gameID string, limit, offset int) ([]models.Match, error) {
	var rows []models.Match
	query := `SELECT * FROM matches WHERE status != 'ACTIVE' AND status != 'WAITING'`
	args := []interface{}{}
	if gameID != "" {
		query += ` AND game_id = $1`
		args = append(args, gameID)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, limit, offset)
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

// Leaderboard lists the top-rated players for a gameId.
func (s *Store) Leaderboard(ctx context.Context, gameID string, limit, offset int) ([]models.PlayerGameStats, error) {
	var rows []models.PlayerGameStats
	err := s.db.SelectContext(ctx, &rows, `
		SELECT * FROM player_game_stats WHERE game_id = $1
		ORDER BY rating DESC LIMIT $2 OFFSET $3`, gameID, limit, offset)
	return rows, err
}

// ReplayMoves loads an archived match's move rows in order, used to
// rebuild an observation for an archived (non-live) match.
func (s *Store) ReplayMoves(ctx context.Context, matchID string) ([]models.MatchMove, error) {
	var rows []models.MatchMove
	err := s.db.SelectContext(ctx, &rows, `
		SELECT * FROM match_moves WHERE match_id = $1 ORDER BY sequence ASC`, matchID)
	return rows, err
}
