// Package activeindex is the Active-Match Index of spec §4.7: a
// redis-backed playerId -> {matchId, gameId, stake} record with a 1h
// TTL, grounded on the teacher's GameManager.saveGameToRedis /
// loadGameFromRedis pair (internal/game/manager.go) which uses the
// same SetEx/Get/Del shape to persist a *GameState under a string key.
package activeindex

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "active_match:"

// Entry is what a reconnecting client needs to recover a live game
// without remembering the matchId.
type Entry struct {
	MatchID string `json:"matchId"`
	GameID  string `json:"gameId"`
	Stake   string `json:"stake"`
}

// Index wraps a Redis client with the Active-Match Index operations.
type Index struct {
	rdb *redis.Client
	ttl time.Duration
}

// New wraps rdb. ttl <= 0 defaults to 1 hour, per the spec's documented
// default.
func New(rdb *redis.Client, ttl time.Duration) *Index {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Index{rdb: rdb, ttl: ttl}
}

func key(playerID string) string {
	return keyPrefix + playerID
}

// Set records playerID's live match, called for both players at the
// moment a match transitions to ACTIVE.
func (x *Index) Set(ctx context.Context, playerID string, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return x.rdb.Set(ctx, key(playerID), data, x.ttl).Err()
}

// Get looks up playerID's recorded live match, if any. A missing key
// is reported as ok == false with no error — the caller (checkActiveMatch)
// treats that as "no active match", not a failure.
func (x *Index) Get(ctx context.Context, playerID string) (Entry, bool, error) {
	data, err := x.rdb.Get(ctx, key(playerID)).Result()
	if err == redis.Nil {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	var e Entry
	if err := json.Unmarshal([]byte(data), &e); err != nil {
		return Entry{}, false, err
	}
	return e, true, nil
}

// Clear removes playerID's index entry — called on COMPLETED, or when
// a reconnecting client's index points at a match the Match Service no
// longer has live (spec's explicit cross-check requirement).
func (x *Index) Clear(ctx context.Context, playerID string) error {
	return x.rdb.Del(ctx, key(playerID)).Err()
}
