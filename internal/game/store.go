package game

import (
	"context"
	"errors"
)

// Record keys in the game KV store. All values are UTF-8 JSON.
const (
	KeyCities      = "global:cities"
	KeyStats       = "global:stats"
	KeyLeaderboard = "global:leaderboard"

	userKeyPrefix = "user:"
)

// ErrKeyNotFound is returned by Store implementations for absent keys.
var ErrKeyNotFound = errors.New("key not found")

// UserKey returns the KV key for a player record.
func UserKey(userID string) string {
	return userKeyPrefix + userID
}

// Store is the key-value persistence boundary for all game state.
// There is no multi-key transaction and no locking; every record is an
// independent get/put. Implementations return an error wrapping
// ErrKeyNotFound for absent keys.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
}
