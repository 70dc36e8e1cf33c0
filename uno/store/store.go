// Package store is the durability side channel for room snapshots.
// Redis holds the live snapshot per room under a TTL; Postgres keeps a
// write-behind archive of chat lines and finished games. Nothing here
// may ever block or roll back the in-memory gameplay path: faults are
// logged and swallowed.
package store

import (
	"context"
	"encoding/json"
	"time"

	"unoserver/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const roomKeyPrefix = "room:"

// DefaultRetention is how long an untouched room survives in the store.
const DefaultRetention = 24 * time.Hour

// SessionStore bridges sessions to Redis and the Postgres archive. The
// archive db may be nil when the server runs without Postgres.
type SessionStore struct {
	rdb       *redis.Client
	db        *gorm.DB
	retention time.Duration
	logger    *zap.Logger
}

func New(rdb *redis.Client, db *gorm.DB, retention time.Duration, logger *zap.Logger) *SessionStore {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &SessionStore{rdb: rdb, db: db, retention: retention, logger: logger}
}

// Retention returns the configured expiry window.
func (s *SessionStore) Retention() time.Duration { return s.retention }

// Upsert persists the room snapshot, refreshing its TTL. Call it after
// the broadcast, never before.
func (s *SessionStore) Upsert(ctx context.Context, state models.GameState) {
	payload, err := json.Marshal(&state)
	if err != nil {
		s.logger.Error("Failed to encode room snapshot", zap.String("room", state.Room), zap.Error(err))
		return
	}
	if err := s.rdb.Set(ctx, roomKeyPrefix+state.Room, payload, s.retention).Err(); err != nil {
		s.logger.Error("Failed to persist room snapshot", zap.String("room", state.Room), zap.Error(err))
	}
}

// FetchActive returns the persisted snapshot for a room if it is
// restorable: a real in-progress game with at least one player and one
// played card. Anything else (missing, lobby shell, corrupt) yields nil.
func (s *SessionStore) FetchActive(ctx context.Context, room string) *models.GameState {
	payload, err := s.rdb.Get(ctx, roomKeyPrefix+room).Bytes()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		s.logger.Error("Failed to fetch room snapshot", zap.String("room", room), zap.Error(err))
		return nil
	}
	var state models.GameState
	if err := json.Unmarshal(payload, &state); err != nil {
		s.logger.Error("Corrupt room snapshot", zap.String("room", room), zap.Error(err))
		return nil
	}
	if !state.Restorable() {
		return nil
	}
	return &state
}

// DeleteRoom drops the persisted snapshot. Used when a fresh host joins
// (stale shells never restore), when a game finishes, and when the last
// member leaves.
func (s *SessionStore) DeleteRoom(ctx context.Context, room string) {
	if err := s.rdb.Del(ctx, roomKeyPrefix+room).Err(); err != nil {
		s.logger.Error("Failed to delete room snapshot", zap.String("room", room), zap.Error(err))
	}
}

// Touch refreshes the room's activity timestamp and TTL without
// changing game state. Best effort; concurrent upserts win.
func (s *SessionStore) Touch(ctx context.Context, room string) {
	payload, err := s.rdb.Get(ctx, roomKeyPrefix+room).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Error("Failed to touch room snapshot", zap.String("room", room), zap.Error(err))
		}
		return
	}
	var state models.GameState
	if err := json.Unmarshal(payload, &state); err != nil {
		s.logger.Error("Corrupt room snapshot on touch", zap.String("room", room), zap.Error(err))
		return
	}
	state.LastActivity = time.Now()
	s.Upsert(ctx, state)
}

// SweepExpired deletes every persisted room whose last activity is
// older than the cutoff. Redis TTLs already expire snapshots passively;
// this is the active backup. Idempotent and safe against concurrent
// traffic: at worst an active room re-upserts itself right after.
func (s *SessionStore) SweepExpired(ctx context.Context, olderThan time.Time) (int, error) {
	deleted := 0
	iter := s.rdb.Scan(ctx, 0, roomKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		payload, err := s.rdb.Get(ctx, key).Bytes()
		if err != nil {
			continue // expired between scan and get
		}
		var state models.GameState
		if err := json.Unmarshal(payload, &state); err != nil {
			s.logger.Warn("Dropping corrupt room snapshot", zap.String("key", key))
			s.rdb.Del(ctx, key)
			deleted++
			continue
		}
		if state.LastActivity.Before(olderThan) {
			if s.rdb.Del(ctx, key).Err() == nil {
				deleted++
			}
		}
	}
	return deleted, iter.Err()
}

// DeleteAll wipes every persisted room. Admin surface only.
func (s *SessionStore) DeleteAll(ctx context.Context) (int, error) {
	deleted := 0
	iter := s.rdb.Scan(ctx, 0, roomKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if s.rdb.Del(ctx, iter.Val()).Err() == nil {
			deleted++
		}
	}
	return deleted, iter.Err()
}

// ArchiveMessage appends one chat line to the Postgres archive and
// refreshes the room's activity.
func (s *SessionStore) ArchiveMessage(ctx context.Context, room, user, text string) {
	s.Touch(ctx, room)
	if s.db == nil {
		return
	}
	msg := models.ChatMessage{Room: room, User: user, Text: text}
	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		s.logger.Error("Failed to archive chat message", zap.String("room", room), zap.Error(err))
	}
}

// ArchiveResult records a finished game and deletes its snapshot:
// finished games are not resumable.
func (s *SessionStore) ArchiveResult(ctx context.Context, state models.GameState) {
	s.DeleteRoom(ctx, state.Room)
	if s.db == nil || state.Winner == "" {
		return
	}
	result := models.GameResult{Room: state.Room, Winner: state.Winner, PlayerCount: len(state.Players)}
	if err := s.db.WithContext(ctx).Create(&result).Error; err != nil {
		s.logger.Error("Failed to archive game result", zap.String("room", state.Room), zap.Error(err))
	}
}
