package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"ludo-server/internal/game"
)

// RedisStore keeps live tables, active-table pointers and waiting pools in a
// shared redis so any process instance can serve any request while holding
// the advisory lock.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func tableKey(tableID string) string       { return "table:" + tableID }
func activeKey(userID string) string       { return "user:" + userID + ":table" }
func waitingKey(tableTypeID string) string { return "waiting:" + tableTypeID }
func waitingPtrKey(userID string) string   { return "user:" + userID + ":waiting" }

func roundKey(tournamentID string, round int) string {
	return "tournament:" + tournamentID + ":round:" + strconv.Itoa(round)
}

func (s *RedisStore) SaveTable(ctx context.Context, t *game.Table) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal table %s: %w", t.Info.ID, err)
	}
	return s.rdb.Set(ctx, tableKey(t.Info.ID), raw, 0).Err()
}

func (s *RedisStore) LoadTable(ctx context.Context, tableID string) (*game.Table, error) {
	raw, err := s.rdb.Get(ctx, tableKey(tableID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var t game.Table
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("unmarshal table %s: %w", tableID, err)
	}
	return &t, nil
}

func (s *RedisStore) DeleteTable(ctx context.Context, tableID string) error {
	return s.rdb.Del(ctx, tableKey(tableID)).Err()
}

func (s *RedisStore) SetActiveTable(ctx context.Context, userID, tableID string) error {
	return s.rdb.Set(ctx, activeKey(userID), tableID, 0).Err()
}

func (s *RedisStore) ActiveTable(ctx context.Context, userID string) (string, error) {
	tableID, err := s.rdb.Get(ctx, activeKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return tableID, err
}

func (s *RedisStore) ClearActiveTable(ctx context.Context, userID string) error {
	return s.rdb.Del(ctx, activeKey(userID)).Err()
}

func (s *RedisStore) AddWaiting(ctx context.Context, w WaitingUser) error {
	raw, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("marshal waiting %s: %w", w.UserID, err)
	}
	if err := s.rdb.HSet(ctx, waitingKey(w.TableTypeID), w.UserID, raw).Err(); err != nil {
		return err
	}
	return s.rdb.Set(ctx, waitingPtrKey(w.UserID), w.TableTypeID, 0).Err()
}

func (s *RedisStore) RemoveWaiting(ctx context.Context, tableTypeID, userID string) error {
	removed, err := s.rdb.HDel(ctx, waitingKey(tableTypeID), userID).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return ErrNotFound
	}
	return s.rdb.Del(ctx, waitingPtrKey(userID)).Err()
}

func (s *RedisStore) Waiting(ctx context.Context, tableTypeID string) ([]WaitingUser, error) {
	raw, err := s.rdb.HGetAll(ctx, waitingKey(tableTypeID)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]WaitingUser, 0, len(raw))
	for userID, v := range raw {
		var w WaitingUser
		if err := json.Unmarshal([]byte(v), &w); err != nil {
			return nil, fmt.Errorf("unmarshal waiting %s: %w", userID, err)
		}
		out = append(out, w)
	}
	return out, nil
}

func (s *RedisStore) WaitingEntry(ctx context.Context, userID string) (WaitingUser, error) {
	tableTypeID, err := s.rdb.Get(ctx, waitingPtrKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return WaitingUser{}, ErrNotFound
	}
	if err != nil {
		return WaitingUser{}, err
	}
	raw, err := s.rdb.HGet(ctx, waitingKey(tableTypeID), userID).Bytes()
	if errors.Is(err, redis.Nil) {
		return WaitingUser{}, ErrNotFound
	}
	if err != nil {
		return WaitingUser{}, err
	}
	var w WaitingUser
	if err := json.Unmarshal(raw, &w); err != nil {
		return WaitingUser{}, fmt.Errorf("unmarshal waiting %s: %w", userID, err)
	}
	return w, nil
}

func (s *RedisStore) SaveRoundTables(ctx context.Context, tournamentID string, round int, tableIDs []string) error {
	raw, err := json.Marshal(tableIDs)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, roundKey(tournamentID, round), raw, 0).Err()
}

func (s *RedisStore) RoundTables(ctx context.Context, tournamentID string, round int) ([]string, error) {
	raw, err := s.rdb.Get(ctx, roundKey(tournamentID, round)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}
