package state

import (
	"context"
	"encoding/json"
	"sync"

	"ludo-server/internal/game"
)

// MemoryStore mirrors RedisStore semantics in-process, including the
// serialize-on-save behavior: loaded tables are fresh copies, never aliases.
type MemoryStore struct {
	mu          sync.Mutex
	tables      map[string][]byte
	active      map[string]string
	waiting     map[string]map[string]WaitingUser
	waitingPtr  map[string]string
	roundTables map[string][]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tables:      make(map[string][]byte),
		active:      make(map[string]string),
		waiting:     make(map[string]map[string]WaitingUser),
		waitingPtr:  make(map[string]string),
		roundTables: make(map[string][]string),
	}
}

func (s *MemoryStore) SaveTable(_ context.Context, t *game.Table) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[t.Info.ID] = raw
	return nil
}

func (s *MemoryStore) LoadTable(_ context.Context, tableID string) (*game.Table, error) {
	s.mu.Lock()
	raw, ok := s.tables[tableID]
	s.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	var t game.Table
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *MemoryStore) DeleteTable(_ context.Context, tableID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tables, tableID)
	return nil
}

func (s *MemoryStore) SetActiveTable(_ context.Context, userID, tableID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active[userID] = tableID
	return nil
}

func (s *MemoryStore) ActiveTable(_ context.Context, userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tableID, ok := s.active[userID]
	if !ok {
		return "", ErrNotFound
	}
	return tableID, nil
}

func (s *MemoryStore) ClearActiveTable(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, userID)
	return nil
}

func (s *MemoryStore) AddWaiting(_ context.Context, w WaitingUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pool, ok := s.waiting[w.TableTypeID]
	if !ok {
		pool = make(map[string]WaitingUser)
		s.waiting[w.TableTypeID] = pool
	}
	pool[w.UserID] = w
	s.waitingPtr[w.UserID] = w.TableTypeID
	return nil
}

func (s *MemoryStore) RemoveWaiting(_ context.Context, tableTypeID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pool := s.waiting[tableTypeID]
	if _, ok := pool[userID]; !ok {
		return ErrNotFound
	}
	delete(pool, userID)
	delete(s.waitingPtr, userID)
	return nil
}

func (s *MemoryStore) Waiting(_ context.Context, tableTypeID string) ([]WaitingUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]WaitingUser, 0, len(s.waiting[tableTypeID]))
	for _, w := range s.waiting[tableTypeID] {
		out = append(out, w)
	}
	return out, nil
}

func (s *MemoryStore) WaitingEntry(_ context.Context, userID string) (WaitingUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tableTypeID, ok := s.waitingPtr[userID]
	if !ok {
		return WaitingUser{}, ErrNotFound
	}
	w, ok := s.waiting[tableTypeID][userID]
	if !ok {
		return WaitingUser{}, ErrNotFound
	}
	return w, nil
}

func (s *MemoryStore) SaveRoundTables(_ context.Context, tournamentID string, round int, tableIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roundTables[roundKey(tournamentID, round)] = append([]string(nil), tableIDs...)
	return nil
}

func (s *MemoryStore) RoundTables(_ context.Context, tournamentID string, round int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids, ok := s.roundTables[roundKey(tournamentID, round)]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]string(nil), ids...), nil
}
