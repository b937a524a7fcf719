package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"txhistory/internal/core"
)

// MemoryStore is an in-memory transaction store with the same contract as
// SQLiteRepository. Used by service tests; not durable.
type MemoryStore struct {
	mu   sync.RWMutex
	byID map[string]core.Transaction
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID: make(map[string]core.Transaction),
		now:  time.Now,
	}
}

// SetClock replaces the timestamp source. Test hook.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.now = now
}

func (s *MemoryStore) Upsert(ctx context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	if existing, ok := s.byID[t.ID]; ok {
		t.CreatedAt = existing.CreatedAt
	} else {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	s.byID[t.ID] = t
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, id)
	return nil
}

func (s *MemoryStore) Exists(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byID[id]
	return ok, nil
}

func (s *MemoryStore) QueryPage(ctx context.Context, f Filter, pageIndex, pageSize int) ([]core.Transaction, int64, error) {
	all, err := s.QueryAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}

	total := int64(len(all))
	start := pageIndex * pageSize
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (s *MemoryStore) QueryAll(ctx context.Context, f Filter) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []core.Transaction
	for _, t := range s.byID {
		if t.CustomerID != f.CustomerID {
			continue
		}
		if t.ValueDate.Before(f.StartDate.Time) || t.ValueDate.After(f.EndDate.Time) {
			continue
		}
		if f.AccountIBAN != "" && t.AccountIBAN != f.AccountIBAN {
			continue
		}
		items = append(items, t)
	}

	sort.Slice(items, func(i, j int) bool {
		if !items[i].ValueDate.Equal(items[j].ValueDate.Time) {
			return items[i].ValueDate.After(items[j].ValueDate.Time)
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

// Get returns a stored transaction by id. Test helper.
func (s *MemoryStore) Get(id string) (core.Transaction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.byID[id]
	return t, ok
}
