package repo

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/light-bringer/catalog-mirror/internal/app/catalog/contracts"
	"github.com/light-bringer/catalog-mirror/internal/app/catalog/domain"
	"github.com/light-bringer/catalog-mirror/internal/pkg/clock"
)

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu         sync.RWMutex
	clock      clock.Clock
	nextID     int64
	byID       map[int64]*domain.CatalogRecord
	byExternal map[int64]int64
}

var _ contracts.Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(clk clock.Clock) *MemoryStore {
	return &MemoryStore{
		clock:      clk,
		byID:       make(map[int64]*domain.CatalogRecord),
		byExternal: make(map[int64]int64),
	}
}

func (s *MemoryStore) FindByExternalID(_ context.Context, externalID int64) (*domain.CatalogRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byExternal[externalID]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return s.byID[id], nil
}

func (s *MemoryStore) Upsert(_ context.Context, rec *domain.CatalogRecord) (*domain.CatalogRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	if !rec.IsPersisted() {
		if _, taken := s.byExternal[rec.ExternalID()]; taken {
			return nil, domain.ErrDuplicateExternalID
		}
		s.nextID++
		stored := rec.Persisted(s.nextID, now, now)
		s.byID[stored.LocalID()] = stored
		s.byExternal[stored.ExternalID()] = stored.LocalID()
		return stored, nil
	}

	existing, ok := s.byID[rec.LocalID()]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	if owner, taken := s.byExternal[rec.ExternalID()]; taken && owner != rec.LocalID() {
		return nil, domain.ErrDuplicateExternalID
	}
	stored := rec.Persisted(rec.LocalID(), existing.CreatedAt(), now)
	delete(s.byExternal, existing.ExternalID())
	s.byID[stored.LocalID()] = stored
	s.byExternal[stored.ExternalID()] = stored.LocalID()
	return stored, nil
}

func (s *MemoryStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.byID)), nil
}

func (s *MemoryStore) PruneToNewest(_ context.Context, n int) (int, error) {
	if n < 0 {
		return 0, domain.ErrInvalidCapacity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.sortedLocked(byRecency)
	if len(all) <= n {
		return 0, nil
	}
	for _, rec := range all[n:] {
		delete(s.byID, rec.LocalID())
		delete(s.byExternal, rec.ExternalID())
	}
	return len(all) - n, nil
}

func (s *MemoryStore) GetByID(_ context.Context, localID int64) (*domain.CatalogRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[localID]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return rec, nil
}

func (s *MemoryStore) ListPage(_ context.Context, offset, limit int) (*contracts.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.sortedLocked(byCreation)
	return &contracts.Page{
		Records:    window(all, offset, limit),
		TotalCount: int64(len(all)),
	}, nil
}

func (s *MemoryStore) SearchByTitle(_ context.Context, query string) ([]*domain.CatalogRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(query)
	out := make([]*domain.CatalogRecord, 0)
	for _, rec := range s.sortedLocked(byCreation) {
		if strings.Contains(strings.ToLower(rec.Title()), needle) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *MemoryStore) DeleteByID(_ context.Context, localID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[localID]
	if !ok {
		return domain.ErrRecordNotFound
	}
	delete(s.byID, localID)
	delete(s.byExternal, rec.ExternalID())
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) sortedLocked(order func(a, b *domain.CatalogRecord) int) []*domain.CatalogRecord {
	all := make([]*domain.CatalogRecord, 0, len(s.byID))
	for _, rec := range s.byID {
		all = append(all, rec)
	}
	slices.SortFunc(all, order)
	return all
}
