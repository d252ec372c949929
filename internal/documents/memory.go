package documents

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/courier/pkg/pagination"
	"github.com/JaimeStill/courier/pkg/query"
)

// MemoryStore is an in-process Store used for local runs and tests.
type MemoryStore struct {
	mu   sync.Mutex
	docs map[uuid.UUID]Document
	now  func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[uuid.UUID]Document),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryStore) Insert(_ context.Context, d *Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[d.ID]; ok {
		return ErrDuplicate
	}

	now := m.now()
	d.CreatedAt = now
	d.UpdatedAt = now
	m.docs[d.ID] = *d
	return nil
}

func (m *MemoryStore) Find(_ context.Context, id uuid.UUID) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &d, nil
}

func (m *MemoryStore) List(_ context.Context, f Filter, page pagination.PageRequest) ([]Document, int, error) {
	m.mu.Lock()
	matched := make([]Document, 0, len(m.docs))
	for _, d := range m.docs {
		if f.matches(&d) {
			matched = append(matched, d)
		}
	}
	m.mu.Unlock()

	order := f.Sort
	if len(order) == 0 {
		order = []query.SortField{{Field: "created_at", Descending: true}}
	}

	slices.SortFunc(matched, func(a, b Document) int {
		for _, s := range order {
			c := compareField(&a, &b, s.Field)
			if s.Descending {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})

	total := len(matched)
	start := min(page.Offset(), total)
	end := min(start+page.PageSize, total)
	return matched[start:end], total, nil
}

func compareField(a, b *Document, field string) int {
	switch field {
	case "created_at":
		return a.CreatedAt.Compare(b.CreatedAt)
	case "updated_at":
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case "status":
		return cmp.Compare(a.Status, b.Status)
	case "kind":
		return cmp.Compare(a.Kind, b.Kind)
	case "filename":
		return cmp.Compare(a.Filename, b.Filename)
	case "size_bytes":
		return cmp.Compare(a.SizeBytes, b.SizeBytes)
	}
	return 0
}

func (m *MemoryStore) Finalize(_ context.Context, id uuid.UUID, f Finalization) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.docs[id]
	if !ok || d.Status != StatusProcessing {
		return false, nil
	}

	d.Status = f.Status
	switch f.Status {
	case StatusAnalyzed:
		d.AnalysisArtifactURL = &f.AnalysisArtifactURL
	case StatusFailed:
		d.FailureReason = &f.FailureReason
	}
	d.UpdatedAt = m.now()
	m.docs[id] = d
	return true, nil
}
