package book

import (
	"context"
	"sort"
	"sync"
	"time"
)

// memoryRepo is an in-process Repository used to check service properties
// without a database.
type memoryRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]Book
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rows: map[int64]Book{}}
}

func (m *memoryRepo) List(_ context.Context, order Order) ([]Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Book, 0, len(m.rows))
	for _, b := range m.rows {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		less := out[i].ID < out[j].ID
		if order.Desc {
			less = out[i].ID > out[j].ID
		}
		return less
	})
	return out, nil
}

func (m *memoryRepo) GetByID(_ context.Context, id int64) (Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.rows[id]
	if !ok {
		return Book{}, ErrNotFound
	}
	return b, nil
}

func (m *memoryRepo) Create(_ context.Context, b Book) (Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	b.ID = m.nextID
	b.CreatedAt = time.Unix(0, 0).UTC()
	b.UpdatedAt = b.CreatedAt
	m.rows[b.ID] = b
	return b, nil
}

func (m *memoryRepo) Update(_ context.Context, id int64, b Book) (Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.rows[id]
	if !ok {
		return Book{}, ErrNotFound
	}
	b.ID = id
	b.CreatedAt = old.CreatedAt
	b.UpdatedAt = old.UpdatedAt
	m.rows[id] = b
	return b, nil
}

func (m *memoryRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}
