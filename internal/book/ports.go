package book

import (
	"context"
)

//go:generate mockgen -source=ports.go -destination=mock_ports.go -package=book

// Repository defines the contract for book data storage.
type Repository interface {
	List(ctx context.Context, order Order) ([]Book, error)
	GetByID(ctx context.Context, id int64) (Book, error)
	Create(ctx context.Context, b Book) (Book, error)
	// Update replaces every field except the id. Unknown ids yield ErrNotFound.
	Update(ctx context.Context, id int64, b Book) (Book, error)
	// Delete is a no-op for unknown ids.
	Delete(ctx context.Context, id int64) error
}

// CoverResolver finds a cover image URL. An empty result means none was found.
type CoverResolver interface {
	Resolve(ctx context.Context, title, isbn string) string
}
