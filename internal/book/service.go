package book

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// Service sequences cover resolution before persistence.
type Service struct {
	repo   Repository
	covers CoverResolver
	logger *zap.Logger
}

// NewService creates a new book service.
func NewService(repo Repository, covers CoverResolver, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, covers: covers, logger: logger}
}

// List returns every book in the requested order.
func (s *Service) List(ctx context.Context, order Order) ([]Book, error) {
	return s.repo.List(ctx, order)
}

// Get returns a book by its id.
func (s *Service) Get(ctx context.Context, id int64) (Book, error) {
	return s.repo.GetByID(ctx, id)
}

// Create validates b, fills in a cover when none was supplied and stores it.
func (s *Service) Create(ctx context.Context, b Book) (Book, error) {
	b, err := s.prepare(ctx, b)
	if err != nil {
		return Book{}, err
	}
	created, err := s.repo.Create(ctx, b)
	if err != nil {
		return Book{}, err
	}
	s.logger.Info("book created", zap.Int64("book_id", created.ID), zap.Bool("has_cover", created.HasCover()))
	return created, nil
}

// Update behaves like Create but replaces the book stored under id.
func (s *Service) Update(ctx context.Context, id int64, b Book) (Book, error) {
	b, err := s.prepare(ctx, b)
	if err != nil {
		return Book{}, err
	}
	updated, err := s.repo.Update(ctx, id, b)
	if err != nil {
		return Book{}, err
	}
	s.logger.Info("book updated", zap.Int64("book_id", id))
	return updated, nil
}

// Delete removes a book. Unknown ids are not an error.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) prepare(ctx context.Context, b Book) (Book, error) {
	b.Title = strings.TrimSpace(b.Title)
	b.Author = strings.TrimSpace(b.Author)
	b.ISBN = NormalizeISBN(strings.TrimSpace(b.ISBN))
	if err := Validate(b); err != nil {
		return Book{}, err
	}

	if b.HasCover() {
		return b, nil
	}

	b.CoverURL = nil
	if u := s.covers.Resolve(ctx, b.Title, b.ISBN); u != "" {
		b.CoverURL = &u
	}
	return b, nil
}
