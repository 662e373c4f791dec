package book

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubResolver map[string]string

func (s stubResolver) Resolve(_ context.Context, title, isbn string) string {
	if u, ok := s[isbn]; ok && isbn != "" {
		return u
	}
	return s[title]
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func TestService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves cover when none supplied", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := NewMockRepository(ctrl)
		covers := NewMockCoverResolver(ctrl)
		s := NewService(repo, covers, zap.NewNop())

		const cover = "https://covers.openlibrary.org/b/id/8231856-L.jpg"
		covers.EXPECT().Resolve(gomock.Any(), "Dune", "9780441013593").Return(cover)
		repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, b Book) (Book, error) {
			require.NotNil(t, b.CoverURL)
			assert.Equal(t, cover, *b.CoverURL)
			b.ID = 1
			return b, nil
		})

		got, err := s.Create(ctx, Book{Title: "Dune", Author: "Frank Herbert", ISBN: "978-0441013593"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.ID)
		assert.Equal(t, "9780441013593", got.ISBN)
	})

	t.Run("explicit cover skips resolver", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := NewMockRepository(ctrl)
		covers := NewMockCoverResolver(ctrl)
		s := NewService(repo, covers, zap.NewNop())

		covers.EXPECT().Resolve(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
		repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, b Book) (Book, error) {
			return b, nil
		})

		got, err := s.Create(ctx, Book{Title: "Dune", Author: "Frank Herbert", CoverURL: strPtr("https://example.com/dune.jpg")})
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/dune.jpg", *got.CoverURL)
	})

	t.Run("unresolved cover stored as nil", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := NewMockRepository(ctrl)
		covers := NewMockCoverResolver(ctrl)
		s := NewService(repo, covers, zap.NewNop())

		covers.EXPECT().Resolve(gomock.Any(), "Unknown Obscure Book", "").Return("")
		repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, b Book) (Book, error) {
			assert.Nil(t, b.CoverURL)
			return b, nil
		})

		_, err := s.Create(ctx, Book{Title: "Unknown Obscure Book", Author: "Nobody", CoverURL: strPtr("  ")})
		require.NoError(t, err)
	})

	t.Run("invalid input never reaches collaborators", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		s := NewService(NewMockRepository(ctrl), NewMockCoverResolver(ctrl), zap.NewNop())

		_, err := s.Create(ctx, Book{Title: " ", Rating: intPtr(9), ISBN: "12"})

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		fields := make([]string, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			fields = append(fields, f.Field)
		}
		assert.ElementsMatch(t, []string{"title", "author", "rating", "isbn"}, fields)
	})

	t.Run("storage failure propagates", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := NewMockRepository(ctrl)
		covers := NewMockCoverResolver(ctrl)
		s := NewService(repo, covers, zap.NewNop())

		boom := errors.New("connection refused")
		covers.EXPECT().Resolve(gomock.Any(), gomock.Any(), gomock.Any()).Return("")
		repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(Book{}, boom)

		_, err := s.Create(ctx, Book{Title: "Dune", Author: "Frank Herbert"})
		assert.ErrorIs(t, err, boom)
	})
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves cover then updates by id", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := NewMockRepository(ctrl)
		covers := NewMockCoverResolver(ctrl)
		s := NewService(repo, covers, zap.NewNop())

		covers.EXPECT().Resolve(gomock.Any(), "Dune", "").Return("https://covers/1.jpg")
		repo.EXPECT().Update(gomock.Any(), int64(7), gomock.Any()).DoAndReturn(func(_ context.Context, id int64, b Book) (Book, error) {
			b.ID = id
			return b, nil
		})

		got, err := s.Update(ctx, 7, Book{Title: "Dune", Author: "Frank Herbert"})
		require.NoError(t, err)
		assert.Equal(t, "https://covers/1.jpg", *got.CoverURL)
	})

	t.Run("unknown id", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := NewMockRepository(ctrl)
		s := NewService(repo, stubResolver{}, zap.NewNop())

		repo.EXPECT().Update(gomock.Any(), int64(99), gomock.Any()).Return(Book{}, ErrNotFound)

		_, err := s.Update(ctx, 99, Book{Title: "Dune", Author: "Frank Herbert", CoverURL: strPtr("https://x/y.jpg")})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestService_PassThrough(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	repo := NewMockRepository(ctrl)
	s := NewService(repo, NewMockCoverResolver(ctrl), zap.NewNop())

	order := Order{Field: OrderByDateRead, Desc: true}
	repo.EXPECT().List(gomock.Any(), order).Return([]Book{{ID: 1}}, nil)
	repo.EXPECT().GetByID(gomock.Any(), int64(1)).Return(Book{ID: 1}, nil)
	repo.EXPECT().Delete(gomock.Any(), int64(1)).Return(nil)

	books, err := s.List(ctx, order)
	require.NoError(t, err)
	assert.Len(t, books, 1)

	b, err := s.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), b.ID)

	assert.NoError(t, s.Delete(ctx, 1))
}

func TestService_Properties(t *testing.T) {
	ctx := context.Background()
	covers := stubResolver{
		"9780441013593":   "https://covers.openlibrary.org/b/id/8231856-L.jpg",
		"The Dispossessed": "https://covers.openlibrary.org/b/id/1-L.jpg",
	}

	t.Run("stored cover equals resolver output", func(t *testing.T) {
		s := NewService(newMemoryRepo(), covers, zap.NewNop())
		inputs := []Book{
			{Title: "Dune", Author: "Frank Herbert", ISBN: "9780441013593"},
			{Title: "The Dispossessed", Author: "Ursula K. Le Guin"},
			{Title: "Unknown Obscure Book", Author: "Nobody"},
		}
		for _, in := range inputs {
			created, err := s.Create(ctx, in)
			require.NoError(t, err)

			stored, err := s.Get(ctx, created.ID)
			require.NoError(t, err)
			want := covers.Resolve(ctx, in.Title, in.ISBN)
			if want == "" {
				assert.Nil(t, stored.CoverURL, in.Title)
			} else {
				require.NotNil(t, stored.CoverURL, in.Title)
				assert.Equal(t, want, *stored.CoverURL)
			}
		}
	})

	t.Run("update is idempotent", func(t *testing.T) {
		s := NewService(newMemoryRepo(), covers, zap.NewNop())
		created, err := s.Create(ctx, Book{Title: "Dune", Author: "Frank Herbert"})
		require.NoError(t, err)

		payload := Book{Title: "Dune", Author: "Frank Herbert", ISBN: "9780441013593", Rating: intPtr(5), Review: "Spice."}
		first, err := s.Update(ctx, created.ID, payload)
		require.NoError(t, err)
		second, err := s.Update(ctx, created.ID, payload)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("deleting unknown id is a no-op", func(t *testing.T) {
		s := NewService(newMemoryRepo(), covers, zap.NewNop())
		assert.NoError(t, s.Delete(ctx, 12345))
	})

	t.Run("list returns every inserted record", func(t *testing.T) {
		s := NewService(newMemoryRepo(), covers, zap.NewNop())
		const n = 5
		ids := make([]int64, 0, n)
		for i := 0; i < n; i++ {
			b, err := s.Create(ctx, Book{Title: fmt.Sprintf("Book %d", i), Author: "Author", CoverURL: strPtr("https://x/c.jpg")})
			require.NoError(t, err)
			ids = append(ids, b.ID)
		}

		books, err := s.List(ctx, Order{})
		require.NoError(t, err)
		assert.Len(t, books, n)
		for _, id := range ids {
			_, err := s.Get(ctx, id)
			assert.NoError(t, err)
		}
	})
}
