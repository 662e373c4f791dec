// Package cover finds a best-effort cover image URL for a book.
package cover

import (
	"context"
	"strings"
	"time"

	"booknotes/internal/platform/openlibrary"

	"go.uber.org/zap"
)

// searchLimit bounds the number of search docs scanned for a cover id.
const searchLimit = 20

// MetadataClient is the subset of the Open Library client the resolver needs.
type MetadataClient interface {
	GetBooksByISBN(ctx context.Context, isbns []string) (map[string]openlibrary.BookDetails, error)
	SearchByTitle(ctx context.Context, title string, limit int) (*openlibrary.SearchResponse, error)
	CoverURL(coverID int64) string
}

// Resolver looks a cover up by ISBN first and falls back to a title search.
// Lookup failures are logged and reported as "no cover".
type Resolver struct {
	client  MetadataClient
	logger  *zap.Logger
	timeout time.Duration
}

func NewResolver(client MetadataClient, logger *zap.Logger, timeout time.Duration) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{client: client, logger: logger, timeout: timeout}
}

// Resolve returns a cover URL or "" when none could be found.
func (r *Resolver) Resolve(ctx context.Context, title, isbn string) string {
	title = strings.TrimSpace(title)
	isbn = strings.TrimSpace(isbn)

	if isbn != "" {
		if u := r.byISBN(ctx, isbn); u != "" {
			return u
		}
	}
	if title == "" {
		return ""
	}
	return r.byTitle(ctx, title)
}

func (r *Resolver) byISBN(ctx context.Context, isbn string) string {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.client.GetBooksByISBN(ctx, []string{isbn})
	if err != nil {
		r.logger.Warn("cover lookup by isbn failed", zap.String("isbn", isbn), zap.Error(err))
		return ""
	}
	details, ok := res[openlibrary.BibKey(isbn)]
	if !ok || details.Cover == nil {
		return ""
	}
	return details.Cover.Large
}

func (r *Resolver) byTitle(ctx context.Context, title string) string {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.client.SearchByTitle(ctx, title, searchLimit)
	if err != nil {
		r.logger.Warn("cover lookup by title failed", zap.String("title", title), zap.Error(err))
		return ""
	}
	for _, doc := range res.Docs {
		if doc.CoverID > 0 {
			return r.client.CoverURL(doc.CoverID)
		}
	}
	r.logger.Debug("no cover found", zap.String("title", title), zap.Int("docs", len(res.Docs)))
	return ""
}

func (r *Resolver) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}
