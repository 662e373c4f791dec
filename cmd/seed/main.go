package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"booknotes/internal/app"
	"booknotes/internal/book"
	"booknotes/internal/config"
	"booknotes/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// noCovers leaves every seeded note without a cover.
type noCovers struct{}

func (noCovers) Resolve(context.Context, string, string) string { return "" }

type sample struct {
	title, author, isbn, review, dateRead string
	rating                                int
}

var samples = []sample{
	{"Dune", "Frank Herbert", "9780441013593", "Politics, ecology and religion on a desert planet.", "2024-01-15", 5},
	{"The Left Hand of Darkness", "Ursula K. Le Guin", "9780441478125", "A slow, careful book about what gender does to a society.", "2023-11-02", 5},
	{"Project Hail Mary", "Andy Weir", "9780593135204", "", "2023-08-20", 4},
	{"The Pragmatic Programmer", "David Thomas", "9780135957059", "Still holds up. The tracer bullets chapter is the one I reread.", "2022-05-01", 4},
	{"Piranesi", "Susanna Clarke", "", "Odd and lovely.", "", 0},
}

func main() {
	var skipCovers bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert a handful of sample book notes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger, flush := logging.Setup(cfg.IsProduction(), cfg.LogLevel, os.Stdout)
			defer func() { _ = flush() }()

			return seed(cmd.Context(), cfg, logger, skipCovers)
		},
	}
	cmd.Flags().BoolVar(&skipCovers, "skip-covers", false, "do not look up covers on Open Library")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func seed(ctx context.Context, cfg *config.Config, logger *zap.Logger, skipCovers bool) error {
	pool, err := app.OpenDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	var covers book.CoverResolver = noCovers{}
	if !skipCovers {
		resolver, closeCovers, err := app.NewCoverResolver(ctx, cfg, logger.Named("cover"))
		if err != nil {
			return err
		}
		defer closeCovers()
		covers = resolver
	}

	service, _ := app.NewBookService(pool, covers, cfg, logger)
	for _, s := range samples {
		b, err := s.book()
		if err != nil {
			return err
		}
		created, err := service.Create(ctx, b)
		if err != nil {
			return fmt.Errorf("seed %q: %w", s.title, err)
		}
		logger.Info("seeded book", zap.Int64("book_id", created.ID), zap.String("title", created.Title))
	}
	logger.Info("seeding finished", zap.Int("count", len(samples)))
	return nil
}

func (s sample) book() (book.Book, error) {
	b := book.Book{Title: s.title, Author: s.author, ISBN: s.isbn, Review: s.review}
	if s.rating > 0 {
		rating := s.rating
		b.Rating = &rating
	}
	if s.dateRead != "" {
		d, err := time.Parse(book.DateLayout, s.dateRead)
		if err != nil {
			return book.Book{}, fmt.Errorf("sample %q: %w", s.title, err)
		}
		b.DateRead = &d
	}
	return b, nil
}
