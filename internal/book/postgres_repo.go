package book

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const selectColumns = `
	id, title, author, COALESCE(review, ''), rating, date_read,
	COALESCE(isbn, ''), cover_url, created_at, updated_at`

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

// orderClause only ever returns one of the fixed strings below.
func orderClause(o Order) string {
	dir := "ASC"
	if o.Desc {
		dir = "DESC"
	}
	switch o.Field {
	case OrderByDateRead:
		return fmt.Sprintf("date_read %s NULLS LAST, id %s", dir, dir)
	default:
		return "id " + dir
	}
}

func (r *PostgresRepo) List(ctx context.Context, order Order) ([]Book, error) {
	query := "SELECT " + selectColumns + " FROM books ORDER BY " + orderClause(order)

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, query)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	out := []Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return out, nil
}

func (r *PostgresRepo) GetByID(ctx context.Context, id int64) (Book, error) {
	query := "SELECT " + selectColumns + " FROM books WHERE id = $1"

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	b, err := scanBook(r.db.QueryRow(timeoutCtx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, fmt.Errorf("get book %d: %w", id, err)
	}
	return b, nil
}

func (r *PostgresRepo) Create(ctx context.Context, b Book) (Book, error) {
	query := `
		INSERT INTO books (title, author, review, rating, date_read, isbn, cover_url)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, NULLIF($6, ''), $7)
		RETURNING ` + selectColumns

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	created, err := scanBook(r.db.QueryRow(timeoutCtx, query,
		b.Title, b.Author, b.Review, b.Rating, b.DateRead, b.ISBN, b.CoverURL,
	))
	if err != nil {
		return Book{}, fmt.Errorf("insert book: %w", err)
	}
	return created, nil
}

func (r *PostgresRepo) Update(ctx context.Context, id int64, b Book) (Book, error) {
	query := `
		UPDATE books
		SET title = $1, author = $2, review = NULLIF($3, ''), rating = $4, date_read = $5,
		    isbn = NULLIF($6, ''), cover_url = $7, updated_at = NOW()
		WHERE id = $8
		RETURNING ` + selectColumns

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	updated, err := scanBook(r.db.QueryRow(timeoutCtx, query,
		b.Title, b.Author, b.Review, b.Rating, b.DateRead, b.ISBN, b.CoverURL, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, fmt.Errorf("update book %d: %w", id, err)
	}
	return updated, nil
}

func (r *PostgresRepo) Delete(ctx context.Context, id int64) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	if _, err := r.db.Exec(timeoutCtx, "DELETE FROM books WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete book %d: %w", id, err)
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *PostgresRepo) Ping(ctx context.Context) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.db.Ping(timeoutCtx)
}

func scanBook(row pgx.Row) (Book, error) {
	var b Book
	err := row.Scan(
		&b.ID, &b.Title, &b.Author, &b.Review, &b.Rating, &b.DateRead,
		&b.ISBN, &b.CoverURL, &b.CreatedAt, &b.UpdatedAt,
	)
	return b, err
}
