package book

import (
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned when a book is not found.
var ErrNotFound = errors.New("book not found")

// DateLayout is the wire and form format of DateRead.
const DateLayout = "2006-01-02"

// Book is a single reading note.
type Book struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	Author    string     `json:"author"`
	Review    string     `json:"review,omitempty"`
	Rating    *int       `json:"rating,omitempty"`
	DateRead  *time.Time `json:"date_read,omitempty"`
	ISBN      string     `json:"isbn,omitempty"`
	CoverURL  *string    `json:"cover_url,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// HasCover reports whether a non-blank cover URL is set.
func (b Book) HasCover() bool {
	return b.CoverURL != nil && strings.TrimSpace(*b.CoverURL) != ""
}

// DateReadString formats DateRead for date inputs; "" when unset.
func (b Book) DateReadString() string {
	if b.DateRead == nil {
		return ""
	}
	return b.DateRead.Format(DateLayout)
}

// OrderField selects the column List sorts by.
type OrderField string

const (
	OrderByID       OrderField = "id"
	OrderByDateRead OrderField = "date_read"
)

// Order is the explicit sort applied by List. The zero value sorts by id ascending.
type Order struct {
	Field OrderField
	Desc  bool
}

// ParseOrder maps query values onto an Order, ignoring unknown fields.
func ParseOrder(field, desc string) Order {
	o := Order{Field: OrderByID, Desc: desc == "true"}
	if OrderField(field) == OrderByDateRead {
		o.Field = OrderByDateRead
	}
	return o
}
