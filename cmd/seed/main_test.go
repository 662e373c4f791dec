package main

import (
	"testing"

	"booknotes/internal/book"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSamples_AreValid(t *testing.T) {
	for _, s := range samples {
		b, err := s.book()
		require.NoError(t, err, s.title)
		b.ISBN = book.NormalizeISBN(b.ISBN)
		assert.NoError(t, book.Validate(b), s.title)
	}
}
