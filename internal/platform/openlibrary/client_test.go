package openlibrary

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, retries int) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Options{
		BaseURL:    srv.URL,
		CoversURL:  "https://covers.example.org/b/",
		UserAgent:  "booknotes-test",
		MaxRetries: retries,
		Timeout:    time.Second,
		Backoff:    time.Millisecond,
	})
}

func TestClient_GetBooksByISBN(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/books", r.URL.Path)
		assert.Equal(t, "ISBN:9780441013593", r.URL.Query().Get("bibkeys"))
		assert.Equal(t, "data", r.URL.Query().Get("jscmd"))
		assert.Equal(t, "booknotes-test", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{"ISBN:9780441013593":{"title":"Dune","cover":{"large":"https://covers.example.org/b/id/1-L.jpg"}}}`))
	}, 0)

	res, err := c.GetBooksByISBN(context.Background(), []string{"9780441013593"})
	require.NoError(t, err)

	details, ok := res[BibKey("9780441013593")]
	require.True(t, ok)
	assert.Equal(t, "Dune", details.Title)
	require.NotNil(t, details.Cover)
	assert.Equal(t, "https://covers.example.org/b/id/1-L.jpg", details.Cover.Large)
}

func TestClient_GetBooksByISBN_Empty(t *testing.T) {
	c := NewClient(Options{})
	res, err := c.GetBooksByISBN(context.Background(), nil)
	assert.NoError(t, err)
	assert.Nil(t, res)
}

func TestClient_SearchByTitle(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search.json", r.URL.Path)
		assert.Equal(t, "The Left Hand of Darkness", r.URL.Query().Get("q"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"numFound":2,"docs":[{"key":"/works/OL1W","title":"x"},{"key":"/works/OL2W","cover_i":12345}]}`))
	}, 0)

	res, err := c.SearchByTitle(context.Background(), "The Left Hand of Darkness", 5)
	require.NoError(t, err)
	require.Len(t, res.Docs, 2)
	assert.Zero(t, res.Docs[0].CoverID)
	assert.Equal(t, int64(12345), res.Docs[1].CoverID)
}

func TestClient_CoverURL(t *testing.T) {
	c := NewClient(Options{CoversURL: "https://covers.example.org/b/"})
	assert.Equal(t, "https://covers.example.org/b/id/240727-L.jpg", c.CoverURL(240727))

	def := NewClient(Options{})
	assert.Equal(t, "https://covers.openlibrary.org/b/id/1-L.jpg", def.CoverURL(1))
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"numFound":0,"docs":[]}`))
	}, 2)

	res, err := c.SearchByTitle(context.Background(), "Dune", 0)
	require.NoError(t, err)
	assert.Empty(t, res.Docs)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}, 1)

	_, err := c.SearchByTitle(context.Background(), "Dune", 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}, 3)

	_, err := c.SearchByTitle(context.Background(), "Dune", 0)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_RespectsContextCancel(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}, 3)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.SearchByTitle(ctx, "Dune", 0)
	assert.Error(t, err)
}
