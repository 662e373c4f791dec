package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type formData struct {
	Heading string
	Submit  string
	Action  string
	MaxDate string
	Error   string
	Errors  []struct{ Message string }
	Form    struct {
		Title, Author, ISBN, Rating, DateRead, CoverURL, Review string
	}
}

func TestRenderer_RenderForm(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	data := formData{Heading: "Add New Book", Submit: "Add Book", Action: "/add", Error: "Something went wrong. Please try again."}
	data.Form.Title = `<script>alert("x")</script>`

	w := httptest.NewRecorder()
	require.NoError(t, r.Render(w, http.StatusUnprocessableEntity, PageForm, data))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.Contains(t, body, "Add New Book")
	assert.Contains(t, body, `action="/add"`)
	assert.Contains(t, body, "Something went wrong. Please try again.")
	assert.NotContains(t, body, `<script>alert`)
}

func TestRenderer_UnknownPage(t *testing.T) {
	r := MustNewRenderer()
	w := httptest.NewRecorder()
	assert.Error(t, r.Render(w, http.StatusOK, "missing", nil))
	assert.Equal(t, 0, w.Body.Len())
}

func TestStaticHandler(t *testing.T) {
	w := httptest.NewRecorder()
	StaticHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/static/styles.css", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), ".books")
}

func TestStars(t *testing.T) {
	stars := funcs["stars"].(func(int) string)
	assert.Equal(t, "★★★☆☆", stars(3))
	assert.Equal(t, "★★★★★", stars(9))
}
