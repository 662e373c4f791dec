package book

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"booknotes/internal/httpx"
	"booknotes/internal/web"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const genericErrorMessage = "Something went wrong. Please try again."

// Renderer writes a named HTML page.
type Renderer interface {
	Render(w http.ResponseWriter, status int, page string, data any) error
}

// FormValues are the raw strings of the add/edit form, kept so a rejected
// submission can be shown again exactly as typed.
type FormValues struct {
	ID       int64
	Title    string
	Author   string
	Review   string
	Rating   string
	DateRead string
	ISBN     string
	CoverURL string
}

type IndexPage struct {
	Books []Book
	Order Order
	Error string
}

type FormPage struct {
	Heading string
	Submit  string
	Action  string
	MaxDate string
	Form    FormValues
	Errors  []FieldError
	Error   string
}

type HTTPHandler struct {
	service *Service
	views   Renderer
	logger  *zap.Logger
	now     func() time.Time
}

func NewHTTPHandler(service *Service, views Renderer, logger *zap.Logger) *HTTPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPHandler{service: service, views: views, logger: logger, now: time.Now}
}

// Routes mounts the HTML pages.
func (h *HTTPHandler) Routes(r chi.Router) {
	r.Get("/", h.Index)
	r.Get("/new", h.New)
	r.Post("/add", h.Add)
	r.Get("/edit/{id}", h.Edit)
	r.Post("/update/{id}", h.Update)
	r.Post("/delete/{id}", h.Delete)
}

// APIRoutes mounts the read-only JSON endpoints.
func (h *HTTPHandler) APIRoutes(r chi.Router) {
	r.Get("/books", h.APIList)
	r.Get("/books/{id}", h.APIGet)
}

// Index handles GET /
func (h *HTTPHandler) Index(w http.ResponseWriter, r *http.Request) {
	order := ParseOrder(r.URL.Query().Get("sort"), r.URL.Query().Get("desc"))

	books, err := h.service.List(r.Context(), order)
	if err != nil {
		h.log(r).Error("list books failed", zap.Error(err))
		h.render(w, r, http.StatusInternalServerError, web.PageIndex, IndexPage{Books: []Book{}, Order: order, Error: "Could not load books."})
		return
	}
	h.render(w, r, http.StatusOK, web.PageIndex, IndexPage{Books: books, Order: order})
}

// New handles GET /new
func (h *HTTPHandler) New(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, web.PageForm, h.addPage(FormValues{}))
}

// Add handles POST /add
func (h *HTTPHandler) Add(w http.ResponseWriter, r *http.Request) {
	form, ok := h.parseForm(w, r)
	if !ok {
		return
	}
	page := h.addPage(form)

	b, fieldErrs := form.Book()
	if len(fieldErrs) > 0 {
		page.Errors = fieldErrs
		h.render(w, r, http.StatusUnprocessableEntity, web.PageForm, page)
		return
	}

	if _, err := h.service.Create(r.Context(), b); err != nil {
		h.renderSaveError(w, r, page, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Edit handles GET /edit/{id}
func (h *HTTPHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	b, err := h.service.Get(r.Context(), id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			h.log(r).Error("load book for edit failed", zap.Int64("book_id", id), zap.Error(err))
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, web.PageForm, h.editPage(FormValuesFrom(b)))
}

// Update handles POST /update/{id}
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	form, ok := h.parseForm(w, r)
	if !ok {
		return
	}
	form.ID = id
	page := h.editPage(form)

	b, fieldErrs := form.Book()
	if len(fieldErrs) > 0 {
		page.Errors = fieldErrs
		h.render(w, r, http.StatusUnprocessableEntity, web.PageForm, page)
		return
	}

	if _, err := h.service.Update(r.Context(), id, b); err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		h.renderSaveError(w, r, page, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Delete handles POST /delete/{id}
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if id, ok := pathID(r); ok {
		if err := h.service.Delete(r.Context(), id); err != nil {
			h.log(r).Error("delete book failed", zap.Int64("book_id", id), zap.Error(err))
		}
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// APIList handles GET /api/books
func (h *HTTPHandler) APIList(w http.ResponseWriter, r *http.Request) {
	order := ParseOrder(r.URL.Query().Get("sort"), r.URL.Query().Get("desc"))
	books, err := h.service.List(r.Context(), order)
	if err != nil {
		h.log(r).Error("list books failed", zap.Error(err))
		httpx.JSONErrorWithRequest(r, w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	httpx.JSONSuccessWithRequest(r, w, books, map[string]any{
		"total": len(books),
		"sort":  string(order.Field),
		"desc":  order.Desc,
	})
}

// APIGet handles GET /api/books/{id}
func (h *HTTPHandler) APIGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "INVALID_ID", "id must be a positive integer", nil)
		return
	}
	b, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.JSONErrorWithRequest(r, w, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
			return
		}
		h.log(r).Error("get book failed", zap.Int64("book_id", id), zap.Error(err))
		httpx.JSONErrorWithRequest(r, w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	httpx.JSONSuccessWithRequest(r, w, b, nil)
}

func (h *HTTPHandler) addPage(form FormValues) FormPage {
	return FormPage{Heading: "Add New Book", Submit: "Add Book", Action: "/add", MaxDate: h.today(), Form: form}
}

func (h *HTTPHandler) editPage(form FormValues) FormPage {
	return FormPage{
		Heading: "Edit Book",
		Submit:  "Save Changes",
		Action:  "/update/" + strconv.FormatInt(form.ID, 10),
		MaxDate: h.today(),
		Form:    form,
	}
}

func (h *HTTPHandler) today() string {
	return h.now().Format(DateLayout)
}

func (h *HTTPHandler) renderSaveError(w http.ResponseWriter, r *http.Request, page FormPage, err error) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		page.Errors = verr.Fields
		h.render(w, r, http.StatusUnprocessableEntity, web.PageForm, page)
		return
	}
	h.log(r).Error("save book failed", zap.Int64("book_id", page.Form.ID), zap.Error(err))
	page.Error = genericErrorMessage
	h.render(w, r, http.StatusInternalServerError, web.PageForm, page)
}

func (h *HTTPHandler) parseForm(w http.ResponseWriter, r *http.Request) (FormValues, bool) {
	if err := r.ParseForm(); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return FormValues{}, false
		}
		http.Error(w, "invalid form", http.StatusBadRequest)
		return FormValues{}, false
	}
	return FormValues{
		Title:    strings.TrimSpace(r.PostForm.Get("title")),
		Author:   strings.TrimSpace(r.PostForm.Get("author")),
		Review:   strings.TrimSpace(r.PostForm.Get("review")),
		Rating:   strings.TrimSpace(r.PostForm.Get("rating")),
		DateRead: strings.TrimSpace(r.PostForm.Get("date_read")),
		ISBN:     strings.TrimSpace(r.PostForm.Get("isbn")),
		CoverURL: strings.TrimSpace(r.PostForm.Get("cover_url")),
	}, true
}

func (h *HTTPHandler) render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	if err := h.views.Render(w, status, page, data); err != nil {
		h.log(r).Error("render page failed", zap.String("page", page), zap.Error(err))
		http.Error(w, genericErrorMessage, http.StatusInternalServerError)
	}
}

func (h *HTTPHandler) log(r *http.Request) *zap.Logger {
	return h.logger.With(zap.String("request_id", httpx.RequestIDFrom(r)))
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Book converts the raw form into a Book. Only parse failures are reported
// here; field rules are enforced by Validate.
func (f FormValues) Book() (Book, []FieldError) {
	b := Book{
		ID:     f.ID,
		Title:  f.Title,
		Author: f.Author,
		Review: f.Review,
		ISBN:   f.ISBN,
	}
	var errs []FieldError

	if f.Rating != "" {
		n, err := strconv.Atoi(f.Rating)
		if err != nil {
			errs = append(errs, FieldError{Field: "rating", Message: "rating must be a whole number"})
		} else {
			b.Rating = &n
		}
	}
	if f.DateRead != "" {
		d, err := time.Parse(DateLayout, f.DateRead)
		if err != nil {
			errs = append(errs, FieldError{Field: "date_read", Message: "date_read must be a date (YYYY-MM-DD)"})
		} else {
			b.DateRead = &d
		}
	}
	if f.CoverURL != "" {
		u := f.CoverURL
		b.CoverURL = &u
	}
	return b, errs
}

// FormValuesFrom pre-fills the edit form from a stored book.
func FormValuesFrom(b Book) FormValues {
	f := FormValues{
		ID:       b.ID,
		Title:    b.Title,
		Author:   b.Author,
		Review:   b.Review,
		DateRead: b.DateReadString(),
		ISBN:     b.ISBN,
	}
	if b.Rating != nil {
		f.Rating = strconv.Itoa(*b.Rating)
	}
	if b.CoverURL != nil {
		f.CoverURL = *b.CoverURL
	}
	return f
}
