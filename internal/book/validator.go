package book

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	validate   *validator.Validate
	isbn10Expr = regexp.MustCompile(`^\d{9}[\dX]$`)
	isbn13Expr = regexp.MustCompile(`^\d{13}$`)
)

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("isbn", validateISBN)
}

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned by the Service when input is rejected.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return "invalid book: " + strings.Join(msgs, "; ")
}

// input is the validated shape of a Book.
type input struct {
	Title    string `validate:"required,max=500"`
	Author   string `validate:"required,max=300"`
	Review   string `validate:"max=20000"`
	Rating   *int   `validate:"omitempty,gte=1,lte=5"`
	ISBN     string `validate:"omitempty,isbn"`
	CoverURL string `validate:"omitempty,url,max=2048"`
}

// NormalizeISBN drops the hyphens and spaces people type into ISBNs.
func NormalizeISBN(isbn string) string {
	isbn = strings.ReplaceAll(isbn, "-", "")
	isbn = strings.ReplaceAll(isbn, " ", "")
	return strings.ToUpper(isbn)
}

func validateISBN(fl validator.FieldLevel) bool {
	isbn := NormalizeISBN(fl.Field().String())
	switch len(isbn) {
	case 10:
		return isbn10Expr.MatchString(isbn)
	case 13:
		return isbn13Expr.MatchString(isbn)
	}
	return false
}

// Validate checks required fields and ranges. It returns nil or a *ValidationError.
func Validate(b Book) error {
	in := input{
		Title:  strings.TrimSpace(b.Title),
		Author: strings.TrimSpace(b.Author),
		Review: b.Review,
		Rating: b.Rating,
		ISBN:   strings.TrimSpace(b.ISBN),
	}
	if b.CoverURL != nil {
		in.CoverURL = strings.TrimSpace(*b.CoverURL)
	}

	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var fields []FieldError
	for _, fe := range err.(validator.ValidationErrors) {
		field := toSnake(fe.Field())
		var message string
		switch fe.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", field)
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		case "gte", "lte":
			message = fmt.Sprintf("%s must be between 1 and 5", field)
		case "isbn":
			message = fmt.Sprintf("%s must be a valid ISBN (10 or 13 digits)", field)
		case "url":
			message = fmt.Sprintf("%s must be an absolute URL", field)
		default:
			message = fmt.Sprintf("%s is invalid", field)
		}
		fields = append(fields, FieldError{Field: field, Message: message})
	}
	return &ValidationError{Fields: fields}
}

func toSnake(field string) string {
	switch field {
	case "CoverURL":
		return "cover_url"
	case "ISBN":
		return "isbn"
	}
	return strings.ToLower(field)
}
