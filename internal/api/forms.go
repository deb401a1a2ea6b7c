package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/osstd/The-Blog/internal/blog"
	"github.com/osstd/The-Blog/internal/db/interfaces"
)

func formValue(r *http.Request, name string) string {
	return strings.TrimSpace(r.FormValue(name))
}

// urlID parses a numeric id out of the route. Zero means the path segment
// was not a valid id.
func urlID(r *http.Request, name string) interfaces.ID {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return interfaces.ID(id)
}

type registerForm struct {
	Email    string
	Password string
	Name     string
}

func parseRegisterForm(r *http.Request) registerForm {
	return registerForm{
		Email:    formValue(r, "email"),
		Password: r.FormValue("password"),
		Name:     formValue(r, "name"),
	}
}

type loginForm struct {
	Email    string
	Password string
}

func parseLoginForm(r *http.Request) loginForm {
	return loginForm{
		Email:    formValue(r, "email"),
		Password: r.FormValue("password"),
	}
}

func parsePostForm(r *http.Request) blog.PostInput {
	return blog.PostInput{
		Title:    formValue(r, "title"),
		Subtitle: formValue(r, "subtitle"),
		Body:     formValue(r, "body"),
		ImgURL:   formValue(r, "img_url"),
	}
}

// parseRatingValue reads the submitted rating. A malformed number comes back
// out of range so the service rejects it with the user-facing message.
func parseRatingValue(r *http.Request) float64 {
	value, err := strconv.ParseFloat(formValue(r, "rating"), 64)
	if err != nil {
		return -1
	}
	return value
}

type contactForm struct {
	Name    string
	Email   string
	Phone   string
	Message string
}

func parseContactForm(r *http.Request) contactForm {
	return contactForm{
		Name:    formValue(r, "name"),
		Email:   formValue(r, "email"),
		Phone:   formValue(r, "phone"),
		Message: formValue(r, "message"),
	}
}
