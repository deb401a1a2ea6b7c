package api

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"github.com/osstd/The-Blog/internal/db/entities"
	"github.com/osstd/The-Blog/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page is the data every template receives.
type Page struct {
	Title       string
	CurrentUser *entities.User
	Flashes     []session.Flash
	SiteKey     string
	Data        any
}

// Renderer executes the embedded HTML templates.
type Renderer struct {
	templates *template.Template
	logger    *zap.SugaredLogger
}

func NewRenderer(logger *zap.SugaredLogger) (*Renderer, error) {
	funcs := template.FuncMap{
		// Post and comment bodies are escaped at input time, so rendering
		// them verbatim cannot reintroduce markup.
		"raw": func(s string) template.HTML { return template.HTML(s) },
	}

	t, err := template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Renderer{templates: t, logger: logger}, nil
}

func (rd *Renderer) Render(w http.ResponseWriter, status int, name string, page *Page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	if err := rd.templates.ExecuteTemplate(w, name, page); err != nil {
		rd.logger.Errorw("template render failed", "template", name, "error", err)
	}
}
