package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/dmitrijs2005/portfolio/internal/common"
	"github.com/dmitrijs2005/portfolio/internal/server/models"
	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// View is the data every page template receives.
type View struct {
	Title    string
	User     models.Identity
	Notice   *Notice
	Warning  string
	Tech     []models.Technology
	Projects []*models.Project
	Project  *models.Project
}

var templateFuncs = template.FuncMap{
	"isExist": func(list []string, v string) bool {
		for _, item := range list {
			if item == v {
				return true
			}
		}
		return false
	},
	"techName": models.TechName,
	"formatDate": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format(common.DateLayout)
	},
	"isOwner": func(user models.Identity, p *models.Project) bool {
		return user.Owns(p)
	},
}

// renderer implements echo.Renderer over one template set per page, each
// combining layout.html with the page file.
type renderer struct {
	pages map[string]*template.Template
}

func newRenderer() (*renderer, error) {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	r := &renderer{pages: make(map[string]*template.Template)}
	for _, f := range files {
		name := strings.TrimSuffix(path.Base(f), ".html")
		if name == "layout" {
			continue
		}
		t, err := template.New("layout.html").Funcs(templateFuncs).
			ParseFS(templateFS, "templates/layout.html", f)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", f, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

func (r *renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	return t.ExecuteTemplate(w, "layout.html", data)
}

// render fills the per-request parts of v and renders page.
func (s *Server) render(c echo.Context, status int, page string, v View) error {
	v.User = identity(c)
	if v.Notice == nil {
		v.Notice = s.takeFlash(c)
	}
	if v.Tech == nil {
		v.Tech = models.Technologies
	}
	return c.Render(status, page, v)
}
