package http

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/dustin/go-humanize"
	"quizdesk/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{
	"login",
	"register",
	"index",
	"admin_dashboard",
	"create_quiz",
	"add_question",
	"view_questions",
	"view_attempts",
	"take_quiz",
	"quiz_result",
	"my_scores",
}

// page is the value every template executes against.
type page struct {
	Title    string
	Identity *domain.Identity
	Flashes  []string
	Data     any
}

type views struct {
	pages map[string]*template.Template
}

func parseViews() (*views, error) {
	funcs := template.FuncMap{
		"ago":   humanize.Time,
		"stamp": func(t time.Time) string { return t.UTC().Format("2006-01-02 15:04:05 UTC") },
	}
	v := &views{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		v.pages[name] = tmpl
	}
	return v, nil
}

func (v *views) execute(name string, p page) ([]byte, error) {
	tmpl, ok := v.pages[name]
	if !ok {
		return nil, fmt.Errorf("unknown template %s", name)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", p); err != nil {
		return nil, fmt.Errorf("execute template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
