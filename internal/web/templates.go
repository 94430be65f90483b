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
)

//go:embed templates
var embedded embed.FS

// TemplateEngine handles HTML template rendering
type TemplateEngine struct {
	files     fs.FS
	templates *template.Template
}

// NewTemplateEngine creates a new template engine reading from files. A nil
// files uses the templates compiled into the binary.
func NewTemplateEngine(files fs.FS) (*TemplateEngine, error) {
	if files == nil {
		sub, err := fs.Sub(embedded, "templates")
		if err != nil {
			return nil, err
		}
		files = sub
	}
	te := &TemplateEngine{files: files}
	if err := te.Load(); err != nil {
		return nil, err
	}
	return te, nil
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"dict": func(values ...interface{}) (map[string]interface{}, error) {
			if len(values)%2 != 0 {
				return nil, fmt.Errorf("dict: odd number of arguments")
			}
			dict := make(map[string]interface{}, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict: key %v is not a string", values[i])
				}
				dict[key] = values[i+1]
			}
			return dict, nil
		},
		"lower": strings.ToLower,
		"since": func(t time.Time) string {
			return time.Since(t).Round(time.Second).String()
		},
		"ts": func(t time.Time) string {
			return t.Local().Format("2006-01-02 15:04:05")
		},
	}
}

// Load parses all shared templates; pages are parsed on demand.
func (te *TemplateEngine) Load() error {
	tmpl := template.New("").Funcs(funcs())

	err := fs.WalkDir(te.files, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Skip pages directory - these are loaded on-demand
		if d.IsDir() && d.Name() == "pages" {
			return fs.SkipDir
		}

		if !d.IsDir() && path.Ext(p) == ".html" {
			_, err = tmpl.ParseFS(te.files, p)
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	te.templates = tmpl
	return nil
}

// Render renders a page inside the layout.
func (te *TemplateEngine) Render(w io.Writer, name string, data interface{}) error {
	// Clone base templates and parse page-specific template
	tmpl, err := te.templates.Clone()
	if err != nil {
		return err
	}

	tmpl, err = tmpl.ParseFS(te.files, path.Join("pages", name+".html"))
	if err != nil {
		return err
	}

	// Execute layout with content
	return tmpl.ExecuteTemplate(w, "layout", data)
}
