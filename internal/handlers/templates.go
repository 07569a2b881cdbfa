package handlers

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"sync"

	"github.com/alextreichler/tienda/internal/forms"
	"github.com/alextreichler/tienda/internal/media"
	"github.com/shopspring/decimal"
)

const layoutFile = "layout.html"

// TemplateCache holds parsed templates, one per page, each parsed together
// with the shared layout.
type TemplateCache struct {
	cache map[string]*template.Template
	mu    sync.RWMutex
	funcs template.FuncMap
}

func NewTemplateCache() *TemplateCache {
	return &TemplateCache{
		cache: make(map[string]*template.Template),
		funcs: make(template.FuncMap),
	}
}

// Load parses every page in fsys.
func (tc *TemplateCache) Load(fsys fs.FS) error {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	// Add global template functions
	tc.funcs["prevPage"] = func(currentPage int) int {
		return currentPage - 1
	}
	tc.funcs["nextPage"] = func(currentPage int) int {
		return currentPage + 1
	}
	tc.funcs["money"] = func(d decimal.Decimal) string {
		return d.StringFixed(2)
	}
	tc.funcs["rating"] = func(avg *float64) string {
		if avg == nil {
			return "no ratings yet"
		}
		return fmt.Sprintf("%.1f", *avg)
	}
	tc.funcs["stars"] = func(n int) string {
		return strings.Repeat("★", n)
	}
	tc.funcs["mediaURL"] = media.URL
	tc.funcs["quantityField"] = forms.QuantityField

	files, err := fs.Glob(fsys, "*.html")
	if err != nil {
		return err
	}
	for _, file := range files {
		name := path.Base(file)
		if name == layoutFile {
			continue
		}
		tmpl, err := template.New(name).Funcs(tc.funcs).ParseFS(fsys, layoutFile, file)
		if err != nil {
			slog.Error("Failed to parse template", "file", file, "error", err)
			return err
		}
		tc.cache[name] = tmpl
		slog.Debug("Cached template", "name", name)
	}
	return nil
}

func (tc *TemplateCache) Get(name string) *template.Template {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.cache[name]
}

// Render executes the page into a buffer first so a template error never
// leaves a half-written response.
func (tc *TemplateCache) Render(w http.ResponseWriter, status int, name string, data interface{}) error {
	tmpl := tc.Get(name)
	if tmpl == nil {
		return fmt.Errorf("template %s not found", name)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, layoutFile, data); err != nil {
		return fmt.Errorf("execute template %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
