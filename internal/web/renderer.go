package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path"
	"sync"

	"github.com/gin-gonic/gin/render"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

const layoutName = "layout.html"

// TemplateRenderer реализует render.HTMLRender для gin поверх html/template.
// Каждая страница парсится вместе с layout.html в отдельный набор.
type TemplateRenderer struct {
	logger  *zap.Logger
	debug   bool // Если true, шаблоны перечитываются с диска при каждом рендере
	source  fs.FS
	funcMap template.FuncMap

	mu    sync.RWMutex
	pages map[string]*template.Template
}

// NewTemplateRenderer создает рендерер. При пустом templateDir используются
// встроенные шаблоны, иначе шаблоны читаются из каталога.
func NewTemplateRenderer(templateDir string, debug bool, logger *zap.Logger, funcMap template.FuncMap) (*TemplateRenderer, error) {
	var source fs.FS
	if templateDir != "" {
		source = os.DirFS(templateDir)
	} else {
		sub, err := fs.Sub(embeddedTemplates, "templates")
		if err != nil {
			return nil, fmt.Errorf("failed to open embedded templates: %w", err)
		}
		source = sub
	}

	merged := DefaultFuncMap()
	for name, fn := range funcMap {
		merged[name] = fn
	}

	r := &TemplateRenderer{
		logger:  logger.Named("TemplateRenderer"),
		debug:   debug,
		source:  source,
		funcMap: merged,
	}
	if err := r.loadTemplates(); err != nil {
		return nil, err
	}
	return r, nil
}

// loadTemplates парсит layout и все страницы.
func (t *TemplateRenderer) loadTemplates() error {
	names, err := fs.Glob(t.source, "*.html")
	if err != nil {
		return fmt.Errorf("failed to list templates: %w", err)
	}

	pages := make(map[string]*template.Template, len(names))
	for _, name := range names {
		if name == layoutName {
			continue
		}
		tmpl, err := t.parsePage(name)
		if err != nil {
			return err
		}
		pages[name] = tmpl
	}

	t.mu.Lock()
	t.pages = pages
	t.mu.Unlock()
	t.logger.Info("Templates loaded", zap.Int("pages", len(pages)), zap.Bool("debug", t.debug))
	return nil
}

func (t *TemplateRenderer) parsePage(name string) (*template.Template, error) {
	tmpl, err := template.New(layoutName).Funcs(t.funcMap).ParseFS(t.source, layoutName, name)
	if err != nil {
		t.logger.Error("Failed to parse templates", zap.String("layout", layoutName), zap.String("template", name), zap.Error(err))
		return nil, fmt.Errorf("failed to parse template %s: %w", path.Base(name), err)
	}
	return tmpl, nil
}

// Instance реализует render.HTMLRender.
func (t *TemplateRenderer) Instance(name string, data any) render.Render {
	if t.debug {
		tmpl, err := t.parsePage(name)
		if err != nil {
			return errorRender{err: err}
		}
		return render.HTML{Template: tmpl, Name: layoutName, Data: data}
	}

	t.mu.RLock()
	tmpl, ok := t.pages[name]
	t.mu.RUnlock()
	if !ok {
		t.logger.Error("Template not found in preloaded set", zap.String("templateName", name))
		return errorRender{err: fmt.Errorf("template %s not found", name)}
	}
	return render.HTML{Template: tmpl, Name: layoutName, Data: data}
}
