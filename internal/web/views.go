package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-intake/pkg/consultation"
)

//go:embed templates/*.tpl
var embeddedTemplates embed.FS

// views renders pongo2 templates from an fs.FS. Compiled templates are
// cached by name.
type views struct {
	mu        sync.RWMutex
	set       *pongo2.TemplateSet
	templates map[string]*pongo2.Template
	ext       string
}

func newViews(files fs.FS, globals map[string]any) (*views, error) {
	if files == nil {
		sub, err := fs.Sub(embeddedTemplates, "templates")
		if err != nil {
			return nil, fmt.Errorf("web: templates: %w", err)
		}
		files = sub
	}
	v := &views{
		set:       pongo2.NewSet("intake", pongo2.NewFSLoader(files)),
		templates: make(map[string]*pongo2.Template),
		ext:       ".tpl",
	}
	registerFilters()

	if len(globals) > 0 {
		ctx, err := toContext(globals)
		if err != nil {
			return nil, fmt.Errorf("web: global data: %w", err)
		}
		if v.set.Globals == nil {
			v.set.Globals = make(pongo2.Context)
		}
		v.set.Globals.Update(ctx)
	}
	return v, nil
}

func (v *views) render(w io.Writer, name string, data map[string]any) error {
	if v == nil || v.set == nil {
		return errors.New("web: views not initialised")
	}
	path := name
	if !strings.HasSuffix(path, v.ext) {
		path += v.ext
	}
	tmpl, err := v.template(path)
	if err != nil {
		return err
	}
	ctx, err := toContext(data)
	if err != nil {
		return fmt.Errorf("web: convert data for %q: %w", path, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteWriter(ctx, &buf); err != nil {
		return fmt.Errorf("web: execute template %q: %w", path, err)
	}
	_, err = buf.WriteTo(w)
	return err
}

func (v *views) template(path string) (*pongo2.Template, error) {
	v.mu.RLock()
	tmpl, ok := v.templates[path]
	v.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if tmpl, ok := v.templates[path]; ok {
		return tmpl, nil
	}
	tmpl, err := v.set.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("web: load template %q: %w", path, err)
	}
	v.templates[path] = tmpl
	return tmpl, nil
}

// toContext normalises view data through JSON so templates see the same
// lower-case keys the API serves.
func toContext(data map[string]any) (pongo2.Context, error) {
	out := make(pongo2.Context, len(data))
	for key, value := range data {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		out[key] = integral(decoded)
	}
	return out, nil
}

// integral turns whole JSON numbers back into ints so templates print "2"
// rather than "2.000000".
func integral(v any) any {
	switch t := v.(type) {
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1<<53 {
			return int(t)
		}
		return t
	case map[string]any:
		for key, item := range t {
			t[key] = integral(item)
		}
		return t
	case []any:
		for i, item := range t {
			t[i] = integral(item)
		}
		return t
	default:
		return v
	}
}

var filtersOnce sync.Once

func registerFilters() {
	filtersOnce.Do(func() {
		if !pongo2.FilterExists("trim") {
			_ = pongo2.RegisterFilter("trim", filterTrim)
		}
		if !pongo2.FilterExists("money") {
			_ = pongo2.RegisterFilter("money", filterMoney)
		}
	})
}

func filterTrim(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if in.Len() <= 0 {
		return pongo2.AsValue(""), nil
	}
	return pongo2.AsValue(strings.TrimSpace(in.String())), nil
}

// filterMoney renders a whole amount with thousands separators.
func filterMoney(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsValue(consultation.FormatAmount(in.Float())), nil
}
