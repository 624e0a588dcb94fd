package web

import (
	"fmt"
	"maps"
	"sort"
	"strings"

	theme "github.com/goliatone/go-theme"
)

// DefaultManifest is the built-in brand theme.
func DefaultManifest() *theme.Manifest {
	return &theme.Manifest{
		Name:    "intake",
		Version: "1.0.0",
		Tokens: map[string]string{
			"color-bg":      "#ffffff",
			"color-text":    "#1f2933",
			"color-primary": "#2563eb",
			"color-error":   "#dc2626",
			"color-success": "#16a34a",
			"radius":        "0.5rem",
			"font-family":   "system-ui, sans-serif",
		},
		Assets: theme.Assets{
			Prefix: "/static",
		},
		Variants: map[string]theme.Variant{
			"dark": {
				Tokens: map[string]string{
					"color-bg":      "#0f172a",
					"color-text":    "#e2e8f0",
					"color-primary": "#60a5fa",
				},
			},
		},
	}
}

// resolveTheme registers manifest and flattens the chosen variant into the
// renderer config templates consume. Unknown variants fall back to the base
// tokens.
func resolveTheme(manifest *theme.Manifest, variant string) (*theme.RendererConfig, error) {
	if manifest == nil {
		manifest = DefaultManifest()
	}
	registry := theme.NewRegistry()
	if err := registry.Register(manifest); err != nil {
		return nil, fmt.Errorf("web: register theme %q: %w", manifest.Name, err)
	}

	tokens := maps.Clone(manifest.Tokens)
	if tokens == nil {
		tokens = map[string]string{}
	}
	if v, ok := manifest.Variants[variant]; ok {
		maps.Copy(tokens, v.Tokens)
	} else {
		variant = ""
	}

	vars := make(map[string]string, len(tokens))
	for key, value := range tokens {
		vars["--"+strings.TrimPrefix(key, "--")] = value
	}

	prefix := strings.TrimRight(manifest.Assets.Prefix, "/")
	return &theme.RendererConfig{
		Theme:   manifest.Name,
		Variant: variant,
		Tokens:  tokens,
		CSSVars: vars,
		AssetURL: func(key string) string {
			if key == "" {
				return ""
			}
			return prefix + "/" + strings.TrimLeft(key, "/")
		},
	}, nil
}

func cssVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(":root {\n")
	for _, key := range keys {
		fmt.Fprintf(&b, "  %s: %s;\n", key, vars[key])
	}
	b.WriteString("}")
	return b.String()
}
