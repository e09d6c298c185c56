// Package templates is the presentational component library and the page
// set of the web frontend. Components are stateless html/template partials
// driven only by their props. Pages are exposed as templ.Component values so
// handlers render them through middleware.Render.
package templates

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"strings"

	"github.com/a-h/templ"

	"github.com/keyxmakerx/studentdesk/internal/templates/layouts"
)

//go:embed html
var files embed.FS

//go:embed static
var static embed.FS

var (
	// components holds the partials plus the base layout.
	components *template.Template

	// pages maps a page name ("auth/login") to its own clone of components.
	pages map[string]*template.Template
)

func init() {
	var err error
	components, pages, err = parse(files)
	if err != nil {
		panic(err)
	}
}

// parse builds the shared set, then one clone per page so every page can
// define its own "title" and "content" blocks.
func parse(fsys fs.FS) (*template.Template, map[string]*template.Template, error) {
	base, err := template.New("").Funcs(funcs).ParseFS(fsys, "html/components/*.html", "html/layouts/*.html")
	if err != nil {
		return nil, nil, fmt.Errorf("parsing components: %w", err)
	}

	out := make(map[string]*template.Template)
	err = fs.WalkDir(fsys, "html/pages", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".html") {
			return err
		}
		t, err := base.Clone()
		if err != nil {
			return err
		}
		if _, err := t.ParseFS(fsys, path); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
		out[strings.TrimSuffix(strings.TrimPrefix(path, "html/pages/"), ".html")] = t
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return base, out, nil
}

// view is the value every page executes with.
type view struct {
	Layout layouts.Data
	Data   any
}

// Page renders the named page inside the base layout.
func Page(name string, data any) templ.Component {
	return pageComponent(name, "base", data)
}

// Fragment renders only the named page's content block, for HTMX swaps.
func Fragment(name string, data any) templ.Component {
	return pageComponent(name, "content", data)
}

func pageComponent(name, entry string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		t, ok := pages[name]
		if !ok {
			return fmt.Errorf("unknown page %q", name)
		}
		return t.ExecuteTemplate(w, entry, view{Layout: layouts.FromContext(ctx), Data: data})
	})
}

// Component renders one library component with props, e.g.
// Component("button", Props{"Label": "Save"}).
func Component(name string, props any) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if components.Lookup(name) == nil {
			return fmt.Errorf("unknown component %q", name)
		}
		return components.ExecuteTemplate(w, name, props)
	})
}

// Static returns the stylesheet and other assets served under /static.
func Static() fs.FS {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// ErrorView backs the error page.
type ErrorView struct {
	Code    int
	Message string
}

// Props is a component's property set.
type Props map[string]any

// MenuItem is one entry of a dropdown menu. Items with Method "post" are
// rendered as forms so they can change state.
type MenuItem struct {
	Label  string
	Href   string
	Method string
	Danger bool
}

var funcs = template.FuncMap{
	// props builds a Props from alternating keys and values so pages can
	// pass several props to a component.
	"props": func(pairs ...any) (Props, error) {
		if len(pairs)%2 != 0 {
			return nil, fmt.Errorf("props: odd number of arguments")
		}
		p := make(Props, len(pairs)/2)
		for i := 0; i < len(pairs); i += 2 {
			key, ok := pairs[i].(string)
			if !ok {
				return nil, fmt.Errorf("props: key %v is not a string", pairs[i])
			}
			p[key] = pairs[i+1]
		}
		return p, nil
	},
	"menu": func(items ...MenuItem) []MenuItem { return items },
	"item": func(label, href, method string, danger bool) MenuItem {
		return MenuItem{Label: label, Href: href, Method: method, Danger: danger}
	},
}
