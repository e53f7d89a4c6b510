package templates

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/a-h/templ"
)

// html is the writer behind the committed *_templ.go renderers. It keeps
// the first write error so components can emit markup without checking
// every call.
type html struct {
	ctx context.Context
	w   io.Writer
	err error
}

func component(fn func(h *html)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{ctx: ctx, w: w}
		fn(h)
		return h.err
	})
}

func (h *html) raw(s string) {
	if h.err == nil {
		_, h.err = io.WriteString(h.w, s)
	}
}

// text writes escaped content.
func (h *html) text(s string) {
	h.raw(templ.EscapeString(s))
}

// rawf formats markup with %s verbs only; every argument is escaped.
func (h *html) rawf(format string, args ...any) {
	esc := make([]any, len(args))
	for i, a := range args {
		esc[i] = templ.EscapeString(fmt.Sprint(a))
	}
	h.raw(fmt.Sprintf(format, esc...))
}

func (h *html) render(c templ.Component) {
	if h.err == nil && c != nil {
		h.err = c.Render(h.ctx, h.w)
	}
}

func (h *html) attr(name, value string) {
	h.raw(" " + name + `="` + templ.EscapeString(value) + `"`)
}

// attrs writes a spread of attributes in key order. True booleans render
// bare, false ones are dropped.
func (h *html) attrs(a templ.Attributes) {
	for _, k := range slices.Sorted(maps.Keys(a)) {
		switch v := a[k].(type) {
		case bool:
			if v {
				h.raw(" " + templ.EscapeString(k))
			}
		default:
			h.attr(templ.EscapeString(k), fmt.Sprint(v))
		}
	}
}
