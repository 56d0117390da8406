package starlark

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/neurodesk/mustache/pkg/mustache"
	"go.starlark.net/starlark"
)

// NewEvaluatorWithRenderer creates a Starlark evaluator whose scripts can
// render Mustache templates through r, sharing its partials and options.
func NewEvaluatorWithRenderer(r *mustache.Renderer) *Evaluator {
	e := NewEvaluator()
	for k, v := range CreateBuiltinsWithRenderer(r) {
		e.builtins[k] = v
	}
	return e
}

// CreateBuiltinsWithRenderer creates the render and escape builtins.
//
//	render(template, data=None) renders template against data.
//	escape(text) applies the renderer's escape function.
func CreateBuiltinsWithRenderer(r *mustache.Renderer) starlark.StringDict {
	escape := mustache.HTMLEscape
	if r.Options.Escape != nil {
		escape = r.Options.Escape
	}

	return starlark.StringDict{
		"render": starlark.NewBuiltin("render", func(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var src string
			var data starlark.Value = starlark.None
			if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "template", &src, "data?", &data); err != nil {
				return nil, err
			}

			tmpl, err := mustache.Parse(src)
			if err != nil {
				return nil, fmt.Errorf("parsing template: %w", err)
			}
			out, err := r.Render(tmpl, mustache.NewContext(ConvertFromStarlark(data)))
			if err != nil {
				return nil, fmt.Errorf("rendering template: %w", err)
			}
			return starlark.String(out), nil
		}),

		"escape": starlark.NewBuiltin("escape", func(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var text string
			if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &text); err != nil {
				return nil, err
			}
			return starlark.String(escape(text)), nil
		}),
	}
}

// CreateBuiltins creates the builtins available to every script.
func CreateBuiltins(logger *slog.Logger) starlark.StringDict {
	return starlark.StringDict{
		"print": starlark.NewBuiltin("print", func(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var buf []string
			for i := 0; i < len(args); i++ {
				if s, ok := args[i].(starlark.String); ok {
					buf = append(buf, string(s))
				} else {
					buf = append(buf, args[i].String())
				}
			}
			logger.Info(strings.Join(buf, " "), "thread", thread.Name)
			return starlark.None, nil
		}),
	}
}
