package starlark

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/neurodesk/mustache/pkg/mustache"
	"go.starlark.net/starlark"
)

// Evaluator runs Starlark code that produces Mustache context data,
// including lambdas. An Evaluator is not safe for concurrent use; the
// lambdas it produces are.
type Evaluator struct {
	thread   *starlark.Thread
	builtins starlark.StringDict
	globals  starlark.StringDict
}

// NewEvaluator creates a new Starlark evaluator that logs print output to
// the default slog logger.
func NewEvaluator() *Evaluator {
	return NewEvaluatorWithLogger(slog.Default())
}

// NewEvaluatorWithLogger creates a new Starlark evaluator that logs print
// output to logger.
func NewEvaluatorWithLogger(logger *slog.Logger) *Evaluator {
	thread := &starlark.Thread{Name: "mustache"}
	return &Evaluator{
		thread:   thread,
		builtins: CreateBuiltins(logger),
		globals:  make(starlark.StringDict),
	}
}

// SetGlobal sets a global variable in the Starlark environment
func (e *Evaluator) SetGlobal(name string, value mustache.Value) {
	e.globals[name] = ConvertToStarlark(value)
}

// SetGlobalStarlark sets a global variable using a native Starlark value
func (e *Evaluator) SetGlobalStarlark(name string, value starlark.Value) {
	e.globals[name] = value
}

func (e *Evaluator) predeclared() starlark.StringDict {
	predeclared := make(starlark.StringDict, len(e.builtins)+len(e.globals))
	for k, v := range e.builtins {
		predeclared[k] = v
	}
	for k, v := range e.globals {
		predeclared[k] = v
	}
	return predeclared
}

// Eval evaluates a Starlark expression and returns the result as a mustache
// Value. A function or lambda expression yields a LambdaValue.
func (e *Evaluator) Eval(expr string) (mustache.Value, error) {
	val, err := starlark.Eval(e.thread, "<eval>", expr, e.predeclared())
	if err != nil {
		return nil, fmt.Errorf("starlark evaluation error: %w", err)
	}
	return ConvertFromStarlark(val), nil
}

// ExecFile executes a Starlark file and returns the globals it defined
func (e *Evaluator) ExecFile(filename string, src interface{}) (starlark.StringDict, error) {
	globals, err := starlark.ExecFile(e.thread, filename, src, e.predeclared())
	if err != nil {
		return nil, fmt.Errorf("starlark execution error: %w", err)
	}

	// Update our globals with any new values
	for k, v := range globals {
		e.globals[k] = v
	}

	return globals, nil
}

// ExecString executes a Starlark script from a string
func (e *Evaluator) ExecString(script string) (starlark.StringDict, error) {
	return e.ExecFile("<script>", script)
}

// GetGlobal retrieves a global variable as a mustache Value
func (e *Evaluator) GetGlobal(name string) (mustache.Value, bool) {
	if val, ok := e.globals[name]; ok {
		return ConvertFromStarlark(val), true
	}
	return nil, false
}

// LoadContext loads variables from a mapping into the Starlark globals
func (e *Evaluator) LoadContext(ctx mustache.MapValue) {
	for key, value := range WrapContext(ctx) {
		e.globals[key] = value
	}
}

// ExportContext exports current Starlark globals as a mapping suitable for
// pushing onto a mustache.Context
func (e *Evaluator) ExportContext() mustache.MapValue {
	ctx := make(mustache.MapValue)
	for key, value := range e.globals {
		if !e.isExportableKey(key) {
			continue
		}
		ctx[key] = ConvertFromStarlark(value)
	}
	return ctx
}

// Globals returns the names of the exportable globals, sorted.
func (e *Evaluator) Globals() []string {
	var names []string
	for key := range e.globals {
		if e.isExportableKey(key) {
			names = append(names, key)
		}
	}
	sort.Strings(names)
	return names
}

// isExportableKey determines if a global variable should be exported
func (e *Evaluator) isExportableKey(key string) bool {
	// Skip built-in functions and variables starting with underscore
	if _, ok := e.builtins[key]; ok {
		return false
	}
	return key != "" && key[0] != '_'
}
