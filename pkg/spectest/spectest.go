// Package spectest loads Mustache conformance fixtures from YAML and runs
// them against the renderer.
//
// Fixture files follow the layout of the public Mustache specification:
// a top-level overview and a list of tests, each with a name, description,
// data, template, expected output and optional partials. Lambdas are written
// as !code mappings whose "starlark" entry is a Starlark expression.
package spectest

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"sort"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/neurodesk/mustache/pkg/mustache"
	"github.com/neurodesk/mustache/pkg/starlark"
	v "github.com/neurodesk/mustache/pkg/validator"

	"gopkg.in/yaml.v3"
)

//go:embed specs/*.yml
var Files embed.FS

// Suite is one fixture file.
type Suite struct {
	Name     string    `yaml:"-"`
	Overview string    `yaml:"overview"`
	Tests    []Fixture `yaml:"tests"`
}

func (s Suite) Validate() error {
	names := make([]string, len(s.Tests))
	for i, f := range s.Tests {
		names[i] = f.Name
	}
	return v.All(
		v.NotEmpty(s.Name, "suite name"),
		v.NoDuplicates(names, fmt.Sprintf("suite %q test names", s.Name)),
		v.Each(s.Tests),
	)
}

// Fixture is a single conformance case.
type Fixture struct {
	Name     string
	Desc     string
	Data     mustache.Value
	Template mustache.TemplateString
	Expected string
	Partials map[string]string
}

var fixtureFields = []string{"name", "desc", "data", "template", "expected", "partials"}

// UnmarshalYAML decodes a fixture, converting its data into mustache values
// and evaluating !code entries as Starlark lambdas.
func (f *Fixture) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: fixture must be a mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i]
		if !slices.Contains(fixtureFields, key.Value) {
			return fmt.Errorf("line %d: field %s not found in fixture", key.Line, key.Value)
		}
	}

	var raw struct {
		Name     string            `yaml:"name"`
		Desc     string            `yaml:"desc"`
		Data     yaml.Node         `yaml:"data"`
		Template string            `yaml:"template"`
		Expected string            `yaml:"expected"`
		Partials map[string]string `yaml:"partials"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	// Each fixture gets its own evaluator, so lambdas keeping state in the
	// predeclared "state" dict do not leak between fixtures.
	eval := starlark.NewEvaluator()
	eval.SetGlobal("state", mustache.MapValue{})
	data, err := decodeData(&raw.Data, eval)
	if err != nil {
		return fmt.Errorf("fixture %q: %w", raw.Name, err)
	}

	*f = Fixture{
		Name:     raw.Name,
		Desc:     raw.Desc,
		Data:     data,
		Template: mustache.TemplateString(raw.Template),
		Expected: raw.Expected,
		Partials: raw.Partials,
	}
	return nil
}

func decodeData(node *yaml.Node, eval *starlark.Evaluator) (mustache.Value, error) {
	switch node.Kind {
	case 0:
		return mustache.NullValue{}, nil
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return mustache.NullValue{}, nil
		}
		return decodeData(node.Content[0], eval)
	case yaml.AliasNode:
		return decodeData(node.Alias, eval)
	case yaml.MappingNode:
		if node.Tag == "!code" {
			return decodeCode(node, eval)
		}
		m := make(mustache.MapValue, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			val, err := decodeData(node.Content[i+1], eval)
			if err != nil {
				return nil, err
			}
			m[node.Content[i].Value] = val
		}
		return m, nil
	case yaml.SequenceNode:
		l := make(mustache.ListValue, len(node.Content))
		for i, item := range node.Content {
			val, err := decodeData(item, eval)
			if err != nil {
				return nil, err
			}
			l[i] = val
		}
		return l, nil
	case yaml.ScalarNode:
		var x any
		if err := node.Decode(&x); err != nil {
			return nil, fmt.Errorf("line %d: %w", node.Line, err)
		}
		return mustache.FromGo(x), nil
	}
	return nil, fmt.Errorf("line %d: unsupported yaml node kind %d", node.Line, node.Kind)
}

// decodeCode evaluates the "starlark" entry of a !code mapping. Entries for
// other languages are ignored.
func decodeCode(node *yaml.Node, eval *starlark.Evaluator) (mustache.Value, error) {
	var code map[string]string
	if err := node.Decode(&code); err != nil {
		return nil, fmt.Errorf("line %d: %w", node.Line, err)
	}
	src, ok := code["starlark"]
	if !ok {
		return nil, fmt.Errorf("line %d: !code entry has no starlark source", node.Line)
	}
	val, err := eval.Eval(src)
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", node.Line, err)
	}
	return val, nil
}

func (f Fixture) Validate() error {
	return v.All(
		v.NotEmpty(f.Name, "fixture name"),
		f.Template.Validate(),
		v.MapDict(f.Partials, func(name string, src string) error {
			return v.All(
				v.NotEmpty(name, "partial name"),
				v.HasNoTags(name, fmt.Sprintf("partial name %q", name)),
				mustache.TemplateString(src).Validate(),
			)
		}, "partials"),
	)
}

// Render renders the fixture's template against its data and partials.
func (f Fixture) Render(opts mustache.Options) (string, error) {
	return f.Template.Render(mustache.NewContext(f.Data), opts, mustache.MapResolver(f.Partials))
}

// Check renders the fixture and compares the output with Expected.
func (f Fixture) Check(opts mustache.Options) error {
	got, err := f.Render(opts)
	if err != nil {
		return fmt.Errorf("%s: %w", f.Name, err)
	}
	if got != f.Expected {
		return fmt.Errorf("%s: output mismatch (-want +got):\n%s", f.Name, cmp.Diff(f.Expected, got))
	}
	return nil
}

// Check runs every fixture in the suite and returns one error per failure.
func (s Suite) Check(opts mustache.Options) []error {
	var errs []error
	for _, f := range s.Tests {
		if err := f.Check(opts); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
		}
	}
	return errs
}

// LoadFile decodes and validates one fixture file. The suite is named after
// the file.
func LoadFile(fsys fs.FS, name string) (Suite, error) {
	content, err := fs.ReadFile(fsys, name)
	if err != nil {
		return Suite{}, fmt.Errorf("reading %q: %w", name, err)
	}
	var s Suite
	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return Suite{}, fmt.Errorf("failed to decode fixtures %q: %w", name, err)
	}
	s.Name = strings.TrimSuffix(path.Base(name), path.Ext(name))
	if err := s.Validate(); err != nil {
		return Suite{}, fmt.Errorf("invalid fixtures %q: %w", name, err)
	}
	return s, nil
}

// Load loads every file in fsys matching the glob patterns, in name order.
func Load(fsys fs.FS, patterns ...string) ([]Suite, error) {
	var names []string
	for _, pattern := range patterns {
		matches, err := fs.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("matching %q: %w", pattern, err)
		}
		names = append(names, matches...)
	}
	sort.Strings(names)
	names = slices.Compact(names)

	suites := make([]Suite, 0, len(names))
	for _, name := range names {
		s, err := LoadFile(fsys, name)
		if err != nil {
			return nil, err
		}
		suites = append(suites, s)
	}
	return suites, nil
}

// Builtin loads the embedded fixture corpus.
func Builtin() ([]Suite, error) {
	return Load(Files, "specs/*.yml")
}
