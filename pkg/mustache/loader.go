package mustache

import (
	"errors"
	"fmt"
	"io/fs"
)

// PartialResolver maps a partial name to its template source. A missing
// partial is reported with ok == false, not an error; err is reserved for
// resolvers that can fail, such as ones reading from disk.
type PartialResolver interface {
	Resolve(name string) (source string, ok bool, err error)
}

// ResolverFunc adapts a function to PartialResolver.
type ResolverFunc func(name string) (string, bool, error)

func (f ResolverFunc) Resolve(name string) (string, bool, error) { return f(name) }

// MapResolver serves partials from memory.
type MapResolver map[string]string

func (m MapResolver) Resolve(name string) (string, bool, error) {
	s, ok := m[name]
	return s, ok, nil
}

// ChainResolver tries each resolver in order and returns the first hit.
type ChainResolver []PartialResolver

func (c ChainResolver) Resolve(name string) (string, bool, error) {
	for _, r := range c {
		if r == nil {
			continue
		}
		s, ok, err := r.Resolve(name)
		if err != nil || ok {
			return s, ok, err
		}
	}
	return "", false, nil
}

// NoPartials resolves nothing.
var NoPartials PartialResolver = MapResolver(nil)

// FSResolver reads partials from a filesystem. The partial "row" is read
// from "row"+Ext. File contents are decoded with Options.
type FSResolver struct {
	FS      fs.FS
	Ext     string
	Options Options
}

func (r FSResolver) Resolve(name string) (string, bool, error) {
	file := name + r.Ext
	if !fs.ValidPath(file) {
		return "", false, nil
	}
	b, err := fs.ReadFile(r.FS, file)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	src, err := r.Options.Decode(b)
	if err != nil {
		return "", false, fmt.Errorf("decoding partial %q: %w", file, err)
	}
	return src, true, nil
}
