package mustache

import (
	"fmt"
)

// TemplateString is template source held in configuration, such as a test
// fixture. It is parsed on use.
type TemplateString string

func (t TemplateString) Validate() error {
	if _, err := Parse(string(t)); err != nil {
		return fmt.Errorf("invalid mustache template: %w", err)
	}
	return nil
}

func (t TemplateString) Render(ctx *Context, opts Options, resolver PartialResolver) (string, error) {
	tmpl, err := Parse(string(t))
	if err != nil {
		return "", fmt.Errorf("parsing mustache template: %w", err)
	}
	return Render(tmpl, ctx, opts, resolver)
}

// RenderString parses text and renders it against data with default options.
// partials may be nil.
func RenderString(text string, data any, partials map[string]string) (string, error) {
	return TemplateString(text).Render(NewContext(data), DefaultOptions(), MapResolver(partials))
}
