package render

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrUnsupportedTemplate is returned for template files no renderer handles
var ErrUnsupportedTemplate = errors.New("unsupported template format")

// Renderer fills a template with one record's values
type Renderer interface {
	// Ext is the extension of rendered files, including the dot
	Ext() string
	Render(data map[string]interface{}, w io.Writer) error
}

// Open loads the template at path and picks a renderer by its extension
func Open(path string) (Renderer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}
	return FromBytes(filepath.Base(path), data)
}

// FromBytes builds a renderer for a template held in memory. name is only
// used for its extension.
func FromBytes(name string, data []byte) (Renderer, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".docx":
		return NewDocxRenderer(data)
	case ".xlsx":
		return NewXlsxRenderer(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedTemplate, filepath.Ext(name))
	}
}

var placeholder = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// Substitute replaces {key} placeholders with values from data. Unknown
// keys are left untouched.
func Substitute(s string, data map[string]interface{}) string {
	return placeholder.ReplaceAllStringFunc(s, func(m string) string {
		v, ok := data[m[1:len(m)-1]]
		if !ok {
			return m
		}
		return fmt.Sprint(v)
	})
}
