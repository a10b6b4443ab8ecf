package render

import (
	"fmt"
	"io"

	"github.com/lukasjarosch/go-docx"
)

// DocxRenderer fills {key} placeholders in a Word document
type DocxRenderer struct {
	template []byte
}

// NewDocxRenderer checks that template is a readable docx file
func NewDocxRenderer(template []byte) (*DocxRenderer, error) {
	doc, err := docx.OpenBytes(template)
	if err != nil {
		return nil, fmt.Errorf("failed to open docx template: %w", err)
	}
	doc.Close()
	return &DocxRenderer{template: template}, nil
}

func (r *DocxRenderer) Ext() string { return ".docx" }

// Render reopens the template for every call, so placeholders replaced for
// one record never leak into the next.
func (r *DocxRenderer) Render(data map[string]interface{}, w io.Writer) error {
	doc, err := docx.OpenBytes(r.template)
	if err != nil {
		return fmt.Errorf("failed to open docx template: %w", err)
	}
	defer doc.Close()

	if err := doc.ReplaceAll(docx.PlaceholderMap(data)); err != nil {
		return fmt.Errorf("failed to replace placeholders: %w", err)
	}
	if err := doc.Write(w); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	return nil
}
