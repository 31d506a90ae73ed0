package parser

import (
	"fmt"
	"io"

	"github.com/dgallion1/maillink/internal/document"
)

// TextParser handles plain text files. The text is kept byte for byte so
// address offsets line up with the file.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*document.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}
	return &document.Document{
		Title:  trimExt(filename, ".txt"),
		Format: document.FormatText,
		Text:   string(data),
	}, nil
}
