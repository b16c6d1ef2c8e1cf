// Package extract turns uploaded files into plain text for chunking.
package extract

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"

	"github.com/arosell/go-docsearch/internal/port"
)

// Extractor dispatches on file extension and returns the extracted text.
type Extractor struct{}

// New creates an extractor. A non-empty licenseKey activates the UniPDF
// metered license; without one, PDF extraction fails at parse time.
func New(licenseKey string) (*Extractor, error) {
	if licenseKey != "" {
		if err := license.SetMeteredKey(licenseKey); err != nil {
			return nil, fmt.Errorf("set unipdf license: %w", err)
		}
	}
	return &Extractor{}, nil
}

// Extract returns the text content of an uploaded file. Plain-text formats
// are passed through; PDFs are extracted page by page. Unknown extensions
// fail with ErrUnsupportedFormat, corrupt or empty files with ErrParse.
func (e *Extractor) Extract(filename string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: %s is empty", port.ErrParse, filepath.Base(filename))
	}

	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt", ".md":
		return string(data), nil
	case ".pdf":
		return e.extractPDF(data)
	default:
		return "", fmt.Errorf("%w: %q", port.ErrUnsupportedFormat, ext)
	}
}

// extractPDF collects the text of every page, separated by blank lines.
func (e *Extractor) extractPDF(data []byte) (string, error) {
	reader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: read pdf: %v", port.ErrParse, err)
	}

	numPages, err := reader.GetNumPages()
	if err != nil {
		return "", fmt.Errorf("%w: pdf page count: %v", port.ErrParse, err)
	}

	var sb strings.Builder
	for i := 1; i <= numPages; i++ {
		page, err := reader.GetPage(i)
		if err != nil {
			return "", fmt.Errorf("%w: pdf page %d: %v", port.ErrParse, i, err)
		}

		ex, err := extractor.New(page)
		if err != nil {
			return "", fmt.Errorf("%w: pdf page %d: %v", port.ErrParse, i, err)
		}

		text, err := ex.ExtractText()
		if err != nil {
			return "", fmt.Errorf("%w: pdf page %d: %v", port.ErrParse, i, err)
		}
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}

	if strings.TrimSpace(sb.String()) == "" {
		return "", fmt.Errorf("%w: pdf contains no extractable text", port.ErrParse)
	}
	return sb.String(), nil
}
