package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	"resume-optimizer/internal/shared/telemetry"
)

// Format identifies how resume bytes should be read.
type Format string

const (
	FormatPDF   Format = "pdf"
	FormatDOCX  Format = "docx"
	FormatOther Format = "other"
)

// tempDir is where DOCX payloads are materialized; empty means os.TempDir.
var tempDir = ""

// FormatFromFilename maps an upload name to a Format by extension.
func FormatFromFilename(name string) Format {
	switch strings.ToLower(filepath.Ext(strings.TrimSpace(name))) {
	case ".pdf":
		return FormatPDF
	case ".docx":
		return FormatDOCX
	default:
		return FormatOther
	}
}

// ExtractText returns the text found in data. It never fails: unreadable
// input yields an empty string and a warn log line.
// Libraries used: github.com/ledongthuc/pdf (PDF) and github.com/nguyenthenguyen/docx (DOCX).
func ExtractText(ctx context.Context, data []byte, format Format) string {
	if err := ctx.Err(); err != nil {
		return ""
	}
	if len(data) == 0 {
		return ""
	}

	var (
		text string
		err  error
	)
	switch format {
	case FormatPDF:
		text, err = extractPDF(data)
	case FormatDOCX:
		text, err = extractDOCX(data)
	default:
		return decodeUTF8(data)
	}
	if err != nil {
		telemetry.Warn("extract.failed", map[string]any{
			"format": string(format),
			"bytes":  len(data),
			"err":    err.Error(),
		})
		return ""
	}
	return text
}

func extractPDF(data []byte) (text string, err error) {
	// ledongthuc/pdf panics on some malformed xref tables.
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("pdf reader panic: %v", rec)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		plain, err := page.GetPlainText(nil)
		// GetPlainText starts every page with a newline.
		if err != nil || strings.TrimSpace(plain) == "" {
			continue
		}
		pages = append(pages, strings.TrimLeft(plain, "\r\n"))
	}
	return strings.Join(pages, "\n"), nil
}

// extractDOCX writes data to a temp file because docx.ReadDocxFile only reads
// from disk. The file is removed before returning on every path.
func extractDOCX(data []byte) (string, error) {
	tmp, err := os.CreateTemp(tempDir, "resume-*.docx")
	if err != nil {
		return "", fmt.Errorf("create temp docx: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write temp docx: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp docx: %w", err)
	}

	doc, err := docx.ReadDocxFile(tmpPath)
	if err != nil {
		return "", fmt.Errorf("read docx: %w", err)
	}
	defer doc.Close()

	content := doc.Editable().GetContent()
	if strings.TrimSpace(content) == "" {
		return "", errors.New("docx document part is empty")
	}
	return flattenDocumentXML(content)
}

func decodeUTF8(data []byte) string {
	return strings.ToValidUTF8(string(data), "")
}
