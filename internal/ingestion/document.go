// Package ingestion extracts plain text from uploaded resume documents.
package ingestion

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Supported document extensions
const (
	ExtPDF  = ".pdf"
	ExtDOCX = ".docx"
	ExtTXT  = ".txt"
)

// UnsupportedFormatError is returned for extensions no extractor handles
type UnsupportedFormatError struct {
	Filename string
	Ext      string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Ext == "" {
		return fmt.Sprintf("unsupported file type for %q: no extension (use PDF, DOCX or TXT)", e.Filename)
	}
	return fmt.Sprintf("unsupported file type %s (use PDF, DOCX or TXT)", e.Ext)
}

// ExtractionError wraps a failure reading a supported document
type ExtractionError struct {
	Format string
	Cause  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("could not extract text from %s: %v", e.Format, e.Cause)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// IsSupported reports whether filename has an extension ExtractText accepts
func IsSupported(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ExtPDF, ExtDOCX, ExtTXT:
		return true
	}
	return false
}

// ExtractText returns cleaned plain text for a document, choosing the reader by extension
func ExtractText(filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	var (
		text string
		err  error
	)
	switch ext {
	case ExtPDF:
		text, err = extractPDF(data)
	case ExtDOCX:
		text, err = extractDOCX(data)
	case ExtTXT:
		text = strings.ToValidUTF8(string(data), string(utf8.RuneError))
	default:
		return "", &UnsupportedFormatError{Filename: filename, Ext: ext}
	}
	if err != nil {
		return "", &ExtractionError{Format: strings.TrimPrefix(ext, "."), Cause: err}
	}

	cleaned := CleanText(text)
	if cleaned == "" {
		return "", &ExtractionError{Format: strings.TrimPrefix(ext, "."), Cause: fmt.Errorf("document contains no text")}
	}
	return cleaned, nil
}
