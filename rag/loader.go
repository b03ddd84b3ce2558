package rag

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"go-rag-assistant/logger"
)

// PDFExtractor extracts the text layer of a PDF file.
type PDFExtractor interface {
	ExtractText(path string) (string, error)
}

// LedongthucExtractor reads PDF text with github.com/ledongthuc/pdf.
type LedongthucExtractor struct{}

func (LedongthucExtractor) ExtractText(path string) (text string, err error) {
	// the parser panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parser: %v", r)
		}
	}()

	f, rdr, err := pdf.Open(path)
	if err != nil {
		if f != nil {
			f.Close()
		}
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	b, err := rdr.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, b); err != nil {
		return "", fmt.Errorf("read pdf buffer: %w", err)
	}
	return buf.String(), nil
}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".tiff": true,
}

// Loader reads documents from disk and extracts their text.
type Loader struct {
	pdf PDFExtractor
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithPDFExtractor sets the PDF text extractor. Passing nil disables PDF
// support; PDFs then load as unsupported.
func WithPDFExtractor(x PDFExtractor) LoaderOption {
	return func(l *Loader) {
		l.pdf = x
	}
}

func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{pdf: LedongthucExtractor{}}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the text of the document at path, or a bracketed diagnostic
// string when the document has no usable text. Only a missing file or a
// failed text read is returned as an error.
func (l *Loader) Load(path string) (string, error) {
	res, err := l.LoadDocument(path)
	if err != nil {
		return "", err
	}
	return res.String(), nil
}

// LoadDocument dispatches on the file extension and returns a tagged result.
func (l *Loader) LoadDocument(path string) (LoadResult, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return LoadResult{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return LoadResult{}, fmt.Errorf("stat %s: %w", path, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	logger.Debug("loading %s (extension %q)", path, ext)

	switch {
	case ext == ".txt" || ext == ".md":
		text, err := readText(path)
		if err != nil {
			return LoadResult{}, err
		}
		return okResult(path, text), nil
	case ext == ".pdf":
		return l.loadPDF(path), nil
	case imageExtensions[ext]:
		return unsupportedResult(path, reasonImage), nil
	default:
		logger.Warn("unknown file type %q for %s, reading as plain text", ext, path)
		text, err := readText(path)
		if err != nil {
			return unsupportedResult(path, fmt.Sprintf(reasonUnknownType, ext, err)), nil
		}
		return okResult(path, text), nil
	}
}

func (l *Loader) loadPDF(path string) LoadResult {
	if l.pdf == nil {
		return unsupportedResult(path, reasonPDFUnavailable)
	}
	text, err := l.pdf.ExtractText(path)
	if err != nil {
		logger.Warn("extracting PDF text from %s: %v", path, err)
		return unsupportedResult(path, fmt.Sprintf(reasonPDFError, err))
	}
	if strings.TrimSpace(text) == "" {
		return unsupportedResult(path, reasonPDFNoText)
	}
	return okResult(path, text)
}

// readText reads the whole file and drops invalid UTF-8 bytes.
func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return strings.ToValidUTF8(string(data), ""), nil
}

func okResult(path, text string) LoadResult {
	return LoadResult{Path: path, Status: StatusOK, Text: text}
}

func unsupportedResult(path, reason string) LoadResult {
	return LoadResult{Path: path, Status: StatusUnsupported, Reason: reason}
}
