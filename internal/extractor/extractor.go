// Package extractor turns statement and receipt files into raw text.
//
// PDFs are read with the ledongthuc/pdf library first, then with poppler's
// pdftotext, then rasterized and run through Tesseract. Images go straight to
// Tesseract. Plain text files are read as-is.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/insightdelivered/budget-ingest/internal/models"
)

var (
	// ErrUnsupported is returned for files that are not PDFs, images or text.
	ErrUnsupported = errors.New("unsupported file type")
	// ErrNoText is returned when every extraction method came back empty or
	// unreadable.
	ErrNoText = errors.New("could not extract text")
)

// Extractor produces the raw text of a file. Implementations must honor ctx
// cancellation between pages.
type Extractor interface {
	Extract(ctx context.Context, path string) (models.RawDocument, error)
}

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".tif": true, ".tiff": true,
	".bmp": true, ".gif": true, ".webp": true,
}

var textExts = map[string]bool{
	".txt": true, ".text": true, ".csv": true, ".tsv": true,
}

// KindOf classifies a file by its extension.
func KindOf(path string) (models.MimeKind, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case ext == ".pdf":
		return models.MimePDF, nil
	case imageExts[ext]:
		return models.MimeImage, nil
	case textExts[ext]:
		return models.MimeText, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupported, ext)
}

// FileExtractor extracts text from files on disk.
type FileExtractor struct {
	// Language is the Tesseract language code. Empty means "eng".
	Language string
	Logger   zerolog.Logger
}

// New returns a FileExtractor for the given OCR language.
func New(language string, log zerolog.Logger) *FileExtractor {
	return &FileExtractor{Language: language, Logger: log}
}

func (e *FileExtractor) language() string {
	if e.Language == "" {
		return "eng"
	}
	return e.Language
}

// Extract reads path according to its extension.
func (e *FileExtractor) Extract(ctx context.Context, path string) (models.RawDocument, error) {
	kind, err := KindOf(path)
	if err != nil {
		return models.RawDocument{}, err
	}
	if _, err := os.Stat(path); err != nil {
		return models.RawDocument{}, fmt.Errorf("opening %s: %w", filepath.Base(path), err)
	}

	doc := models.RawDocument{Filename: filepath.Base(path), MimeKind: kind}
	log := e.Logger.With().Str("file", doc.Filename).Str("kind", string(kind)).Logger()

	var pages []string
	switch kind {
	case models.MimePDF:
		pages, err = e.extractPDF(ctx, path, log)
	case models.MimeImage:
		var text string
		text, err = ocrImage(ctx, path, e.language(), psmSparse)
		pages = []string{text}
	case models.MimeText:
		var data []byte
		data, err = os.ReadFile(path)
		pages = []string{string(data)}
	}
	if err != nil {
		return doc, err
	}

	doc.Text = strings.TrimSpace(strings.Join(pages, "\n"))
	doc.Pages = len(pages)
	if doc.Text == "" {
		return doc, fmt.Errorf("%s: %w", doc.Filename, ErrNoText)
	}
	log.Debug().Int("pages", doc.Pages).Int("chars", len(doc.Text)).Msg("extracted text")
	return doc, nil
}

// extractPDF tries the embedded text layer, then pdftotext, then OCR.
func (e *FileExtractor) extractPDF(ctx context.Context, path string, log zerolog.Logger) ([]string, error) {
	pages, libErr := extractWithLibrary(ctx, path)
	if libErr == nil && IsReadableText(pages) {
		return pages, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log.Debug().AnErr("library_err", libErr).Msg("pdf text layer unreadable, trying pdftotext")

	popplerPages, popErr := extractWithPdftotext(ctx, path)
	if popErr == nil && IsReadableText(popplerPages) {
		return popplerPages, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if IsOCRAvailable() {
		log.Debug().AnErr("pdftotext_err", popErr).Msg("no text layer, running OCR")
		ocrPages, ocrErr := extractWithOCR(ctx, path, e.language())
		if ocrErr == nil && IsReadableText(ocrPages) {
			return ocrPages, nil
		}
		if ocrErr != nil {
			log.Warn().Err(ocrErr).Msg("OCR failed")
		}
	}

	if libErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoText, libErr)
	}
	return nil, ErrNoText
}

// TextExtractor returns a fixed document. It stands in for file extraction
// when the caller already has the text.
type TextExtractor struct {
	Doc models.RawDocument
	Err error
}

// Extract returns the configured document with Filename set from path when
// the document has none.
func (t TextExtractor) Extract(ctx context.Context, path string) (models.RawDocument, error) {
	if err := ctx.Err(); err != nil {
		return models.RawDocument{}, err
	}
	doc := t.Doc
	if doc.Filename == "" && path != "" {
		doc.Filename = filepath.Base(path)
	}
	return doc, t.Err
}
