package extractor

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// Tesseract page segmentation modes.
const (
	// psmColumn assumes a single column of variable-size text. Statements.
	psmColumn = "4"
	// psmSparse finds as much text as possible in no particular order.
	// Receipt photos.
	psmSparse = "11"
)

const rasterDPI = "300"

// IsOCRAvailable reports whether pdftoppm and tesseract are on PATH.
func IsOCRAvailable() bool {
	if _, err := exec.LookPath("pdftoppm"); err != nil {
		return false
	}
	_, err := exec.LookPath("tesseract")
	return err == nil
}

// extractWithOCR rasterizes every page of a scanned PDF and reads it with
// Tesseract. Pages that fail are skipped.
func extractWithOCR(ctx context.Context, path, lang string) ([]string, error) {
	if !IsOCRAvailable() {
		return nil, fmt.Errorf("OCR needs pdftoppm (poppler-utils) and tesseract (tesseract-ocr)")
	}

	dir, err := os.MkdirTemp("", "budget-ocr-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	prefix := filepath.Join(dir, "page")
	cmd := exec.CommandContext(ctx, "pdftoppm", "-r", rasterDPI, "-png", path, prefix)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("pdftoppm: %w: %s", err, bytes.TrimSpace(out))
	}

	images, err := filepath.Glob(prefix + "*.png")
	if err != nil || len(images) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no page images")
	}
	// pdftoppm zero-pads page numbers, so lexical order is page order.
	sort.Strings(images)

	var pages []string
	for _, img := range images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := ocrImage(ctx, img, lang, psmColumn)
		if err != nil {
			continue
		}
		if text != "" {
			pages = append(pages, text)
		}
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("tesseract read no text from %d page images", len(images))
	}
	return pages, nil
}

// ocrImage runs Tesseract on one image and returns its trimmed text.
func ocrImage(ctx context.Context, img, lang, psm string) (string, error) {
	if _, err := exec.LookPath("tesseract"); err != nil {
		return "", fmt.Errorf("tesseract not available: %w", err)
	}
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "tesseract", img, "stdout", "-l", lang, "--psm", psm)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("tesseract %s: %w: %s", filepath.Base(img), err, bytes.TrimSpace(stderr.Bytes()))
	}
	return strings.TrimSpace(string(out)), nil
}
