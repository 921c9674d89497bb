package extractor

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/insightdelivered/budget-ingest/internal/models"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		path    string
		want    models.MimeKind
		wantErr bool
	}{
		{"statement.pdf", models.MimePDF, false},
		{"STATEMENT.PDF", models.MimePDF, false},
		{"receipt.JPG", models.MimeImage, false},
		{"scan.tiff", models.MimeImage, false},
		{"export.txt", models.MimeText, false},
		{"notes.docx", "", true},
		{"noext", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := KindOf(tt.path)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupported) {
					t.Errorf("got %v, want ErrUnsupported", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("got (%q, %v), want %q", got, err, tt.want)
			}
		})
	}
}

func TestExtract_TextFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "august.txt")
	body := "8/1 Monthly Service Fee 25.00 463.27\n8/2 Costco Whse 45.10 418.17\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	doc, err := New("", zerolog.Nop()).Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Text != strings.TrimSpace(body) {
		t.Errorf("text: got %q", doc.Text)
	}
	if doc.Filename != "august.txt" || doc.MimeKind != models.MimeText || doc.Pages != 1 {
		t.Errorf("got %+v", doc)
	}
}

func TestExtract_EmptyTextFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blank.txt")
	if err := os.WriteFile(path, []byte("  \n\t"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := New("", zerolog.Nop()).Extract(context.Background(), path)
	if !errors.Is(err, ErrNoText) {
		t.Errorf("got %v, want ErrNoText", err)
	}
}

func TestExtract_Errors(t *testing.T) {
	e := New("eng", zerolog.Nop())

	if _, err := e.Extract(context.Background(), "/tmp/budget-ingest-missing-12345.txt"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: got %v, want not-exist", err)
	}
	if _, err := e.Extract(context.Background(), "report.xlsx"); !errors.Is(err, ErrUnsupported) {
		t.Errorf("unsupported: got %v, want ErrUnsupported", err)
	}
}

func TestExtract_CorruptPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4\nnot really a pdf"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := New("", zerolog.Nop()).Extract(context.Background(), path)
	if err == nil {
		t.Fatal("expected an error for a corrupt PDF")
	}
}

func TestIsReadableText(t *testing.T) {
	tests := []struct {
		name  string
		pages []string
		want  bool
	}{
		{"statement", []string{"8/1 Monthly Service Fee 25.00 463.27\nEnding balance 463.27"}, true},
		{"receipt", []string{"COSTCO WHOLESALE\nTOTAL 7.60"}, true},
		{"too short", []string{"TOTAL 1.00"}, false},
		{"no keyword", []string{"lorem ipsum dolor sit amet consectetur"}, false},
		{"garbage", []string{strings.Repeat("ÀÁÂÃÄÅ", 20) + " total"}, false},
		{"empty", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsReadableText(tt.pages); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsOCRAvailable(t *testing.T) {
	_, errPPM := exec.LookPath("pdftoppm")
	_, errTess := exec.LookPath("tesseract")
	want := errPPM == nil && errTess == nil
	if got := IsOCRAvailable(); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestExtractWithOCR_MissingTools(t *testing.T) {
	if IsOCRAvailable() {
		t.Skip("OCR tools are installed")
	}
	if _, err := extractWithOCR(context.Background(), "/nonexistent/file.pdf", "eng"); err == nil {
		t.Error("expected an error without OCR tools")
	}
}

func TestExtractWithOCR_NonexistentFile(t *testing.T) {
	if !IsOCRAvailable() {
		t.Skip("OCR tools not installed")
	}
	if _, err := extractWithOCR(context.Background(), "/tmp/nonexistent-file-12345.pdf", "eng"); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestPDFPageCount_Nonexistent(t *testing.T) {
	if n := pdfPageCount(context.Background(), "/tmp/nonexistent-file-12345.pdf"); n != 0 {
		t.Errorf("got %d, want 0", n)
	}
}

func TestTextExtractor(t *testing.T) {
	te := TextExtractor{Doc: models.RawDocument{Text: "TOTAL 7.60", MimeKind: models.MimeText}}
	doc, err := te.Extract(context.Background(), "/uploads/costco.txt")
	if err != nil || doc.Filename != "costco.txt" || doc.Text != "TOTAL 7.60" {
		t.Errorf("got %+v, %v", doc, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := te.Extract(ctx, "x.txt"); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}
