package extractor

import (
	"context"
	"fmt"
	"io"
	"math"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// Readability thresholds for extracted text.
const (
	minTextLen     = 20
	minASCIIRatio  = 0.6
	columnGapWidth = 15.0
)

// keywords that appear on nearly every statement or receipt. Text with none
// of them is most likely a failed font decode.
var keywords = []string{
	"total", "subtotal", "tax", "amount", "balance", "date", "payment",
	"purchase", "deposit", "withdrawal", "card", "visa", "cash", "change",
	"account", "statement", "receipt", "transaction", "fee", "credit", "debit",
}

const readablePunct = ".,-/:;()'\"$€£%&@#!?+=*"

// asciiRatio is the share of runes that are ASCII letters, digits, spaces or
// common punctuation. unicode.IsLetter would accept the accented garbage that
// identity-encoded fonts decode to.
func asciiRatio(pages []string) float64 {
	var total, ok int
	for _, p := range pages {
		for _, r := range p {
			total++
			switch {
			case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)),
				unicode.IsSpace(r),
				strings.ContainsRune(readablePunct, r):
				ok++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(ok) / float64(total)
}

func hasKeyword(pages []string) bool {
	text := strings.ToLower(strings.Join(pages, " "))
	for _, w := range keywords {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// IsReadableText reports whether pages look like real statement or receipt
// text: long enough, mostly plain ASCII, and containing a known keyword.
func IsReadableText(pages []string) bool {
	n := 0
	for _, p := range pages {
		n += len(strings.TrimSpace(p))
	}
	return n >= minTextLen && asciiRatio(pages) > minASCIIRatio && hasKeyword(pages)
}

// extractWithLibrary reads the PDF text layer. The library panics on some
// malformed files, so panics are turned into errors.
func extractWithLibrary(ctx context.Context, path string) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	n := r.NumPage()
	if n == 0 {
		return nil, fmt.Errorf("pdf has no pages")
	}

	pages, err = pagesByRow(ctx, r, n)
	if err != nil || IsReadableText(pages) {
		return pages, err
	}
	pages, err = pagesByPosition(ctx, r, n)
	if err != nil || IsReadableText(pages) {
		return pages, err
	}
	if text := plainText(r); IsReadableText([]string{text}) {
		return []string{text}, nil
	}
	return pages, nil
}

// pagesByRow joins the words of each library-detected row with spaces.
func pagesByRow(ctx context.Context, r *pdf.Reader, n int) ([]string, error) {
	pages := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		lines := make([]string, 0, len(rows))
		for _, row := range rows {
			words := make([]string, 0, len(row.Content))
			for _, w := range row.Content {
				words = append(words, w.S)
			}
			if line := strings.TrimSpace(strings.Join(words, " ")); line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages, nil
}

// pagesByPosition rebuilds lines from raw glyph positions. Glyphs sharing a
// rounded Y are one line, ordered by X; a wide horizontal gap becomes a
// two-space column break so the statement parser sees a tabular line.
func pagesByPosition(ctx context.Context, r *pdf.Reader, n int) ([]string, error) {
	type glyph struct {
		x float64
		s string
	}

	pages := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content := page.Content()

		byY := make(map[int][]glyph)
		for _, t := range content.Text {
			if strings.TrimSpace(t.S) == "" {
				continue
			}
			y := int(math.Round(t.Y))
			byY[y] = append(byY[y], glyph{x: t.X, s: t.S})
		}
		ys := make([]int, 0, len(byY))
		for y := range byY {
			ys = append(ys, y)
		}
		// PDF space grows upward.
		sort.Sort(sort.Reverse(sort.IntSlice(ys)))

		lines := make([]string, 0, len(ys))
		for _, y := range ys {
			row := byY[y]
			sort.Slice(row, func(a, b int) bool { return row[a].x < row[b].x })

			var sb strings.Builder
			for j, g := range row {
				if j > 0 && g.x-row[j-1].x > columnGapWidth {
					sb.WriteString("  ")
				}
				sb.WriteString(g.s)
			}
			if line := strings.TrimSpace(sb.String()); line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages, nil
}

func plainText(r *pdf.Reader) string {
	rd, err := r.GetPlainText()
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(rd)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// extractWithPdftotext runs poppler's pdftotext page by page in layout mode.
func extractWithPdftotext(ctx context.Context, path string) ([]string, error) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return nil, fmt.Errorf("pdftotext not available: %w", err)
	}

	n := pdfPageCount(ctx, path)
	if n == 0 {
		n = 1
	}
	var pages []string
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := strconv.Itoa(i)
		out, err := exec.CommandContext(ctx, "pdftotext", "-layout", "-f", p, "-l", p, path, "-").Output()
		if err != nil {
			continue
		}
		if text := strings.TrimSpace(string(out)); text != "" {
			pages = append(pages, text)
		}
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("pdftotext produced no text")
	}
	return pages, nil
}

// pdfPageCount reads the page count reported by pdfinfo, or 0 when it cannot.
func pdfPageCount(ctx context.Context, path string) int {
	out, err := exec.CommandContext(ctx, "pdfinfo", path).Output()
	if err != nil {
		return 0
	}
	for _, line := range strings.Split(string(out), "\n") {
		rest, ok := strings.CutPrefix(line, "Pages:")
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(strings.TrimSpace(rest)); err == nil && n > 0 {
			return n
		}
	}
	return 0
}
