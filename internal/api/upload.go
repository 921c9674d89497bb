package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/patrickmn/go-cache"

	"github.com/insightdelivered/budget-ingest/internal/extractor"
	"github.com/insightdelivered/budget-ingest/internal/models"
)

// parseRequest is the form or JSON body of a parse endpoint. Text, when set,
// is used instead of an uploaded file.
type parseRequest struct {
	Text     string `json:"text" form:"text"`
	Filename string `json:"filename" form:"filename"`
	Year     int    `json:"year" form:"year"`
	Header   string `json:"header" form:"header"`
	Save     bool   `json:"save" form:"save"`
	Debug    bool   `json:"debug" form:"debug"`
}

// upload is an uploaded file saved to a temp path for extraction.
type upload struct {
	path     string
	filename string
	key      string
}

func (u *upload) cleanup() {
	os.Remove(u.path)
}

// saveUpload copies the "file" form field to a temp file. The cache key is
// the content hash plus the extension, since the extension picks the
// extraction method.
func saveUpload(c *fiber.Ctx) (*upload, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, badRequest("No file uploaded. Use form field 'file' or 'text'.")
	}
	if _, err := extractor.KindOf(fh.Filename); err != nil {
		return nil, badRequest("%v", err)
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))

	src, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "upload-*"+ext)
	if err != nil {
		return nil, err
	}
	defer tmp.Close()

	hash := sha256.New()
	if _, err := io.Copy(io.MultiWriter(tmp, hash), src); err != nil {
		os.Remove(tmp.Name())
		return nil, err
	}
	return &upload{
		path:     tmp.Name(),
		filename: filepath.Base(fh.Filename),
		key:      hex.EncodeToString(hash.Sum(nil)) + ext,
	}, nil
}

// cachedExtractor memoizes successful extractions of one upload, so a file
// re-sent for a second pass is not run through OCR again.
type cachedExtractor struct {
	inner    extractor.Extractor
	docs     *cache.Cache
	key      string
	filename string
}

func (e cachedExtractor) Extract(ctx context.Context, path string) (models.RawDocument, error) {
	if v, ok := e.docs.Get(e.key); ok {
		doc := v.(models.RawDocument)
		doc.Filename = e.filename
		return doc, nil
	}
	if e.inner == nil {
		return models.RawDocument{Filename: e.filename}, extractor.ErrNoText
	}
	doc, err := e.inner.Extract(ctx, path)
	doc.Filename = e.filename
	if err != nil {
		return doc, err
	}
	e.docs.Set(e.key, doc, cache.DefaultExpiration)
	return doc, nil
}

// textDocument wraps request text as a document.
func textDocument(req parseRequest) models.RawDocument {
	return models.RawDocument{
		Text:     req.Text,
		Filename: req.Filename,
		MimeKind: models.MimeText,
	}
}
