package api

import (
	"bytes"
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/insightdelivered/budget-ingest/internal/pipeline"
	"github.com/insightdelivered/budget-ingest/internal/writer"
)

// StatementResponse is the JSON response from /api/statements/parse.
type StatementResponse struct {
	Success bool `json:"success"`
	pipeline.StatementResult
	CSV string `json:"csv"`
}

func (h *Handler) handleParseStatement(c *fiber.Ctx) error {
	var req parseRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("Failed to parse request: %v", err)
	}
	year := req.Year
	if year == 0 {
		year = h.year
	}

	p := h.newPipeline(c)
	p.Debug = req.Debug

	var res pipeline.StatementResult
	if strings.TrimSpace(req.Text) != "" {
		res = p.StatementText(req.Text, year)
		res.Filename = req.Filename
	} else {
		up, err := saveUpload(c)
		if err != nil {
			return err
		}
		defer up.cleanup()

		p.Extractor = cachedExtractor{inner: h.extractor, docs: h.docs, key: up.key, filename: up.filename}
		ctx, cancel := context.WithTimeout(c.UserContext(), h.extractTimeout)
		defer cancel()
		res, err = p.Statement(ctx, up.path, year)
		if err != nil {
			return fiber.NewError(fiber.StatusRequestTimeout, "extraction timed out")
		}
	}

	var buf bytes.Buffer
	w := &writer.CSVWriter{IncludeHeader: req.Header != "false"}
	meta := writer.Metadata{Source: res.Filename, Year: year, Summary: res.Parse.Summary}
	if err := w.Write(&buf, meta, res.Parse.Transactions); err != nil {
		return err
	}

	return c.JSON(StatementResponse{
		Success:         true,
		StatementResult: res,
		CSV:             buf.String(),
	})
}
