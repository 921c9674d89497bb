package api

import (
	"bytes"
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/insightdelivered/budget-ingest/internal/duplicate"
	"github.com/insightdelivered/budget-ingest/internal/models"
	"github.com/insightdelivered/budget-ingest/internal/pipeline"
	"github.com/insightdelivered/budget-ingest/internal/writer"
)

// DuplicateMatch names the stored receipt an upload matched.
type DuplicateMatch struct {
	ReceiptID string                 `json:"receiptId"`
	Result    models.DuplicateResult `json:"result"`
}

// ReceiptResponse is the JSON response from /api/receipts/parse.
type ReceiptResponse struct {
	Success bool `json:"success"`
	pipeline.ReceiptResult
	Duplicate *DuplicateMatch `json:"duplicate,omitempty"`
	Saved     bool            `json:"saved"`
}

func (h *Handler) handleParseReceipt(c *fiber.Ctx) error {
	var req parseRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("Failed to parse request: %v", err)
	}

	p := h.newPipeline(c)
	var (
		res pipeline.ReceiptResult
		err error
	)
	if strings.TrimSpace(req.Text) != "" {
		res, err = p.ReceiptText(textDocument(req))
		if err != nil {
			return err
		}
	} else {
		up, uerr := saveUpload(c)
		if uerr != nil {
			return uerr
		}
		defer up.cleanup()

		p.Extractor = cachedExtractor{inner: h.extractor, docs: h.docs, key: up.key, filename: up.filename}
		ctx, cancel := context.WithTimeout(c.UserContext(), h.extractTimeout)
		defer cancel()
		if res, err = p.Receipt(ctx, up.path); err != nil {
			return fiber.NewError(fiber.StatusRequestTimeout, "extraction timed out")
		}
	}

	resp := ReceiptResponse{Success: true, ReceiptResult: res}
	if h.db == nil {
		return c.JSON(resp)
	}

	stored, err := h.db.ListReceipts(c.UserContext())
	if err != nil {
		return err
	}
	if m, ok := duplicate.FindBest(stored, res.Receipt); ok {
		resp.Duplicate = &DuplicateMatch{ReceiptID: m.Existing.ID, Result: m.Result}
	}

	if req.Save && (resp.Duplicate == nil || !resp.Duplicate.Result.Exact) {
		saved, _, err := h.db.SaveReceiptWithItem(c.UserContext(), res.Receipt, res.Item)
		if err != nil {
			return err
		}
		resp.Receipt = saved
		resp.Saved = true
	}
	return c.JSON(resp)
}

type compareRequest struct {
	Existing models.Receipt `json:"existing"`
	Incoming models.Receipt `json:"incoming"`
}

func (h *Handler) handleCompareReceipts(c *fiber.Ctx) error {
	var req compareRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("Failed to parse request: %v", err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"result":  duplicate.Compare(req.Existing, req.Incoming),
	})
}

type exportRequest struct {
	Receipts []models.Receipt `json:"receipts"`
}

// handleExportReceipts writes the given receipts, or every stored receipt
// when none are given, as CSV.
func (h *Handler) handleExportReceipts(c *fiber.Ctx) error {
	var req exportRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest("Failed to parse request: %v", err)
		}
	}
	receipts := req.Receipts
	if len(receipts) == 0 && h.db != nil {
		stored, err := h.db.ListReceipts(c.UserContext())
		if err != nil {
			return err
		}
		receipts = stored
	}

	var buf bytes.Buffer
	if err := (writer.ReceiptCSVWriter{}).Write(&buf, receipts); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="receipts.csv"`)
	return c.Send(buf.Bytes())
}

func (h *Handler) handleListReceipts(c *fiber.Ctx) error {
	if err := h.requireDB(); err != nil {
		return err
	}
	receipts, err := h.db.ListReceipts(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "receipts": receipts})
}

func (h *Handler) handleGetReceipt(c *fiber.Ctx) error {
	if err := h.requireDB(); err != nil {
		return err
	}
	r, err := h.db.GetReceipt(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "receipt": r})
}

func (h *Handler) handleDeleteReceipt(c *fiber.Ctx) error {
	if err := h.requireDB(); err != nil {
		return err
	}
	if err := h.db.DeleteReceipt(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}
