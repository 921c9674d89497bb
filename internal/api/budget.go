package api

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/insightdelivered/budget-ingest/internal/budget"
	"github.com/insightdelivered/budget-ingest/internal/health"
	"github.com/insightdelivered/budget-ingest/internal/ingest"
	"github.com/insightdelivered/budget-ingest/internal/models"
)

// sourceRecord is one raw record to normalize before it is stored.
type sourceRecord struct {
	Kind ingest.Kind     `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type addItemsRequest struct {
	Items   []models.Bucketed `json:"items"`
	Records []sourceRecord    `json:"records"`
}

func (h *Handler) handleAddBudgetItems(c *fiber.Ctx) error {
	if err := h.requireDB(); err != nil {
		return err
	}
	var req addItemsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("Failed to parse request: %v", err)
	}

	items := make([]models.Bucketed, 0, len(req.Items)+len(req.Records))
	for i, it := range req.Items {
		if !it.CategoryKey.Valid() {
			return badRequest("item %d: unknown category %q", i, it.CategoryKey)
		}
		if it.Item.EstBudget < 0 || it.Item.ActualCost < 0 {
			return badRequest("item %d: amounts must not be negative", i)
		}
		items = append(items, it)
	}

	engine, now := h.Engine(), h.now()
	candidates := make([]ingest.Candidate, 0, len(req.Records))
	for i, src := range req.Records {
		rec, err := ingest.Decode(src.Kind, src.Data)
		if err != nil {
			return badRequest("record %d: %v", i, err)
		}
		cand, err := ingest.Normalize(rec, engine, now)
		if err != nil {
			if errors.Is(err, ingest.ErrInvalid) || errors.Is(err, ingest.ErrUnknownKind) {
				return badRequest("record %d: %v", i, err)
			}
			return err
		}
		candidates = append(candidates, cand)
		items = append(items, budget.FromCandidate(cand))
	}

	if len(items) == 0 {
		return badRequest("no items or records given")
	}
	stored, err := h.db.AddBudgetItems(c.UserContext(), items)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":    true,
		"items":      stored,
		"candidates": candidates,
	})
}

func (h *Handler) handleGetBudget(c *fiber.Ctx) error {
	if err := h.requireDB(); err != nil {
		return err
	}
	buckets, err := h.db.Buckets(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"buckets": buckets,
		"totals":  budget.Totals(buckets),
	})
}

type archiveRequest struct {
	Archived bool `json:"archived"`
}

func (h *Handler) handleArchiveBudgetItem(c *fiber.Ctx) error {
	if err := h.requireDB(); err != nil {
		return err
	}
	var req archiveRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("Failed to parse request: %v", err)
	}
	if err := h.db.SetArchived(c.UserContext(), c.Params("id"), req.Archived); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}

func (h *Handler) handleDeleteBudgetItem(c *fiber.Ctx) error {
	if err := h.requireDB(); err != nil {
		return err
	}
	if err := h.db.DeleteBudgetItem(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}

type scoreRequest struct {
	Totals  *models.Totals `json:"totals"`
	Buckets models.Buckets `json:"buckets"`
}

// handleScore scores the posted buckets without touching storage. Totals
// are derived from the buckets when omitted.
func (h *Handler) handleScore(c *fiber.Ctx) error {
	var req scoreRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("Failed to parse request: %v", err)
	}
	totals := budget.Totals(req.Buckets)
	if req.Totals != nil {
		totals = *req.Totals
	}
	return c.JSON(fiber.Map{
		"success": true,
		"result":  health.Score(totals, req.Buckets),
	})
}

// handleStoredScore scores the stored budget and records the score in the
// history log.
func (h *Handler) handleStoredScore(c *fiber.Ctx) error {
	if err := h.requireDB(); err != nil {
		return err
	}
	ctx := c.UserContext()
	buckets, err := h.db.Buckets(ctx)
	if err != nil {
		return err
	}
	res := health.Score(budget.Totals(buckets), buckets)

	now := h.now()
	prev, err := h.db.ScoreHistory(ctx)
	if err != nil {
		return err
	}
	history := health.AppendHistory(prev, health.Entry(res, now), now)
	if err := h.db.ReplaceScoreHistory(ctx, history); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"result":  res,
		"history": history,
	})
}

func (h *Handler) handleScoreHistory(c *fiber.Ctx) error {
	if err := h.requireDB(); err != nil {
		return err
	}
	history, err := h.db.ScoreHistory(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "history": history})
}
