package api

import (
	"html"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/microcosm-cc/bluemonday"

	"github.com/insightdelivered/budget-ingest/internal/categorize"
	"github.com/insightdelivered/budget-ingest/internal/models"
)

// Rule text is stored and echoed back to the web client, so markup is
// stripped before validation.
var strictPolicy = bluemonday.StrictPolicy()

func sanitize(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}

func sanitizeRule(r models.CategorizationRule) models.CategorizationRule {
	return models.CategorizationRule{
		Match:           sanitize(r.Match),
		Category:        sanitize(r.Category),
		Merchant:        sanitize(r.Merchant),
		DefaultCategory: sanitize(r.DefaultCategory),
	}
}

type categorizeRequest struct {
	Merchant string `json:"merchant"`
	ItemText string `json:"itemText"`
	Category string `json:"category"`
}

func (h *Handler) handleCategorize(c *fiber.Ctx) error {
	var req categorizeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("Failed to parse request: %v", err)
	}
	res := h.Engine().Resolve(categorize.Record{
		Merchant: req.Merchant,
		ItemText: req.ItemText,
		Explicit: req.Category,
	})
	return c.JSON(fiber.Map{"success": true, "result": res})
}

func (h *Handler) handleGetRules(c *fiber.Ctx) error {
	rules := h.Engine().Rules()
	if rules == nil {
		rules = []models.CategorizationRule{}
	}
	return c.JSON(fiber.Map{"success": true, "rules": rules})
}

// handlePutRules replaces the whole rule list. The new engine is swapped in
// only after the rules are stored.
func (h *Handler) handlePutRules(c *fiber.Ctx) error {
	var in []models.CategorizationRule
	if err := c.BodyParser(&in); err != nil {
		return badRequest("Failed to parse rules: %v", err)
	}
	rules := make([]models.CategorizationRule, 0, len(in))
	for _, r := range in {
		rules = append(rules, sanitizeRule(r))
	}
	if err := categorize.ValidateRules(rules); err != nil {
		return badRequest("%v", err)
	}

	if h.db != nil {
		if err := h.db.ReplaceRules(c.UserContext(), rules); err != nil {
			return err
		}
	}
	h.engine.Store(categorize.NewEngine(rules, nil))

	return c.JSON(fiber.Map{"success": true, "rules": rules})
}
