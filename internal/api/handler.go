// Package api serves the ingestion, categorization and scoring operations
// over HTTP with fiber.
package api

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/insightdelivered/budget-ingest/internal/categorize"
	"github.com/insightdelivered/budget-ingest/internal/extractor"
	"github.com/insightdelivered/budget-ingest/internal/logger"
	"github.com/insightdelivered/budget-ingest/internal/pipeline"
	"github.com/insightdelivered/budget-ingest/internal/store"
)

// Version is reported by the health endpoint.
const Version = "2.0.0"

// Options configures a Handler.
type Options struct {
	DB        *store.DB
	Extractor extractor.Extractor
	Engine    *categorize.Engine
	Logger    zerolog.Logger
	Now       func() time.Time

	MaxUploadSize  int64
	ExtractTimeout time.Duration
	CacheTTL       time.Duration
	// Year resolves M/D statement dates when a request names none.
	Year int

	StaticDir string
}

// Handler holds the HTTP handlers for the API.
type Handler struct {
	db        *store.DB
	extractor extractor.Extractor
	engine    atomic.Pointer[categorize.Engine]
	log       zerolog.Logger
	now       func() time.Time
	docs      *cache.Cache

	maxUpload      int64
	extractTimeout time.Duration
	year           int
	staticDir      string
}

// New returns a Handler. A nil engine starts from the built-in vendor table.
func New(opts Options) *Handler {
	h := &Handler{
		db:             opts.DB,
		extractor:      opts.Extractor,
		log:            opts.Logger,
		now:            opts.Now,
		maxUpload:      opts.MaxUploadSize,
		extractTimeout: opts.ExtractTimeout,
		year:           opts.Year,
		staticDir:      opts.StaticDir,
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.maxUpload <= 0 {
		h.maxUpload = 10 << 20
	}
	if h.extractTimeout <= 0 {
		h.extractTimeout = 2 * time.Minute
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	h.docs = cache.New(ttl, 2*ttl)

	engine := opts.Engine
	if engine == nil {
		engine = categorize.Default()
	}
	h.engine.Store(engine)
	return h
}

// Engine returns the categorization engine currently in use.
func (h *Handler) Engine() *categorize.Engine {
	return h.engine.Load()
}

// App builds a fiber app with the middleware and routes registered.
func (h *Handler) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "budget-ingest",
		BodyLimit:             int(h.maxUpload),
		ErrorHandler:          h.errorHandler,
		DisableStartupMessage: true,
	})
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Content-Type",
	}))
	app.Use(h.requestLogger)
	app.Use(recover.New())
	h.RegisterRoutes(app)
	return app
}

// RegisterRoutes sets up the HTTP routes.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	routes := app.Group("/api")
	routes.Get("/health", HandleHealth)

	routes.Post("/statements/parse", h.handleParseStatement)

	routes.Post("/receipts/parse", h.handleParseReceipt)
	routes.Post("/receipts/compare", h.handleCompareReceipts)
	routes.Post("/receipts/export", h.handleExportReceipts)
	routes.Get("/receipts", h.handleListReceipts)
	routes.Get("/receipts/:id", h.handleGetReceipt)
	routes.Delete("/receipts/:id", h.handleDeleteReceipt)

	routes.Post("/categorize", h.handleCategorize)
	routes.Get("/rules", h.handleGetRules)
	routes.Put("/rules", h.handlePutRules)

	routes.Get("/budget", h.handleGetBudget)
	routes.Post("/budget/items", h.handleAddBudgetItems)
	routes.Patch("/budget/items/:id", h.handleArchiveBudgetItem)
	routes.Delete("/budget/items/:id", h.handleDeleteBudgetItem)

	routes.Post("/health-score", h.handleScore)
	routes.Get("/health-score", h.handleStoredScore)
	routes.Get("/score-history", h.handleScoreHistory)

	// Serve the web client; unknown paths fall back to index.html.
	if h.staticDir != "" {
		app.Static("/", h.staticDir)
		app.Get("/*", func(c *fiber.Ctx) error {
			index := filepath.Join(h.staticDir, "index.html")
			if _, err := os.Stat(index); err != nil {
				return fiber.ErrNotFound
			}
			return c.SendFile(index)
		})
	}
}

// HandleHealth reports liveness.
func HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"engine":  "fiber",
		"version": Version,
	})
}

// newPipeline returns a pipeline bound to the current engine and the request's
// logger.
func (h *Handler) newPipeline(c *fiber.Ctx) *pipeline.Pipeline {
	return &pipeline.Pipeline{
		Extractor: h.extractor,
		Engine:    h.Engine(),
		Now:       h.now,
		Logger:    logger.FromContext(c.UserContext()),
	}
}

func (h *Handler) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	reqID := c.Get(fiber.HeaderXRequestID)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	c.Set(fiber.HeaderXRequestID, reqID)

	log := h.log.With().Str("request_id", reqID).Logger()
	c.SetUserContext(logger.WithContext(c.UserContext(), log))

	err := c.Next()
	if err != nil {
		// Let the error handler set the status before it is logged.
		if herr := c.App().ErrorHandler(c, err); herr != nil {
			c.Status(fiber.StatusInternalServerError)
		}
	}

	status := c.Response().StatusCode()
	event := log.Info()
	if status >= fiber.StatusInternalServerError {
		event = log.Error().Err(err)
	}
	event.
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", status).
		Dur("duration", time.Since(start)).
		Msg("request")
	return nil
}

// errorResponse is the body of every failed request.
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (h *Handler) errorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	msg := "internal server error"

	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		status = fe.Code
		msg = fe.Message
	case errors.Is(err, store.ErrNotFound):
		status = fiber.StatusNotFound
		msg = err.Error()
	}
	return c.Status(status).JSON(errorResponse{Success: false, Error: msg})
}

func badRequest(format string, args ...any) error {
	return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf(format, args...))
}

func (h *Handler) requireDB() error {
	if h.db == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "storage is not configured")
	}
	return nil
}
