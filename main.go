package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/insightdelivered/budget-ingest/internal/api"
	"github.com/insightdelivered/budget-ingest/internal/categorize"
	"github.com/insightdelivered/budget-ingest/internal/config"
	"github.com/insightdelivered/budget-ingest/internal/extractor"
	"github.com/insightdelivered/budget-ingest/internal/logger"
	"github.com/insightdelivered/budget-ingest/internal/models"
	"github.com/insightdelivered/budget-ingest/internal/pipeline"
	"github.com/insightdelivered/budget-ingest/internal/store"
	"github.com/insightdelivered/budget-ingest/internal/writer"
)

func main() {
	// CLI flags
	modeFlag := flag.String("mode", "statement", "Input kind: statement or receipt")
	yearFlag := flag.Int("year", 0, "Year for M/D statement dates (defaults to FISCAL_YEAR, then the current year)")
	rulesFlag := flag.String("rules", "", "YAML file of categorization rules (defaults to RULES_PATH)")
	outputFlag := flag.String("output", "", "Output CSV file path (defaults to input filename with .csv extension)")
	headerFlag := flag.Bool("header", true, "Include source metadata rows in statement CSV")
	debugFlag := flag.Bool("debug", false, "Log every parsed line")
	serveFlag := flag.Bool("serve", false, "Run the HTTP API instead of converting files")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	helpFlag := flag.Bool("help", false, "Show usage help")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Budget Ingest
by Insight Delivered

Turns bank statements and receipts (PDF, image or text) into categorized
transactions and budget items, and scores financial health.

Usage:
  budget-ingest [flags] <file> [file2 ...]
  budget-ingest -serve

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Convert a statement export to CSV
  budget-ingest -year=2024 august.txt

  # Scan receipts into one CSV
  budget-ingest -mode=receipt -output=receipts.csv costco.jpg target.pdf

  # Use your own categorization rules
  budget-ingest -rules=rules.yaml statement.pdf

  # Start the API on $PORT
  budget-ingest -serve
`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("budget-ingest v%s\n", api.Version)
		os.Exit(0)
	}

	bootLog := logger.New("info", logger.FormatConsole)
	cfg, err := config.Load(bootLog)
	if err != nil {
		fatalf("Failed to load configuration: %v\n", err)
	}
	if *debugFlag {
		cfg.LogLevel = "debug"
	}
	if *rulesFlag != "" {
		cfg.RulesPath = *rulesFlag
	}
	if *yearFlag != 0 {
		cfg.FiscalYear = *yearFlag
	}

	if *serveFlag {
		log := logger.New(cfg.LogLevel, cfg.LogFormat)
		if err := serve(cfg, log); err != nil {
			log.Fatal().Err(err).Msg("server stopped")
		}
		return
	}

	if *helpFlag || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(0)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	engine, err := loadEngine(cfg.RulesPath)
	if err != nil {
		fatalf("Failed to load rules: %v\n", err)
	}

	p := &pipeline.Pipeline{
		Extractor: extractor.New(cfg.OCRLanguage, log),
		Engine:    engine,
		Logger:    log,
		Debug:     *debugFlag,
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch strings.ToLower(*modeFlag) {
	case "statement":
		for _, inputPath := range flag.Args() {
			if err := processStatement(ctx, p, inputPath, cfg.FiscalYear, *outputFlag, *headerFlag); err != nil {
				fmt.Fprintf(os.Stderr, "Error processing %s: %v\n", inputPath, err)
				os.Exit(1)
			}
		}
	case "receipt":
		if err := processReceipts(ctx, p, flag.Args(), *outputFlag); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	default:
		fatalf("Unknown mode %q. Supported: statement, receipt\n", *modeFlag)
	}
}

// loadEngine builds the categorization engine from a rules file, or the
// built-in vendor table when path is empty.
func loadEngine(path string) (*categorize.Engine, error) {
	if path == "" {
		return categorize.Default(), nil
	}
	rules, err := categorize.LoadRulesFile(path)
	if err != nil {
		return nil, err
	}
	return categorize.NewEngine(rules, nil), nil
}

func processStatement(ctx context.Context, p *pipeline.Pipeline, inputPath string, year int, outputPath string, includeHeader bool) error {
	// Validate input file
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("input file not found: %s", inputPath)
	}
	if _, err := extractor.KindOf(inputPath); err != nil {
		return err
	}

	fmt.Printf("Processing: %s\n", inputPath)

	res, err := p.Statement(ctx, inputPath, year)
	if err != nil {
		return err
	}
	for _, w := range res.Warnings {
		fmt.Printf("  Warning: %s\n", w)
	}
	if res.Pages > 0 {
		fmt.Printf("  Extracted text from %d page(s)\n", res.Pages)
	}

	txns := res.Parse.Transactions
	fmt.Printf("  Found %d transaction(s)\n", len(txns))
	if n := len(res.Parse.Errors); n > 0 {
		fmt.Printf("  Skipped %d line(s) that could not be read\n", n)
	}
	for _, w := range res.Parse.Warnings {
		fmt.Printf("  Line %d: %s\n", w.Line, w.Reason)
	}

	if len(txns) == 0 {
		fmt.Println("  Warning: No transactions found. Lines must start with an M/D date.")
	}

	// Determine output path
	outPath := outputPath
	if outPath == "" {
		base := strings.TrimSuffix(inputPath, filepath.Ext(inputPath))
		outPath = base + ".csv"
	}

	w := &writer.CSVWriter{IncludeHeader: includeHeader}
	meta := writer.Metadata{Source: filepath.Base(inputPath), Year: year, Summary: res.Parse.Summary}
	if err := w.WriteToFile(outPath, meta, txns); err != nil {
		return fmt.Errorf("CSV write failed: %w", err)
	}

	fmt.Printf("  Output: %s\n", outPath)
	fmt.Printf("  Total: %.2f across %d categor%s\n", res.Parse.Summary.TotalAmount,
		len(res.Parse.Summary.Categories), plural(len(res.Parse.Summary.Categories), "y", "ies"))
	fmt.Println("  Done.")
	return nil
}

func processReceipts(ctx context.Context, p *pipeline.Pipeline, inputs []string, outputPath string) error {
	receipts := make([]models.Receipt, 0, len(inputs))
	for _, inputPath := range inputs {
		if _, err := os.Stat(inputPath); os.IsNotExist(err) {
			return fmt.Errorf("input file not found: %s", inputPath)
		}
		fmt.Printf("Processing: %s\n", inputPath)

		res, err := p.Receipt(ctx, inputPath)
		if err != nil {
			return err
		}
		for _, w := range res.Warnings {
			fmt.Printf("  Warning: %s\n", w)
		}
		r := res.Receipt
		fmt.Printf("  %s  %s  %.2f %s  -> %s\n", r.Date, r.Merchant, r.Total, r.Currency, res.Category.Label)
		receipts = append(receipts, r)
	}

	outPath := outputPath
	if outPath == "" {
		outPath = "receipts.csv"
	}
	if err := (writer.ReceiptCSVWriter{}).WriteToFile(outPath, receipts); err != nil {
		return fmt.Errorf("CSV write failed: %w", err)
	}
	fmt.Printf("Output: %s (%d receipt%s)\n", outPath, len(receipts), plural(len(receipts), "", "s"))
	return nil
}

func serve(cfg config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	rules, err := db.ListRules(ctx)
	if err != nil {
		return err
	}
	// Seed an empty database from the rules file.
	if len(rules) == 0 && cfg.RulesPath != "" {
		if rules, err = categorize.LoadRulesFile(cfg.RulesPath); err != nil {
			return err
		}
		if err := db.ReplaceRules(ctx, rules); err != nil {
			return err
		}
		log.Info().Str("file", cfg.RulesPath).Int("rules", len(rules)).Msg("seeded rules")
	}

	h := api.New(api.Options{
		DB:             db,
		Extractor:      extractor.New(cfg.OCRLanguage, log),
		Engine:         categorize.NewEngine(rules, nil),
		Logger:         log,
		MaxUploadSize:  cfg.MaxUploadSizeBytes,
		ExtractTimeout: cfg.ExtractTimeout,
		CacheTTL:       cfg.ExtractCacheTTL,
		Year:           cfg.FiscalYear,
		StaticDir:      cfg.StaticDir,
	})
	app := h.App()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Bool("ocr", extractor.IsOCRAvailable()).Msg("listening")
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}
