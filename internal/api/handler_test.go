package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/insightdelivered/budget-ingest/internal/extractor"
	"github.com/insightdelivered/budget-ingest/internal/models"
	"github.com/insightdelivered/budget-ingest/internal/store"
)

const costcoText = "COSTCO WHOLESALE\nStore 482 Seattle WA\n08/03/2024 12:44\nKirkland Water      4.99\nBananas             1.99\nSUBTOTAL           6.98\nTAX                0.62\nTOTAL              7.60"

func fixedNow() time.Time {
	return time.Date(2024, time.September, 14, 9, 0, 0, 0, time.UTC)
}

func setupTestApp(t *testing.T, withDB bool) (*Handler, *fiber.App) {
	t.Helper()
	opts := Options{
		Extractor: extractor.New("eng", zerolog.Nop()),
		Logger:    zerolog.Nop(),
		Now:       fixedNow,
	}
	if withDB {
		db, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "api.db"))
		if err != nil {
			t.Fatalf("open store: %v", err)
		}
		t.Cleanup(func() { db.Close() })
		opts.DB = db
	}
	h := New(opts)
	return h, h.App()
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp, decode(t, resp)
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	raw, _ := io.ReadAll(resp.Body)
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("failed to decode response %q: %v", raw, err)
	}
	return out
}

func TestHealthEndpoint(t *testing.T) {
	app := fiber.New()
	app.Get("/api/health", HandleHealth)

	req := httptest.NewRequest("GET", "/api/health", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var result map[string]string
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if result["status"] != "ok" {
		t.Errorf("expected status=ok, got %q", result["status"])
	}

	if result["engine"] != "fiber" {
		t.Errorf("expected engine=fiber, got %q", result["engine"])
	}
}

func TestRequestIDHeader(t *testing.T) {
	_, app := setupTestApp(t, false)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/health", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.Header.Get(fiber.HeaderXRequestID) == "" {
		t.Error("expected a request id header")
	}
}

func TestParseStatementRequiresFile(t *testing.T) {
	_, app := setupTestApp(t, false)

	req := httptest.NewRequest("POST", "/api/statements/parse", nil)
	req.Header.Set("Content-Type", "multipart/form-data; boundary=----test")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	// Should fail because no file in the body
	if resp.StatusCode == fiber.StatusOK {
		t.Error("expected non-200 for missing file")
	}
	body := decode(t, resp)
	if body["success"] != false {
		t.Errorf("got success=%v, want false", body["success"])
	}
}

func TestParseStatementText(t *testing.T) {
	_, app := setupTestApp(t, false)

	resp, body := doJSON(t, app, "POST", "/api/statements/parse", map[string]any{
		"text": "8/1\tMonthly Service Fee\t25.00\t463.27",
		"year": 2024,
	})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("got status %d, want 200: %v", resp.StatusCode, body)
	}
	parse := body["parse"].(map[string]any)
	txns := parse["transactions"].([]any)
	if len(txns) != 1 {
		t.Fatalf("got %d transactions, want 1", len(txns))
	}
	if got := txns[0].(map[string]any)["date"]; got != "2024-08-01" {
		t.Errorf("got date %v, want 2024-08-01", got)
	}
	if csv := body["csv"].(string); !strings.Contains(csv, "Monthly Service Fee") {
		t.Errorf("csv missing transaction: %q", csv)
	}
	if items := body["items"].([]any); len(items) != 1 {
		t.Errorf("got %d items, want 1", len(items))
	}
}

func TestParseStatementUpload(t *testing.T) {
	_, app := setupTestApp(t, false)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "aug.txt")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte("8/1\tMonthly Service Fee\t25.00\t463.27\n"))
	mw.WriteField("year", "2024")
	mw.WriteField("header", "false")
	mw.Close()

	req := httptest.NewRequest("POST", "/api/statements/parse", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	body := decode(t, resp)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("got status %d, want 200: %v", resp.StatusCode, body)
	}
	if body["filename"] != "aug.txt" {
		t.Errorf("got filename %v, want aug.txt", body["filename"])
	}
	if csv := body["csv"].(string); strings.HasPrefix(csv, "# ") {
		t.Errorf("expected no metadata rows with header=false, got %q", csv)
	}
}

func TestParseStatementUnsupportedUpload(t *testing.T) {
	_, app := setupTestApp(t, false)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "statement.docx")
	fw.Write([]byte("binary"))
	mw.Close()

	req := httptest.NewRequest("POST", "/api/statements/parse", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("got status %d, want 400", resp.StatusCode)
	}
}

func TestParseReceipt_SaveAndDuplicate(t *testing.T) {
	_, app := setupTestApp(t, true)

	req := map[string]any{"text": costcoText, "filename": "scan.txt", "save": true}
	resp, body := doJSON(t, app, "POST", "/api/receipts/parse", req)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("got status %d, want 200: %v", resp.StatusCode, body)
	}
	if body["saved"] != true {
		t.Errorf("first upload: got saved=%v, want true", body["saved"])
	}
	if _, ok := body["duplicate"]; ok {
		t.Errorf("first upload: unexpected duplicate %v", body["duplicate"])
	}
	receipt := body["receipt"].(map[string]any)
	if receipt["merchant"] != "Costco" || receipt["total"] != 7.6 {
		t.Errorf("got receipt %v, want Costco 7.60", receipt)
	}

	_, body = doJSON(t, app, "POST", "/api/receipts/parse", req)
	if body["saved"] != false {
		t.Errorf("second upload: got saved=%v, want false", body["saved"])
	}
	dup, ok := body["duplicate"].(map[string]any)
	if !ok {
		t.Fatalf("second upload: expected duplicate, got %v", body)
	}
	if result := dup["result"].(map[string]any); result["exact"] != true {
		t.Errorf("got %v, want exact duplicate", result)
	}

	_, body = doJSON(t, app, "GET", "/api/budget", nil)
	buckets := body["buckets"].(map[string]any)
	if food := buckets["food"].([]any); len(food) != 1 {
		t.Errorf("got %d food items, want 1", len(food))
	}
}

func TestCompareReceipts(t *testing.T) {
	_, app := setupTestApp(t, false)

	_, body := doJSON(t, app, "POST", "/api/receipts/compare", map[string]any{
		"existing": models.Receipt{Merchant: "Target", Date: "2024-08-09", Total: 42.10},
		"incoming": models.Receipt{Merchant: "TARGET", Date: "2024-08-10", Total: 42.40},
	})
	result := body["result"].(map[string]any)
	if result["near"] != true || result["score"] != 0.7 {
		t.Errorf("got %v, want near duplicate with score 0.7", result)
	}
}

func TestExportReceipts(t *testing.T) {
	_, app := setupTestApp(t, false)

	data, _ := json.Marshal(map[string]any{
		"receipts": []models.Receipt{{Merchant: "Costco", Date: "2024-08-03", Currency: "USD", Total: 7.6}},
	})
	req := httptest.NewRequest("POST", "/api/receipts/export", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("got content type %q, want text/csv", ct)
	}
	raw, _ := io.ReadAll(resp.Body)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), raw)
	}
	if !strings.HasPrefix(lines[0], "merchant,date,currency") {
		t.Errorf("got header %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "Costco,2024-08-03,USD") {
		t.Errorf("got row %q", lines[1])
	}
}

func TestRules(t *testing.T) {
	h, app := setupTestApp(t, true)

	resp, body := doJSON(t, app, "PUT", "/api/rules", []map[string]string{
		{"match": "<b>gizmo</b>", "category": "homeOffice"},
	})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("got status %d, want 200: %v", resp.StatusCode, body)
	}
	rules := h.Engine().Rules()
	if len(rules) != 1 || rules[0].Match != "gizmo" {
		t.Errorf("got rules %+v, want sanitized gizmo rule", rules)
	}

	_, body = doJSON(t, app, "POST", "/api/categorize", map[string]string{"merchant": "Gizmo Supply Co"})
	result := body["result"].(map[string]any)
	if result["categoryKey"] != "homeOffice" || result["source"] != "keyword-rule" {
		t.Errorf("got %v, want homeOffice from keyword-rule", result)
	}

	_, body = doJSON(t, app, "GET", "/api/rules", nil)
	if got := body["rules"].([]any); len(got) != 1 {
		t.Errorf("got %d rules, want 1", len(got))
	}

	resp, body = doJSON(t, app, "PUT", "/api/rules", []map[string]string{
		{"match": "gizmo", "category": "gadgets"},
	})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("got status %d, want 400: %v", resp.StatusCode, body)
	}
	if len(h.Engine().Rules()) != 1 {
		t.Error("invalid rules replaced the engine")
	}
}

func TestBudgetAndStoredScore(t *testing.T) {
	_, app := setupTestApp(t, true)

	resp, body := doJSON(t, app, "POST", "/api/budget/items", map[string]any{
		"items": []models.Bucketed{
			{CategoryKey: models.BucketIncome, Item: models.BudgetItem{Category: "Salary", EstBudget: 4000, ActualCost: 4000}},
			{CategoryKey: models.BucketHousing, Item: models.BudgetItem{Category: "Rent", EstBudget: 1200, ActualCost: 1200}},
		},
		"records": []map[string]any{
			{"kind": "manual", "data": map[string]any{"merchant": "Chevron", "amount": 45.5, "date": "2024-09-01"}},
		},
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("got status %d, want 201: %v", resp.StatusCode, body)
	}
	if items := body["items"].([]any); len(items) != 3 {
		t.Errorf("got %d items, want 3", len(items))
	}

	_, body = doJSON(t, app, "GET", "/api/budget", nil)
	totals := body["totals"].(map[string]any)
	if totals["totalIncome"] != 4000.0 || totals["totalExpenses"] != 1245.5 {
		t.Errorf("got totals %v, want 4000 income and 1245.50 expenses", totals)
	}
	if tr := body["buckets"].(map[string]any)["transportation"].([]any); len(tr) != 1 {
		t.Errorf("got %d transportation items, want 1", len(tr))
	}

	_, body = doJSON(t, app, "GET", "/api/health-score", nil)
	history := body["history"].([]any)
	if len(history) != 1 {
		t.Fatalf("got %d history entries, want 1", len(history))
	}
	if got := history[0].(map[string]any)["date"]; got != "2024-09-14" {
		t.Errorf("got date %v, want 2024-09-14", got)
	}

	// A second run on the same day replaces the entry.
	doJSON(t, app, "GET", "/api/health-score", nil)
	_, body = doJSON(t, app, "GET", "/api/score-history", nil)
	if got := body["history"].([]any); len(got) != 1 {
		t.Errorf("got %d history entries, want 1", len(got))
	}
}

func TestAddBudgetItems_Invalid(t *testing.T) {
	_, app := setupTestApp(t, true)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"empty", map[string]any{}},
		{"unknown bucket", map[string]any{"items": []map[string]any{{"categoryKey": "toys", "item": map[string]any{"category": "Lego"}}}}},
		{"unknown kind", map[string]any{"records": []map[string]any{{"kind": "fax", "data": map[string]any{}}}}},
		{"legacy without total", map[string]any{"records": []map[string]any{{"kind": "legacy-receipt", "data": map[string]any{"vendor": "Target"}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doJSON(t, app, "POST", "/api/budget/items", tt.body)
			if resp.StatusCode != fiber.StatusBadRequest {
				t.Errorf("got status %d, want 400: %v", resp.StatusCode, body)
			}
		})
	}
}

func TestScorePure(t *testing.T) {
	_, app := setupTestApp(t, false)

	_, body := doJSON(t, app, "POST", "/api/health-score", map[string]any{
		"buckets": models.Buckets{
			models.BucketHousing: {{Category: "Rent", EstBudget: 1200, ActualCost: 1200}},
		},
	})
	result := body["result"].(map[string]any)
	if result["status"] != string(models.HealthVulnerable) {
		t.Errorf("got status %v, want Vulnerable", result["status"])
	}
	recs := result["recommendations"].([]any)
	if len(recs) == 0 || recs[0].(map[string]any)["issue"] != "No income recorded" {
		t.Errorf("got recommendations %v, want no-income first", recs)
	}
}

func TestStorageRoutesWithoutDB(t *testing.T) {
	_, app := setupTestApp(t, false)

	resp, _ := doJSON(t, app, "GET", "/api/budget", nil)
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Errorf("got status %d, want 503", resp.StatusCode)
	}
}

func TestNotFound(t *testing.T) {
	_, app := setupTestApp(t, true)

	resp, body := doJSON(t, app, "GET", "/api/receipts/missing", nil)
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("got status %d, want 404", resp.StatusCode)
	}
	if body["success"] != false || body["error"] == "" {
		t.Errorf("got %v, want error body", body)
	}
}
