package health

import (
	"sort"
	"time"

	"github.com/insightdelivered/budget-ingest/internal/fields"
	"github.com/insightdelivered/budget-ingest/internal/models"
)

// HistoryDays is how far back the score history reaches.
const HistoryDays = 90

// Entry builds today's history entry for a result.
func Entry(res models.HealthScoreResult, now time.Time) models.ScoreEntry {
	return models.ScoreEntry{Date: now.Format(fields.ISODate), Score: res.OverallScore}
}

// AppendHistory returns a new log with entry added. An existing entry on the
// same date is replaced, entries older than HistoryDays before now or with an
// unreadable date are dropped, and the result is sorted by date. The input
// slice is not modified.
func AppendHistory(log []models.ScoreEntry, entry models.ScoreEntry, now time.Time) []models.ScoreEntry {
	cutoff := now.AddDate(0, 0, -HistoryDays).Format(fields.ISODate)

	byDate := make(map[string]models.ScoreEntry, len(log)+1)
	for _, e := range append(append([]models.ScoreEntry(nil), log...), entry) {
		if _, err := time.Parse(fields.ISODate, e.Date); err != nil {
			continue
		}
		if e.Date < cutoff {
			continue
		}
		byDate[e.Date] = e
	}

	out := make([]models.ScoreEntry, 0, len(byDate))
	for _, e := range byDate {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
