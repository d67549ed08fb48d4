package parser

import (
	"strings"

	"github.com/loglens/backend/internal/models"
)

// QueryParams filters record listings.
type QueryParams struct {
	// Search is a case-insensitive substring of message, source or url.
	Search string
	// Levels keeps only these levels when non-empty.
	Levels []models.Level
	// StatusClass keeps HTTP statuses in [StatusClass*100, StatusClass*100+100) when set.
	StatusClass int
}

// Match reports whether rec passes the filter.
func (q QueryParams) Match(rec *models.Record) bool {
	if len(q.Levels) > 0 {
		found := false
		for _, lv := range q.Levels {
			if rec.Level == lv {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if q.StatusClass > 0 && rec.HTTPStatus/100 != q.StatusClass {
		return false
	}
	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(rec.Message), needle) &&
			!strings.Contains(strings.ToLower(rec.Source), needle) &&
			!strings.Contains(strings.ToLower(rec.URL), needle) {
			return false
		}
	}
	return true
}

// FilterPage applies q to records and returns one 1-based page plus the match count.
func FilterPage(records []models.Record, q QueryParams, page, pageSize int) ([]models.Record, int) {
	page, pageSize = normalizePage(page, pageSize)
	start := (page - 1) * pageSize
	out := make([]models.Record, 0, pageSize)
	total := 0
	for i := range records {
		if !q.Match(&records[i]) {
			continue
		}
		if total >= start && len(out) < pageSize {
			out = append(out, records[i])
		}
		total++
	}
	return out, total
}

// ParseLevels turns a comma separated list like "error,warning" into levels.
// Aliases accepted by ClassifyLevel work too; unknown names are skipped.
func ParseLevels(s string) []models.Level {
	if s == "" {
		return nil
	}
	var out []models.Level
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if lv, ok := models.LevelByName(strings.ToUpper(part)); ok {
			out = append(out, lv)
			continue
		}
		if lv := ClassifyLevel(part); lv != models.LevelUnknown {
			out = append(out, lv)
		}
	}
	return out
}

const (
	DefaultPageSize = 100
	MaxPageSize     = 1000
)

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}
