package parser

import (
	"github.com/loglens/backend/internal/models"
)

// ProgressCallback is called periodically during parsing to report progress.
type ProgressCallback func(linesProcessed int, bytesProcessed int64, totalBytes int64)

// Parser turns a document into records, one per non-empty line.
// Parsing is best-effort and never fails: a line nothing matches still
// yields a record whose Message is the raw line.
type Parser interface {
	// Name returns the unique name of the parser.
	Name() string
	// Parse parses content in document order. onProgress may be nil.
	Parse(content []byte, onProgress ProgressCallback) []models.Record
}

// progressInterval is how many lines pass between progress callbacks.
const progressInterval = 10000

// lineFunc fills the format-specific fields of rec from text.
type lineFunc func(text string, rec *models.Record)

// parseLines drives fn over every non-empty line of content. Offsets and line
// numbers are filled here; blank lines advance the line number only.
func parseLines(content []byte, onProgress ProgressCallback, fn lineFunc) []models.Record {
	records := make([]models.Record, 0, estimateLines(content))
	total := int64(len(content))
	sc := NewLineScanner(content)
	for sc.Scan() {
		line := sc.Line()
		if onProgress != nil && line.Number%progressInterval == 0 {
			onProgress(line.Number, sc.Offset(), total)
		}
		if line.Text == "" {
			continue
		}
		rec := models.Record{
			LineStart:  line.Start,
			LineEnd:    line.End,
			LineNumber: line.Number,
		}
		fn(line.Text, &rec)
		if rec.Message == "" {
			rec.Message = line.Text
		}
		records = append(records, rec)
	}
	if onProgress != nil {
		onProgress(sc.Line().Number, total, total)
	}
	return records
}

// estimateLines guesses a record capacity assuming ~120 byte lines.
func estimateLines(content []byte) int {
	n := len(content) / 120
	if n < 16 {
		return 16
	}
	if n > 1<<20 {
		return 1 << 20
	}
	return n
}

// isoTimestampLen returns the length of an ISO-like timestamp prefix of line
// given the separators allowed at offsets 4 and 7, or 0 when there is none.
// minLen is the shortest accepted prefix (10 for a bare date, 19 for date and time).
func isoTimestampLen(line string, seps string, minLen int) int {
	if len(line) < minLen || !isOneOf(line[4], seps) || !isOneOf(line[7], seps) {
		return 0
	}
	n := minLen
	if n == 10 {
		if len(line) > 19 && line[10] == ' ' && line[13] == ':' {
			n = 19
		} else {
			return n
		}
	}
	if len(line) > 23 && (line[19] == '.' || line[19] == ',') {
		n = 23
	}
	return n
}

func isOneOf(c byte, set string) bool {
	for i := 0; i < len(set); i++ {
		if set[i] == c {
			return true
		}
	}
	return false
}
