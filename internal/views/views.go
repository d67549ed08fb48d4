// Package views builds the tabular read-only views shown for a parsed document.
package views

import (
	"fmt"

	"github.com/loglens/backend/internal/models"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Default row caps for the entries and errors views.
const (
	MaxEntryRows = 10000
	MaxErrorRows = 5000
)

const (
	noErrorsNote   = "No errors or warnings found in the log file."
	moreErrorsNote = "(More errors not shown - use filtering)"
)

// Source is the read-only document state a view needs.
type Source interface {
	Size() int64
	Format() models.Format
	Statistics() models.Statistics
	Records() []models.Record
}

var numbers = message.NewPrinter(language.English)

// Field is one name/value row.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// StatRow is one count with its share of all records.
type StatRow struct {
	Label      string  `json:"label"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Information summarizes the document: general fields, level counts and,
// for web logs, HTTP status classes.
type Information struct {
	General []Field   `json:"general"`
	Levels  []StatRow `json:"levels"`
	HTTP    []StatRow `json:"http,omitempty"`
}

// BuildInformation computes the information view.
func BuildInformation(src Source) Information {
	st := src.Statistics()
	info := Information{
		General: []Field{
			{Name: "Size", Value: numbers.Sprintf("%d bytes", src.Size())},
			{Name: "Format", Value: src.Format().String()},
			{Name: "Total Lines", Value: numbers.Sprintf("%d", st.TotalLines)},
		},
	}
	if st.FirstTimestamp != "" {
		info.General = append(info.General, Field{Name: "First Entry", Value: st.FirstTimestamp})
	}
	if st.LastTimestamp != "" {
		info.General = append(info.General, Field{Name: "Last Entry", Value: st.LastTimestamp})
	}

	total := st.TotalLines
	if total < 1 {
		total = 1
	}
	row := func(label string, count int) StatRow {
		return StatRow{Label: label, Count: count, Percentage: float64(count) * 100 / float64(total)}
	}

	info.Levels = []StatRow{
		row("FATAL", st.Fatal),
		row("ERROR", st.Error),
		row("WARNING", st.Warning),
		row("INFO", st.Info),
		row("DEBUG", st.Debug),
		row("TRACE", st.Trace),
		row("UNKNOWN", st.Unknown),
	}

	if st.HasHTTP() {
		info.HTTP = []StatRow{
			row("2xx (OK)", st.HTTP2xx),
			row("3xx (Redirect)", st.HTTP3xx),
			row("4xx (Client)", st.HTTP4xx),
			row("5xx (Server)", st.HTTP5xx),
		}
	}
	return info
}

// Entry is one record as shown in a list.
type Entry struct {
	LineNumber int          `json:"lineNumber"`
	Level      models.Level `json:"level"`
	Timestamp  string       `json:"timestamp"`
	Source     string       `json:"source,omitempty"`
	Message    string       `json:"message"`
}

func entryOf(r models.Record) Entry {
	return Entry{
		LineNumber: r.LineNumber,
		Level:      r.Level,
		Timestamp:  r.Timestamp,
		Source:     r.Source,
		Message:    r.Message,
	}
}

// List is a capped list of entries. Note explains truncation or emptiness.
type List struct {
	Rows      []Entry `json:"rows"`
	Total     int     `json:"total"`
	Truncated bool    `json:"truncated"`
	Note      string  `json:"note,omitempty"`
}

// BuildEntries lists the first limit records. A non-positive limit uses MaxEntryRows.
func BuildEntries(src Source, limit int) List {
	if limit <= 0 {
		limit = MaxEntryRows
	}
	records := src.Records()
	n := len(records)
	if n > limit {
		n = limit
	}
	l := List{Rows: make([]Entry, 0, n), Total: len(records)}
	for _, r := range records[:n] {
		l.Rows = append(l.Rows, entryOf(r))
	}
	if len(records) > limit {
		l.Truncated = true
		l.Note = fmt.Sprintf("(Showing %d of %d entries)", limit, len(records))
	}
	return l
}

// BuildErrors lists warning or worse records up to limit. A non-positive
// limit uses MaxErrorRows.
func BuildErrors(src Source, limit int) List {
	if limit <= 0 {
		limit = MaxErrorRows
	}
	l := List{Rows: make([]Entry, 0)}
	for _, r := range src.Records() {
		if !r.Level.IsProblem() {
			continue
		}
		l.Total++
		if len(l.Rows) >= limit {
			l.Truncated = true
			continue
		}
		l.Rows = append(l.Rows, entryOf(r))
	}
	switch {
	case l.Truncated:
		l.Note = moreErrorsNote
	case l.Total == 0:
		l.Note = noErrorsNote
	}
	return l
}
