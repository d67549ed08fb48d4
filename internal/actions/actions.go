// Package actions implements the operations a user can apply to a parsed document.
package actions

import (
	"errors"
	"fmt"
	"strings"

	"github.com/loglens/backend/internal/models"
)

// ErrUnknownAction is returned by Lookup for names outside the built-in set.
var ErrUnknownAction = errors.New("unknown action")

// Context is what an action operates on.
type Context struct {
	Records []models.Record
	// LineText returns the raw line of a record. Nil falls back to the message.
	LineText func(models.Record) string
	// Params carries action arguments, e.g. "levels" for FilterByLevel.
	Params map[string]string
}

func (c *Context) lineText(r models.Record) string {
	if c.LineText != nil {
		return c.LineText(r)
	}
	return r.Message
}

// EffectKind says what the host should do with an Effect.
type EffectKind string

const (
	EffectNone    EffectKind = "none"
	EffectRecords EffectKind = "records"
	EffectBuffer  EffectKind = "buffer"
)

// Effect is the result of executing an action.
type Effect struct {
	Kind    EffectKind      `json:"kind"`
	Records []models.Record `json:"records,omitempty"`
	Buffer  string          `json:"buffer,omitempty"`
	Count   int             `json:"count"`
}

// Action is one built-in operation.
type Action interface {
	ID() string
	Name() string
	Description() string
	Applicable(ctx *Context) bool
	Execute(ctx *Context) (Effect, error)
}

var builtin = []Action{
	FilterByLevel{},
	ExtractErrors{},
}

// All returns the built-in actions in display order.
func All() []Action {
	return append([]Action(nil), builtin...)
}

// Lookup finds an action by ID or display name, case-insensitively.
func Lookup(name string) (Action, error) {
	for _, a := range builtin {
		if strings.EqualFold(a.ID(), name) || strings.EqualFold(a.Name(), name) {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownAction, name)
}

// FilterByLevel keeps only records with the requested levels.
// Levels come from Params["levels"] as a comma separated list; Critical
// is matched together with Fatal.
type FilterByLevel struct{}

func (FilterByLevel) ID() string   { return "filter-by-level" }
func (FilterByLevel) Name() string { return "Filter by Level" }
func (FilterByLevel) Description() string {
	return "Filter log entries to show only specific severity levels"
}

func (FilterByLevel) Applicable(ctx *Context) bool {
	return ctx != nil && len(ctx.Records) > 0
}

func (FilterByLevel) Execute(ctx *Context) (Effect, error) {
	want, err := parseLevelParam(ctx.Params["levels"])
	if err != nil {
		return Effect{Kind: EffectNone}, err
	}
	out := make([]models.Record, 0)
	for _, r := range ctx.Records {
		if want[r.Level] {
			out = append(out, r)
		}
	}
	return Effect{Kind: EffectRecords, Records: out, Count: len(out)}, nil
}

func parseLevelParam(s string) (map[models.Level]bool, error) {
	want := make(map[models.Level]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.ToUpper(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		lv, ok := models.LevelByName(part)
		if !ok {
			return nil, fmt.Errorf("unknown level %q", part)
		}
		want[lv] = true
		if lv == models.LevelFatal || lv == models.LevelCritical {
			want[models.LevelFatal] = true
			want[models.LevelCritical] = true
		}
	}
	if len(want) == 0 {
		return nil, errors.New("no levels given")
	}
	return want, nil
}

// ExtractErrors copies every warning or worse line into a new text buffer.
type ExtractErrors struct{}

func (ExtractErrors) ID() string   { return "extract-errors" }
func (ExtractErrors) Name() string { return "Extract Errors" }
func (ExtractErrors) Description() string {
	return "Extract all error and warning entries to a new buffer"
}

func (ExtractErrors) Applicable(ctx *Context) bool {
	return ctx != nil && len(ctx.Records) > 0
}

func (ExtractErrors) Execute(ctx *Context) (Effect, error) {
	var b strings.Builder
	n := 0
	for _, r := range ctx.Records {
		if !r.Level.IsProblem() {
			continue
		}
		b.WriteString(ctx.lineText(r))
		b.WriteByte('\n')
		n++
	}
	return Effect{Kind: EffectBuffer, Buffer: b.String(), Count: n}, nil
}
