// Package output renders documents, views and highlight spans for the terminal.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/loglens/backend/internal/models"
	"github.com/loglens/backend/internal/parser"
	"github.com/loglens/backend/internal/views"
)

// Renderer writes views and highlighted text to an output stream.
type Renderer interface {
	Information(name string, info views.Information) error
	List(title string, list views.List) error
	Highlight(text string, spans []models.Span) error
}

// New returns the renderer for format, "text" or "json".
func New(format string, w io.Writer, palette *parser.Palette) (Renderer, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return NewTextRenderer(w, palette), nil
	case "json":
		return NewJSONRenderer(w), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// ---------------------------------------------------------------------------
// Text Renderer (colorized terminal output)
// ---------------------------------------------------------------------------

// TextRenderer prints views with palette colours. Colours are dropped when w
// is not a terminal.
type TextRenderer struct {
	w io.Writer

	heading lipgloss.Style
	label   lipgloss.Style
	muted   lipgloss.Style
	levels  map[models.Level]lipgloss.Style
	classes map[models.HighlightClass]lipgloss.Style
}

// NewTextRenderer builds a TextRenderer. A nil palette uses the defaults.
func NewTextRenderer(w io.Writer, palette *parser.Palette) *TextRenderer {
	if palette == nil {
		palette = parser.DefaultPalette()
	}
	lg := lipgloss.NewRenderer(w)

	r := &TextRenderer{
		w:       w,
		heading: lg.NewStyle().Bold(true).Underline(true),
		label:   lg.NewStyle().Foreground(lipgloss.Color("39")),
		muted:   lg.NewStyle().Foreground(lipgloss.Color("245")).Faint(true),
		levels:  make(map[models.Level]lipgloss.Style),
		classes: make(map[models.HighlightClass]lipgloss.Style),
	}
	for _, lv := range models.AllLevels {
		st := lg.NewStyle().Foreground(lipgloss.Color(palette.LevelColor(lv)))
		if lv >= models.LevelError && lv != models.LevelUnknown {
			st = st.Bold(true)
		}
		r.levels[lv] = st
	}
	for c := models.ClassOperator; c <= models.ClassWord; c++ {
		r.classes[c] = lg.NewStyle().Foreground(lipgloss.Color(palette.ClassColor(c)))
	}
	return r
}

func (r *TextRenderer) Information(name string, info views.Information) error {
	var b strings.Builder
	b.WriteString(r.heading.Render(name))
	b.WriteString("\n")

	width := 0
	for _, f := range info.General {
		width = max(width, len(f.Name))
	}
	for _, f := range info.General {
		fmt.Fprintf(&b, "  %s %s\n", r.label.Render(fmt.Sprintf("%-*s", width+1, f.Name+":")), f.Value)
	}

	b.WriteString("\n")
	b.WriteString(r.heading.Render("Levels"))
	b.WriteString("\n")
	for _, row := range info.Levels {
		tag := fmt.Sprintf("%-8s", row.Label)
		if lv, ok := models.LevelByName(row.Label); ok {
			tag = r.levels[lv].Render(tag)
		}
		fmt.Fprintf(&b, "  %s %8d %6.1f%%\n", tag, row.Count, row.Percentage)
	}

	if len(info.HTTP) > 0 {
		b.WriteString("\n")
		b.WriteString(r.heading.Render("HTTP Status"))
		b.WriteString("\n")
		for _, row := range info.HTTP {
			fmt.Fprintf(&b, "  %-15s %8d %6.1f%%\n", row.Label, row.Count, row.Percentage)
		}
	}

	_, err := io.WriteString(r.w, b.String())
	return err
}

func (r *TextRenderer) List(title string, list views.List) error {
	var b strings.Builder
	b.WriteString(r.heading.Render(title))
	b.WriteString("\n")

	for _, e := range list.Rows {
		tag := r.levelTag(e.Level)
		src := ""
		if e.Source != "" {
			src = r.label.Render(e.Source) + " "
		}
		fmt.Fprintf(&b, "%s %s %s %s%s\n",
			r.muted.Render(fmt.Sprintf("%6d", e.LineNumber)), tag, e.Timestamp, src, e.Message)
	}
	if list.Note != "" {
		b.WriteString(r.muted.Render(list.Note))
		b.WriteString("\n")
	}

	_, err := io.WriteString(r.w, b.String())
	return err
}

func (r *TextRenderer) levelTag(lv models.Level) string {
	return r.levels[lv].Render(fmt.Sprintf("%-8s", lv.String()))
}

// Highlight writes text with each span styled by its highlight class.
// Bytes between spans are written unstyled.
func (r *TextRenderer) Highlight(text string, spans []models.Span) error {
	var b strings.Builder
	b.Grow(len(text) + len(spans)*8)

	pos := 0
	for _, s := range spans {
		if s.Start < pos || s.End > len(text) {
			continue
		}
		b.WriteString(text[pos:s.Start])
		b.WriteString(r.classes[s.Class].Render(text[s.Start:s.End]))
		pos = s.End
	}
	b.WriteString(text[pos:])

	_, err := io.WriteString(r.w, b.String())
	return err
}

// ---------------------------------------------------------------------------
// JSON Renderer (structured output for piping)
// ---------------------------------------------------------------------------

// JSONRenderer prints each view as one JSON object per line.
type JSONRenderer struct {
	enc *json.Encoder
}

func NewJSONRenderer(w io.Writer) *JSONRenderer {
	return &JSONRenderer{enc: json.NewEncoder(w)}
}

func (r *JSONRenderer) Information(name string, info views.Information) error {
	return r.enc.Encode(struct {
		Name string `json:"name"`
		views.Information
	}{name, info})
}

func (r *JSONRenderer) List(title string, list views.List) error {
	return r.enc.Encode(struct {
		Title string `json:"title"`
		views.List
	}{title, list})
}

func (r *JSONRenderer) Highlight(text string, spans []models.Span) error {
	if spans == nil {
		spans = []models.Span{}
	}
	return r.enc.Encode(struct {
		Text  string        `json:"text"`
		Spans []models.Span `json:"spans"`
	}{text, spans})
}
