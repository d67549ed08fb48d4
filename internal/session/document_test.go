package session

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/loglens/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDoc(content string, opts Options) *Document {
	return NewDocument("test.log", bytes.NewReader([]byte(content)), opts)
}

func TestDocument_Refresh(t *testing.T) {
	t.Run("web access scenario", func(t *testing.T) {
		doc := newDoc(`127.0.0.1 - - [10/Oct/2023:13:55:36 +0000] "GET /index.html HTTP/1.1" 200 612`+"\n", Options{})
		require.NoError(t, doc.Refresh())

		assert.Equal(t, models.FormatWebAccess, doc.Format())
		assert.Equal(t, "web_access", doc.ParserName())
		require.Len(t, doc.Records(), 1)
		r := doc.Records()[0]
		assert.Equal(t, "127.0.0.1", r.IPAddress)
		assert.Equal(t, "10/Oct/2023:13:55:36 +0000", r.Timestamp)
		assert.Equal(t, "GET", r.HTTPMethod)
		assert.Equal(t, "/index.html", r.URL)
		assert.Equal(t, 200, r.HTTPStatus)
		assert.Equal(t, models.LevelInfo, r.Level)
		assert.Equal(t, 1, doc.Statistics().HTTP2xx)
	})

	t.Run("structured scenario", func(t *testing.T) {
		doc := newDoc("2024-01-15 10:30:00.123 ERROR [main] Worker - disk full", Options{})
		require.NoError(t, doc.Refresh())

		assert.Equal(t, models.FormatStructured, doc.Format())
		r := doc.Records()[0]
		assert.Equal(t, "2024-01-15 10:30:00.123", r.Timestamp)
		assert.Equal(t, models.LevelError, r.Level)
		assert.True(t, strings.HasSuffix(r.Message, "disk full"))
	})

	t.Run("custom scenario", func(t *testing.T) {
		doc := newDoc("something happened at noon, warn user", Options{})
		require.NoError(t, doc.Refresh())

		assert.Equal(t, models.FormatCustom, doc.Format())
		assert.Equal(t, "generic", doc.ParserName())
		r := doc.Records()[0]
		assert.Equal(t, models.LevelWarning, r.Level)
		assert.Equal(t, "", r.Timestamp)
	})

	t.Run("json documents use the generic parser", func(t *testing.T) {
		doc := newDoc(`{"timestamp":"t","level":"error","message":"boom"}`, Options{})
		require.NoError(t, doc.Refresh())
		assert.Equal(t, models.FormatJSON, doc.Format())
		assert.Equal(t, models.LevelError, doc.Records()[0].Level)
	})

	t.Run("empty source fails", func(t *testing.T) {
		doc := newDoc("", Options{})
		err := doc.Refresh()
		assert.True(t, errors.Is(err, ErrEmptySource))
		assert.Empty(t, doc.Records())
		assert.Equal(t, models.Statistics{}, doc.Statistics())
	})

	t.Run("nil source fails", func(t *testing.T) {
		doc := NewDocument("none", nil, Options{})
		assert.ErrorIs(t, doc.Refresh(), ErrNoSource)
		assert.Equal(t, int64(0), doc.Size())
	})

	t.Run("failure clears previous state", func(t *testing.T) {
		doc := newDoc("INFO a\nERROR b\n", Options{})
		require.NoError(t, doc.Refresh())
		require.Len(t, doc.Records(), 2)

		doc.SetSource(bytes.NewReader(nil))
		assert.Error(t, doc.Refresh())
		assert.Empty(t, doc.Records())
		assert.Equal(t, 0, doc.Statistics().TotalLines)
		assert.Equal(t, models.FormatUnknown, doc.Format())
	})

	t.Run("idempotent", func(t *testing.T) {
		content := "Jan 15 10:30:00 host a[1]: one\n\nJan 15 10:30:01 host a[1]: failed two\n"
		doc := newDoc(content, Options{})
		require.NoError(t, doc.Refresh())
		first := append([]models.Record(nil), doc.Records()...)
		firstStats := doc.Statistics()

		require.NoError(t, doc.Refresh())
		assert.Equal(t, first, doc.Records())
		assert.Equal(t, firstStats, doc.Statistics())
	})

	t.Run("level buckets sum to total", func(t *testing.T) {
		content := "a INFO\nb WARN\n\nc ERROR\nd fatal\ne\n"
		doc := newDoc(content, Options{})
		require.NoError(t, doc.Refresh())
		st := doc.Statistics()
		sum := st.Unknown + st.Trace + st.Debug + st.Info + st.Warning + st.Error + st.Fatal
		assert.Equal(t, len(doc.Records()), st.TotalLines)
		assert.Equal(t, st.TotalLines, sum)
	})
}

func TestDocument_ParseCap(t *testing.T) {
	content := "first line INFO\nsecond line ERROR\n"
	doc := newDoc(content, Options{ParseCap: 16})
	require.NoError(t, doc.Refresh())

	assert.True(t, doc.Truncated())
	assert.Len(t, doc.Content(), 16)
	require.Len(t, doc.Records(), 1)
	assert.Equal(t, models.LevelInfo, doc.Records()[0].Level)
	assert.Equal(t, int64(len(content)), doc.Size())
}

func TestDocument_Summary(t *testing.T) {
	t.Run("with timestamps", func(t *testing.T) {
		doc := newDoc("2024-01-15 10:00:00 INFO a - x\n2024-01-15 11:00:00 ERROR b - y\n", Options{})
		require.NoError(t, doc.Refresh())

		s := doc.Summary()
		assert.Equal(t, "test.log", s["Name"])
		assert.Equal(t, doc.Size(), s["ContentSize"])
		assert.Equal(t, "Log4j/Log4net", s["Format"])
		assert.Equal(t, 2, s["TotalLines"])
		assert.Equal(t, 1, s["ErrorCount"])
		assert.Equal(t, 0, s["WarningCount"])
		assert.Equal(t, 1, s["InfoCount"])
		assert.Equal(t, "2024-01-15 10:00:00", s["FirstTimestamp"])
		assert.Equal(t, "2024-01-15 11:00:00", s["LastTimestamp"])
	})

	t.Run("without timestamps", func(t *testing.T) {
		doc := newDoc("plain\n", Options{})
		require.NoError(t, doc.Refresh())

		s := doc.Summary()
		assert.NotContains(t, s, "FirstTimestamp")
		assert.NotContains(t, s, "LastTimestamp")
	})
}

func TestDocument_LineTextAndTokenize(t *testing.T) {
	doc := newDoc("ERROR one\r\nINFO two", Options{})
	require.NoError(t, doc.Refresh())

	recs := doc.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, "ERROR one", doc.LineText(recs[0]))
	assert.Equal(t, "INFO two", doc.LineText(recs[1]))
	assert.Equal(t, "", doc.LineText(models.Record{LineStart: 5, LineEnd: 500}))

	var spans []models.Span
	doc.Tokenize(sinkFunc(func(s models.Span) { spans = append(spans, s) }))
	require.Len(t, spans, 4)
	assert.Equal(t, models.TokenLevelError, spans[0].Kind)
	assert.Equal(t, models.TokenLevelInfo, spans[2].Kind)
}

func TestDocument_TokenizeWindow(t *testing.T) {
	text := "INFO alpha\nERROR \"beta gamma\"\nDEBUG 42\n"
	doc := newDoc(text, Options{})
	require.NoError(t, doc.Refresh())

	var full []models.Span
	doc.Tokenize(sinkFunc(func(s models.Span) { full = append(full, s) }))

	t.Run("widens to whole lines", func(t *testing.T) {
		var spans []models.Span
		start, end := doc.TokenizeWindow(14, 3, sinkFunc(func(s models.Span) { spans = append(spans, s) }))
		assert.Equal(t, 11, start)
		assert.Equal(t, 30, end)
		require.Len(t, spans, 2)
		assert.Equal(t, models.TokenLevelError, spans[0].Kind)
		assert.Equal(t, 11, spans[0].Start)
		assert.Equal(t, models.TokenString, spans[1].Kind)
	})

	t.Run("matches full tokenization", func(t *testing.T) {
		var spans []models.Span
		doc.TokenizeWindow(0, 0, sinkFunc(func(s models.Span) { spans = append(spans, s) }))
		assert.Equal(t, full, spans)
	})

	t.Run("window ending on a newline stays on its line", func(t *testing.T) {
		var spans []models.Span
		_, end := doc.TokenizeWindow(0, 11, sinkFunc(func(s models.Span) { spans = append(spans, s) }))
		assert.Equal(t, 11, end)
		assert.Len(t, spans, 2)
	})

	t.Run("offset past end", func(t *testing.T) {
		var spans []models.Span
		start, end := doc.TokenizeWindow(1000, 10, sinkFunc(func(s models.Span) { spans = append(spans, s) }))
		assert.Equal(t, len(text), start)
		assert.Equal(t, len(text), end)
		assert.Empty(t, spans)
	})
}

func TestDocument_TokenizeWindow_EscapedLineBreak(t *testing.T) {
	text := "x \"a\\\nb c\"\nnext line\nlast \\\n"
	doc := newDoc(text, Options{})
	require.NoError(t, doc.Refresh())

	var full []models.Span
	doc.Tokenize(sinkFunc(func(s models.Span) { full = append(full, s) }))
	require.Equal(t, models.TokenString, full[1].Kind)
	require.Equal(t, 10, full[1].End, "string continues across the escaped line break")

	start, end := doc.LineWindow(6, 1)
	assert.Equal(t, 0, start)
	assert.Equal(t, 11, end)

	for offset := 0; offset <= len(text); offset++ {
		for limit := 1; limit <= len(text); limit++ {
			var spans []models.Span
			start, end := doc.TokenizeWindow(offset, limit, sinkFunc(func(s models.Span) { spans = append(spans, s) }))

			var want []models.Span
			for _, s := range full {
				if s.Start >= start && s.Start < end {
					want = append(want, s)
				}
			}
			require.Equal(t, want, spans, "window [%d,+%d) widened to [%d,%d)", offset, limit, start, end)
		}
	}
}

type sinkFunc func(models.Span)

func (f sinkFunc) AddToken(s models.Span) { f(s) }

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(path, []byte("INFO hello\n"), 0644))

	src, err := OpenFile(path)
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, int64(11), src.Size())
	doc := NewDocument("app.log", src, Options{})
	require.NoError(t, doc.Refresh())
	assert.Len(t, doc.Records(), 1)

	_, err = OpenFile(filepath.Join(t.TempDir(), "missing.log"))
	assert.Error(t, err)
}
