package session

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/loglens/backend/internal/models"
	"github.com/loglens/backend/internal/parser"
)

// DefaultParseCap bounds how many leading bytes of a document are parsed.
const DefaultParseCap int64 = 50 * 1024 * 1024

var (
	// ErrNoSource is returned by Refresh when the document has no byte source.
	ErrNoSource = errors.New("no readable byte source")
	// ErrEmptySource is returned by Refresh when the source holds zero bytes.
	ErrEmptySource = errors.New("byte source is empty")
)

// ByteSource is a sized, addressable buffer. *bytes.Reader and *FileSource satisfy it.
type ByteSource interface {
	io.ReaderAt
	Size() int64
}

// FileSource exposes an open file as a ByteSource.
type FileSource struct {
	f    *os.File
	size int64
}

// OpenFile opens path for reading and records its size.
func OpenFile(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &FileSource{f: f, size: info.Size()}, nil
}

func (s *FileSource) ReadAt(p []byte, off int64) (int, error) {
	return s.f.ReadAt(p, off)
}

func (s *FileSource) Size() int64 {
	return s.size
}

func (s *FileSource) Close() error {
	return s.f.Close()
}

// Options configures a Document. Zero values select the defaults.
type Options struct {
	ParseCap   int64
	Registry   *parser.Registry
	OnProgress parser.ProgressCallback
}

// Document is one open log and everything derived from it. Derived state is
// rebuilt from scratch by Refresh and must not be read while a Refresh runs.
type Document struct {
	name     string
	source   ByteSource
	parseCap int64
	registry *parser.Registry
	progress parser.ProgressCallback

	content    []byte
	format     models.Format
	parserName string
	records    []models.Record
	stats      models.Statistics
}

// NewDocument wraps src. Nothing is read until Refresh.
func NewDocument(name string, src ByteSource, opts Options) *Document {
	if opts.ParseCap <= 0 {
		opts.ParseCap = DefaultParseCap
	}
	if opts.Registry == nil {
		opts.Registry = parser.NewRegistry()
	}
	return &Document{
		name:     name,
		source:   src,
		parseCap: opts.ParseCap,
		registry: opts.Registry,
		progress: opts.OnProgress,
	}
}

// SetSource swaps the byte source; derived state stays until the next Refresh.
func (d *Document) SetSource(src ByteSource) {
	d.source = src
}

// Refresh reads up to the parse cap, detects the format, parses and aggregates.
// On failure all derived state is cleared.
func (d *Document) Refresh() error {
	d.reset()

	if d.source == nil {
		return ErrNoSource
	}
	size := d.source.Size()
	if size <= 0 {
		return ErrEmptySource
	}

	n := size
	if n > d.parseCap {
		n = d.parseCap
	}
	buf := make([]byte, n)
	read, err := d.source.ReadAt(buf, 0)
	if err != nil && !(errors.Is(err, io.EOF) && read > 0) {
		return fmt.Errorf("read source: %w", err)
	}
	buf = buf[:read]

	format, p := d.registry.FindParser(buf)
	records := p.Parse(buf, d.progress)

	d.content = buf
	d.format = format
	d.parserName = p.Name()
	d.records = records
	d.stats = parser.Aggregate(records)
	return nil
}

func (d *Document) reset() {
	d.content = nil
	d.format = models.FormatUnknown
	d.parserName = ""
	d.records = nil
	d.stats = models.Statistics{}
}

func (d *Document) Name() string {
	return d.name
}

// Size is the full size of the source, which may exceed the parsed prefix.
func (d *Document) Size() int64 {
	if d.source == nil {
		return 0
	}
	return d.source.Size()
}

// Truncated reports whether the last Refresh stopped at the parse cap.
func (d *Document) Truncated() bool {
	return d.content != nil && int64(len(d.content)) < d.Size()
}

func (d *Document) Format() models.Format {
	return d.format
}

func (d *Document) ParserName() string {
	return d.parserName
}

// Records returns the parsed records. The slice is owned by the document.
func (d *Document) Records() []models.Record {
	return d.records
}

func (d *Document) Statistics() models.Statistics {
	return d.stats
}

// Content returns the parsed prefix of the source.
func (d *Document) Content() []byte {
	return d.content
}

// LineText returns the raw text of rec without its line ending.
func (d *Document) LineText(rec models.Record) string {
	if rec.LineStart < 0 || rec.LineEnd > int64(len(d.content)) || rec.LineStart > rec.LineEnd {
		return ""
	}
	text := d.content[rec.LineStart:rec.LineEnd]
	if n := len(text); n > 0 && text[n-1] == '\r' {
		text = text[:n-1]
	}
	return string(text)
}

// Tokenize feeds the spans of the parsed text to sink.
func (d *Document) Tokenize(sink parser.TokenSink) {
	parser.Tokenize(string(d.content), sink)
}

// LineWindow widens the byte range [offset, offset+limit) to whole lines of
// the parsed content. A non-positive limit extends to the end. A line break
// preceded by a backslash may sit inside a quoted string, so the window never
// starts or ends there.
func (d *Document) LineWindow(offset, limit int) (start, end int) {
	n := len(d.content)
	if offset < 0 {
		offset = 0
	}
	if offset > n {
		offset = n
	}
	stop := n
	if limit > 0 && offset+limit < n {
		stop = offset + limit
	}

	start = bytes.LastIndexByte(d.content[:offset], '\n') + 1
	for start > 0 && d.escapedBreak(start-1) {
		start = bytes.LastIndexByte(d.content[:start-1], '\n') + 1
	}

	nl := -1
	if stop > start && d.content[stop-1] == '\n' {
		nl = stop - 1
	} else if i := bytes.IndexByte(d.content[stop:], '\n'); i >= 0 {
		nl = stop + i
	}
	for nl >= 0 && d.escapedBreak(nl) {
		i := bytes.IndexByte(d.content[nl+1:], '\n')
		if i < 0 {
			nl = -1
			break
		}
		nl += i + 1
	}
	if nl < 0 {
		return start, n
	}
	return start, nl + 1
}

// escapedBreak reports whether the '\n' at i follows a backslash.
func (d *Document) escapedBreak(i int) bool {
	return i > 0 && d.content[i-1] == '\\'
}

// TokenizeWindow feeds sink the spans of the lines overlapping
// [offset, offset+limit), matching full tokenization of that range. Span
// offsets stay relative to the full content.
// It returns the widened range.
func (d *Document) TokenizeWindow(offset, limit int, sink parser.TokenSink) (start, end int) {
	start, end = d.LineWindow(offset, limit)
	parser.TokenizeAt(string(d.content[start:end]), start, sink)
	return start, end
}

// Summary returns a flat description of the document for external consumers.
// FirstTimestamp and LastTimestamp are present only when known.
func (d *Document) Summary() map[string]any {
	s := map[string]any{
		"Name":         d.name,
		"ContentSize":  d.Size(),
		"Format":       d.format.String(),
		"TotalLines":   d.stats.TotalLines,
		"ErrorCount":   d.stats.Error,
		"WarningCount": d.stats.Warning,
		"InfoCount":    d.stats.Info,
	}
	if d.stats.FirstTimestamp != "" {
		s["FirstTimestamp"] = d.stats.FirstTimestamp
	}
	if d.stats.LastTimestamp != "" {
		s["LastTimestamp"] = d.stats.LastTimestamp
	}
	return s
}
