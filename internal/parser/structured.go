package parser

import (
	"strings"

	"github.com/loglens/backend/internal/models"
)

// structuredKeywords are tried in this order. WARN precedes WARNING, so a
// WARNING line leaves "ING" at the start of its source.
var structuredKeywords = []string{
	"TRACE", "DEBUG", "INFO", "WARN", "WARNING", "ERROR", "FATAL", "CRITICAL",
}

// structuredLevelWindow bounds how far past the timestamp a level keyword may start.
const structuredLevelWindow = 20

// StructuredParser handles log4j/log4net/logback style lines:
//
//	2024-01-15 10:30:00.123 INFO [main] ClassName - Message
//	2024-01-15 10:30:00,123 [INFO] logger - Message
type StructuredParser struct {
	intern *StringIntern
}

func NewStructuredParser() *StructuredParser {
	return &StructuredParser{intern: NewStringIntern()}
}

func (p *StructuredParser) Name() string {
	return "structured"
}

func (p *StructuredParser) Parse(content []byte, onProgress ProgressCallback) []models.Record {
	p.intern.Clear()
	return parseLines(content, onProgress, p.parseLine)
}

func (p *StructuredParser) parseLine(line string, rec *models.Record) {
	tsLen := isoTimestampLen(line, "-/", 19)
	rec.Timestamp = line[:tsLen]
	remaining := line[tsLen:]

	for _, kw := range structuredKeywords {
		pos := strings.Index(remaining, kw)
		if pos < 0 || pos >= structuredLevelWindow {
			continue
		}
		rec.Level = ClassifyLevel(kw)
		after := pos + len(kw)
		delim := strings.Index(remaining[pos:], " - ")
		if delim < 0 {
			rec.Message = remaining[after:]
			break
		}
		delim += pos
		if delim > after {
			src := strings.TrimLeft(remaining[after:delim], " [")
			src = strings.TrimRight(src, " ]")
			rec.Source = p.intern.Intern(src)
		}
		rec.Message = remaining[delim+3:]
		break
	}
}
