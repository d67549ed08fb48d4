package parser

import (
	"strings"

	"github.com/loglens/backend/internal/models"
)

var genericLevelRules = []LevelRule{
	{Keywords: []string{"FATAL", "CRITICAL"}, Level: models.LevelFatal},
	{Keywords: []string{"ERROR", "EXCEPTION", "FAIL"}, Level: models.LevelError},
	{Keywords: []string{"WARN"}, Level: models.LevelWarning},
	{Keywords: []string{"DEBUG"}, Level: models.LevelDebug},
	{Keywords: []string{"TRACE"}, Level: models.LevelTrace},
	{Keywords: []string{"INFO"}, Level: models.LevelInfo},
}

// GenericParser is the fallback for documents no other rule recognized.
// The message is always the whole line.
type GenericParser struct{}

func NewGenericParser() *GenericParser {
	return &GenericParser{}
}

func (p *GenericParser) Name() string {
	return "generic"
}

func (p *GenericParser) Parse(content []byte, onProgress ProgressCallback) []models.Record {
	return parseLines(content, onProgress, p.parseLine)
}

func (p *GenericParser) parseLine(line string, rec *models.Record) {
	rec.Message = line
	if strings.HasPrefix(line, "[") {
		if end := strings.IndexByte(line, ']'); end > 0 {
			rec.Timestamp = line[1:end]
		}
	} else if n := isoTimestampLen(line, "-", 10); n > 0 {
		rec.Timestamp = line[:n]
	}
	rec.Level = inferLevel(genericLevelRules, line, models.LevelUnknown)
}
