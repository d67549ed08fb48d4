package parser

import (
	"strings"

	"github.com/loglens/backend/internal/models"
)

// BSD syslog lines are read with fixed offsets:
//
//	Jan 15 10:30:00 host proc[42]: message
//	|<--- 15 --->| ^16
//
// A single-digit day padded with one space ("Jan 5 ...") is not realigned,
// so the timestamp and hostname of such lines come out shifted by one.
const (
	syslogTimestampWidth = 15
	syslogHostOffset     = 16
)

var syslogLevelRules = []LevelRule{
	{Keywords: []string{"ERROR", "FAIL"}, Level: models.LevelError},
	{Keywords: []string{"WARN"}, Level: models.LevelWarning},
	{Keywords: []string{"DEBUG"}, Level: models.LevelDebug},
}

// SyslogParser handles traditional "Mon dd hh:mm:ss host proc[pid]: msg" lines.
type SyslogParser struct {
	intern *StringIntern
}

func NewSyslogParser() *SyslogParser {
	return &SyslogParser{intern: NewStringIntern()}
}

func (p *SyslogParser) Name() string {
	return "syslog"
}

func (p *SyslogParser) Parse(content []byte, onProgress ProgressCallback) []models.Record {
	p.intern.Clear()
	return parseLines(content, onProgress, p.parseLine)
}

func (p *SyslogParser) parseLine(line string, rec *models.Record) {
	rec.Message = line
	if len(line) >= syslogTimestampWidth {
		rec.Timestamp = line[:syslogTimestampWidth]
	}

	if colon := strings.Index(line, ": "); colon > syslogTimestampWidth {
		hostProc := line[syslogHostOffset:colon]
		if sp := strings.IndexByte(hostProc, ' '); sp >= 0 {
			rec.Source = p.intern.Intern(hostProc[sp+1:])
		}
		rec.Message = line[colon+2:]
	}

	rec.Level = inferLevel(syslogLevelRules, rec.Message, models.LevelInfo)
}
