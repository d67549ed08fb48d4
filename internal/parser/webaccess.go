package parser

import (
	"strings"

	"github.com/loglens/backend/internal/models"
)

// WebAccessParser handles the Apache/Nginx common and combined access log:
//
//	IP - - [timestamp] "METHOD URL PROTO" status size "referer" "user-agent"
//
// Each field is extracted independently; a missing delimiter only skips its field.
type WebAccessParser struct {
	intern *StringIntern
}

func NewWebAccessParser() *WebAccessParser {
	return &WebAccessParser{intern: NewStringIntern()}
}

func (p *WebAccessParser) Name() string {
	return "web_access"
}

func (p *WebAccessParser) Parse(content []byte, onProgress ProgressCallback) []models.Record {
	p.intern.Clear()
	return parseLines(content, onProgress, p.parseLine)
}

func (p *WebAccessParser) parseLine(line string, rec *models.Record) {
	rec.Message = line

	if sp := strings.IndexByte(line, ' '); sp >= 0 {
		rec.IPAddress = line[:sp]
	}

	if open := strings.IndexByte(line, '['); open >= 0 {
		if end := strings.IndexByte(line[open+1:], ']'); end >= 0 {
			rec.Timestamp = line[open+1 : open+1+end]
		}
	}

	reqStart := strings.IndexByte(line, '"')
	if reqStart < 0 {
		return
	}
	reqLen := strings.IndexByte(line[reqStart+1:], '"')
	if reqLen < 0 {
		return
	}
	request := line[reqStart+1 : reqStart+1+reqLen]
	if sp := strings.IndexByte(request, ' '); sp >= 0 {
		rec.HTTPMethod = p.intern.Intern(request[:sp])
		// A request without a protocol part leaves the URL empty.
		rest := request[sp+1:]
		if sp2 := strings.IndexByte(rest, ' '); sp2 >= 0 {
			rec.URL = rest[:sp2]
		}
	}

	after := line[reqStart+1+reqLen+1:]
	status, n, ok := leadingNumber(after)
	if !ok {
		return
	}
	rec.HTTPStatus = int(status)
	rec.Level = levelForStatus(rec.HTTPStatus)
	after = after[n:]

	// size: digits or "-"
	trimmed := strings.TrimLeft(after, " ")
	if strings.HasPrefix(trimmed, "-") {
		after = trimmed[1:]
	} else if trimmed != "" && trimmed[0] >= '0' && trimmed[0] <= '9' {
		size, m, _ := leadingNumber(trimmed)
		rec.ResponseSize = size
		after = trimmed[m:]
	}

	if ref, rest, ok := nextQuoted(after); ok {
		if ref != "-" {
			rec.Referer = ref
		}
		if ua, _, ok := nextQuoted(rest); ok && ua != "-" {
			rec.UserAgent = ua
		}
	}
}

func levelForStatus(status int) models.Level {
	switch {
	case status >= 500:
		return models.LevelError
	case status >= 400:
		return models.LevelWarning
	default:
		return models.LevelInfo
	}
}

// leadingNumber finds the first digit run in s and parses it. n is the index
// just past the run.
func leadingNumber(s string) (v int64, n int, ok bool) {
	i := strings.IndexAny(s, "0123456789")
	if i < 0 {
		return 0, 0, false
	}
	for n = i; n < len(s) && s[n] >= '0' && s[n] <= '9'; n++ {
		if v < 1<<40 {
			v = v*10 + int64(s[n]-'0')
		}
	}
	return v, n, true
}

// nextQuoted returns the contents of the next "..." pair in s and the text after it.
func nextQuoted(s string) (quoted, rest string, ok bool) {
	open := strings.IndexByte(s, '"')
	if open < 0 {
		return "", s, false
	}
	end := strings.IndexByte(s[open+1:], '"')
	if end < 0 {
		return "", s, false
	}
	return s[open+1 : open+1+end], s[open+1+end+1:], true
}
