package parser

import (
	"strings"
	"unicode/utf8"

	"github.com/loglens/backend/internal/models"
)

// TokenSink receives spans in increasing offset order.
type TokenSink interface {
	AddToken(span models.Span)
}

// SpanList is a TokenSink that collects spans in memory.
type SpanList []models.Span

func (l *SpanList) AddToken(span models.Span) {
	*l = append(*l, span)
}

// TokenizeSpans is a convenience wrapper returning the spans of text.
func TokenizeSpans(text string) []models.Span {
	var spans SpanList
	Tokenize(text, &spans)
	return spans
}

// TokenizeAt tokenizes text that starts at byte base of a larger buffer and
// reports spans with offsets into that buffer. text must begin at a line start.
func TokenizeAt(text string, base int, sink TokenSink) {
	if base == 0 {
		Tokenize(text, sink)
		return
	}
	Tokenize(text, offsetSink{base: base, sink: sink})
}

type offsetSink struct {
	base int
	sink TokenSink
}

func (s offsetSink) AddToken(span models.Span) {
	span.Start += s.base
	span.End += s.base
	s.sink.AddToken(span)
}

var httpWords = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "DELETE": true, "PATCH": true,
	"HEAD": true, "OPTIONS": true, "CONNECT": true, "TRACE": true, "HTTP": true,
}

// Tokenize scans text once and hands every span to sink. Spaces, tabs and
// line endings are skipped; every other byte lands in exactly one span.
// Offsets are byte offsets into text.
func Tokenize(text string, sink TokenSink) {
	n := len(text)
	pos := 0
	emit := func(kind models.TokenKind, start, end int, class models.HighlightClass) {
		sink.AddToken(models.Span{Kind: kind, Start: start, End: end, Class: class})
	}

	for pos < n {
		for pos < n && (text[pos] == ' ' || text[pos] == '\t') {
			pos++
		}
		if pos >= n {
			break
		}

		start := pos
		ch := text[pos]
		switch {
		case ch == '\n' || ch == '\r':
			pos++
			if pos < n && ((ch == '\r' && text[pos] == '\n') || (ch == '\n' && text[pos] == '\r')) {
				pos++
			}

		case isBracket(ch):
			pos++
			emit(models.TokenBracket, start, pos, models.ClassOperator)

		case ch == '"' || ch == '\'':
			pos = scanQuoted(text, pos)
			emit(models.TokenString, start, pos, models.ClassString)

		case isDigit(ch):
			var dots int
			var colon, dash bool
		number:
			for ; pos < n; pos++ {
				switch c := text[pos]; {
				case isDigit(c), c == '/', c == 'T', c == 'Z', c == '+':
				case c == '.':
					dots++
				case c == ':':
					colon = true
				case c == '-':
					dash = true
				default:
					break number
				}
			}
			switch {
			case dots == 3 && !colon && !dash:
				emit(models.TokenIPAddress, start, pos, models.ClassKeyword2)
			case colon || dash:
				emit(models.TokenTimestamp, start, pos, models.ClassKeyword)
			default:
				emit(models.TokenNumber, start, pos, models.ClassNumber)
			}

		case isWordStart(ch):
			for pos < n && isWordPart(text[pos]) {
				pos++
			}
			kind, class := classifyWord(text[start:pos])
			emit(kind, start, pos, class)

		default:
			_, size := utf8.DecodeRuneInString(text[pos:])
			pos += size
			emit(models.TokenSeparator, start, pos, models.ClassOperator)
		}
	}
}

// scanQuoted returns the offset just past the string opened at pos. The string
// ends at the matching quote (included), a line ending, or end of input.
// A backslash protects the character after it.
func scanQuoted(text string, pos int) int {
	quote := text[pos]
	n := len(text)
	pos++
	for pos < n && text[pos] != quote && text[pos] != '\n' && text[pos] != '\r' {
		if text[pos] == '\\' && pos+1 < n {
			pos++
		}
		pos++
	}
	if pos < n && text[pos] == quote {
		pos++
	}
	return pos
}

func classifyWord(word string) (models.TokenKind, models.HighlightClass) {
	switch ClassifyLevel(word) {
	case models.LevelError, models.LevelFatal, models.LevelCritical:
		return models.TokenLevelError, models.ClassError
	case models.LevelWarning:
		return models.TokenLevelWarning, models.ClassKeyword2
	case models.LevelInfo:
		return models.TokenLevelInfo, models.ClassKeyword
	case models.LevelDebug, models.LevelTrace:
		return models.TokenLevelDebug, models.ClassComment
	}
	if httpWords[strings.ToUpper(word)] {
		return models.TokenHTTPMethod, models.ClassKeyword2
	}
	return models.TokenMessage, models.ClassWord
}

func isBracket(c byte) bool {
	switch c {
	case '[', ']', '(', ')', '{', '}', '<', '>':
		return true
	}
	return false
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isWordStart(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || c == '_'
}

func isWordPart(c byte) bool {
	return isWordStart(c) || isDigit(c) || c == '-' || c == '.'
}
