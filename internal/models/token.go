package models

import "fmt"

// TokenKind is the semantic tag of a highlight span.
type TokenKind int

const (
	TokenTimestamp TokenKind = iota
	TokenLevel
	TokenLevelError
	TokenLevelWarning
	TokenLevelInfo
	TokenLevelDebug
	TokenSource
	TokenMessage
	TokenIPAddress
	TokenHTTPMethod
	TokenHTTPStatus
	TokenURL
	TokenNumber
	TokenBracket
	TokenString
	TokenSeparator
)

var tokenKindNames = [...]string{
	"timestamp", "level", "level_error", "level_warning", "level_info", "level_debug",
	"source", "message", "ip_address", "http_method", "http_status", "url",
	"number", "bracket", "string", "separator",
}

func (k TokenKind) String() string {
	if k < 0 || int(k) >= len(tokenKindNames) {
		return "unknown"
	}
	return tokenKindNames[k]
}

func (k TokenKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *TokenKind) UnmarshalText(text []byte) error {
	for i, n := range tokenKindNames {
		if n == string(text) {
			*k = TokenKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown token kind %q", text)
}

// HighlightClass is the style bucket a renderer uses for a span.
type HighlightClass int

const (
	ClassOperator HighlightClass = iota
	ClassString
	ClassNumber
	ClassKeyword
	ClassKeyword2
	ClassError
	ClassComment
	ClassWord
)

var highlightClassNames = [...]string{
	"operator", "string", "number", "keyword", "keyword2", "error", "comment", "word",
}

func (c HighlightClass) String() string {
	if c < 0 || int(c) >= len(highlightClassNames) {
		return "word"
	}
	return highlightClassNames[c]
}

func (c HighlightClass) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *HighlightClass) UnmarshalText(text []byte) error {
	hc, ok := HighlightClassByName(string(text))
	if !ok {
		return fmt.Errorf("unknown highlight class %q", text)
	}
	*c = hc
	return nil
}

// HighlightClassByName is the inverse of HighlightClass.String.
func HighlightClassByName(name string) (HighlightClass, bool) {
	for i, n := range highlightClassNames {
		if n == name {
			return HighlightClass(i), true
		}
	}
	return ClassWord, false
}

// Span is one classified run of the raw text, as byte offsets [Start, End).
type Span struct {
	Kind  TokenKind      `json:"kind"`
	Start int            `json:"start"`
	End   int            `json:"end"`
	Class HighlightClass `json:"class"`
}
