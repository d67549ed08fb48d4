package parser

import (
	"strings"
	"testing"

	"github.com/loglens/backend/internal/models"
)

func spanText(text string, s models.Span) string {
	return text[s.Start:s.End]
}

func TestTokenize_Scenario(t *testing.T) {
	text := `[2024-01-15] ERROR "disk full"`
	spans := TokenizeSpans(text)

	want := []struct {
		kind models.TokenKind
		text string
	}{
		{models.TokenBracket, "["},
		{models.TokenTimestamp, "2024-01-15"},
		{models.TokenBracket, "]"},
		{models.TokenLevelError, "ERROR"},
		{models.TokenString, `"disk full"`},
	}
	if len(spans) != len(want) {
		t.Fatalf("Expected %d spans, got %d: %+v", len(want), len(spans), spans)
	}
	for i, w := range want {
		if spans[i].Kind != w.kind || spanText(text, spans[i]) != w.text {
			t.Errorf("span %d: got %v %q, want %v %q", i, spans[i].Kind, spanText(text, spans[i]), w.kind, w.text)
		}
	}
}

func TestTokenize_Classification(t *testing.T) {
	tests := []struct {
		input string
		kind  models.TokenKind
		class models.HighlightClass
	}{
		{"192.168.0.1", models.TokenIPAddress, models.ClassKeyword2},
		{"10:30:00", models.TokenTimestamp, models.ClassKeyword},
		{"2024-01-15T10:30:00Z", models.TokenTimestamp, models.ClassKeyword},
		{"1.2.3.4:80", models.TokenTimestamp, models.ClassKeyword},
		{"42", models.TokenNumber, models.ClassNumber},
		{"3.14", models.TokenNumber, models.ClassNumber},
		{"err", models.TokenLevelError, models.ClassError},
		{"FATAL", models.TokenLevelError, models.ClassError},
		{"crit", models.TokenLevelError, models.ClassError},
		{"Warning", models.TokenLevelWarning, models.ClassKeyword2},
		{"INFO", models.TokenLevelInfo, models.ClassKeyword},
		{"notice", models.TokenLevelInfo, models.ClassKeyword},
		{"DBG", models.TokenLevelDebug, models.ClassComment},
		{"TRACE", models.TokenLevelDebug, models.ClassComment},
		{"GET", models.TokenHTTPMethod, models.ClassKeyword2},
		{"options", models.TokenHTTPMethod, models.ClassKeyword2},
		{"HTTP", models.TokenHTTPMethod, models.ClassKeyword2},
		{"worker_1.main-loop", models.TokenMessage, models.ClassWord},
		{"'single'", models.TokenString, models.ClassString},
		{"=", models.TokenSeparator, models.ClassOperator},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			spans := TokenizeSpans(tt.input)
			if len(spans) != 1 {
				t.Fatalf("Expected 1 span, got %+v", spans)
			}
			s := spans[0]
			if s.Kind != tt.kind || s.Class != tt.class {
				t.Errorf("got %v/%v, want %v/%v", s.Kind, s.Class, tt.kind, tt.class)
			}
			if s.Start != 0 || s.End != len(tt.input) {
				t.Errorf("span [%d,%d) does not cover input", s.Start, s.End)
			}
		})
	}
}

func TestTokenize_Strings(t *testing.T) {
	t.Run("escaped quote", func(t *testing.T) {
		text := `"a \" b" x`
		spans := TokenizeSpans(text)
		if spanText(text, spans[0]) != `"a \" b"` {
			t.Errorf("String span = %q", spanText(text, spans[0]))
		}
	})

	t.Run("stops at newline", func(t *testing.T) {
		text := "\"open\nnext"
		spans := TokenizeSpans(text)
		if len(spans) != 2 {
			t.Fatalf("Expected 2 spans, got %+v", spans)
		}
		if spanText(text, spans[0]) != `"open` || spanText(text, spans[1]) != "next" {
			t.Errorf("Unexpected spans %+v", spans)
		}
	})

	t.Run("unterminated at end", func(t *testing.T) {
		text := `"abc\`
		spans := TokenizeSpans(text)
		if len(spans) != 1 || spans[0].End != len(text) {
			t.Errorf("Unexpected spans %+v", spans)
		}
	})
}

func TestTokenize_Totality(t *testing.T) {
	inputs := []string{
		"",
		"   \t\r\n\n\r",
		`127.0.0.1 - - [10/Oct/2023:13:55:36 +0000] "GET /index.html HTTP/1.1" 200 612`,
		"Jan 15 10:30:00 host sshd[42]: Failed password for root from 10.0.0.2\r\n",
		"2024-01-15 10:30:00,123 [WARN] pool - exhausted {size=10} <x> 'q'\n",
		"naïve façade → ünïcödé ✓ 日本語",
		"\x00\xff\xfe broken utf8 \"",
		"a\\b \"esc\\",
	}

	for _, text := range inputs {
		spans := TokenizeSpans(text)
		prevEnd := 0
		for _, s := range spans {
			if s.Start < prevEnd || s.End <= s.Start || s.End > len(text) {
				t.Fatalf("%q: bad span %+v after %d", text, s, prevEnd)
			}
			for i := prevEnd; i < s.Start; i++ {
				if !strings.ContainsRune(" \t\r\n", rune(text[i])) {
					t.Errorf("%q: byte %d (%q) not covered", text, i, text[i])
				}
			}
			prevEnd = s.End
		}
		for i := prevEnd; i < len(text); i++ {
			if !strings.ContainsRune(" \t\r\n", rune(text[i])) {
				t.Errorf("%q: trailing byte %d not covered", text, i)
			}
		}
	}
}

func TestTokenize_SinkOrder(t *testing.T) {
	var sink SpanList
	Tokenize("a [b] 1", &sink)
	for i := 1; i < len(sink); i++ {
		if sink[i].Start < sink[i-1].End {
			t.Errorf("spans out of order: %+v then %+v", sink[i-1], sink[i])
		}
	}
	if len(sink) != 5 {
		t.Errorf("Expected 5 spans, got %d", len(sink))
	}
}

func TestTokenizeAt_ShiftsOffsets(t *testing.T) {
	full := "INFO a\nERROR b\n"
	base := strings.Index(full, "ERROR")

	var want SpanList
	Tokenize(full, &want)

	var got SpanList
	TokenizeAt(full[base:], base, &got)

	if len(got) != 2 {
		t.Fatalf("Expected 2 spans, got %d", len(got))
	}
	for i, span := range got {
		if span != want[i+2] {
			t.Errorf("span %d = %+v, want %+v", i, span, want[i+2])
		}
	}
}
