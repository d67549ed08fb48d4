package parser

import (
	"testing"

	"github.com/loglens/backend/internal/models"
)

func TestGenericParser(t *testing.T) {
	p := NewGenericParser()

	t.Run("timestamps", func(t *testing.T) {
		tests := []struct {
			line string
			want string
		}{
			{"[12:00:01] boot", "12:00:01"},
			{"2024-01-15 something", "2024-01-15"},
			{"2024-01-15 10:30:00 started", "2024-01-15 10:30:00"},
			{"2024-01-15 10:30:00.123 started", "2024-01-15 10:30:00.123"},
			{"2024-01-15T10:30:00 iso", "2024-01-15"},
			{"2024/01/15 slashes", ""},
			{"[unterminated", ""},
			{"plain text", ""},
		}
		for _, tt := range tests {
			r := p.Parse([]byte(tt.line), nil)[0]
			if r.Timestamp != tt.want {
				t.Errorf("%q: Timestamp = %q, want %q", tt.line, r.Timestamp, tt.want)
			}
			if r.Message != tt.line {
				t.Errorf("%q: Message = %q", tt.line, r.Message)
			}
		}
	})

	t.Run("levels", func(t *testing.T) {
		tests := []struct {
			line string
			want models.Level
		}{
			{"something happened at noon, warn user", models.LevelWarning},
			{"critical: error in core", models.LevelFatal},
			{"NullPointerException thrown", models.LevelError},
			{"job failed", models.LevelError},
			{"debug info", models.LevelDebug},
			{"trace info", models.LevelTrace},
			{"info only", models.LevelInfo},
			{"nothing here", models.LevelUnknown},
		}
		for _, tt := range tests {
			r := p.Parse([]byte(tt.line), nil)[0]
			if r.Level != tt.want {
				t.Errorf("%q: got %v, want %v", tt.line, r.Level, tt.want)
			}
		}
	})
}

func TestParseLines_BlankLinesAndOffsets(t *testing.T) {
	content := "first\n\n\r\nsecond\r\nthird\n"
	recs := NewGenericParser().Parse([]byte(content), nil)
	if len(recs) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(recs))
	}

	wantNumbers := []int{1, 4, 5}
	for i, r := range recs {
		if r.LineNumber != wantNumbers[i] {
			t.Errorf("record %d: LineNumber = %d, want %d", i, r.LineNumber, wantNumbers[i])
		}
		if r.LineStart > r.LineEnd {
			t.Errorf("record %d: start %d > end %d", i, r.LineStart, r.LineEnd)
		}
		if i > 0 && recs[i-1].LineEnd >= r.LineStart {
			t.Errorf("record %d overlaps its predecessor", i)
		}
	}
	if recs[1].Message != "second" {
		t.Errorf("Expected carriage return to be trimmed, got %q", recs[1].Message)
	}
	if recs[1].LineEnd != 16 {
		t.Errorf("LineEnd should include the carriage return, got %d", recs[1].LineEnd)
	}
}

func TestParseLines_Progress(t *testing.T) {
	var calls int
	var lastLines int
	var lastBytes, lastTotal int64
	content := []byte("a\nb\nc\n")
	NewGenericParser().Parse(content, func(lines int, bytes, total int64) {
		calls++
		lastLines, lastBytes, lastTotal = lines, bytes, total
	})
	if calls == 0 {
		t.Fatal("Expected at least one progress callback")
	}
	if lastLines != 3 || lastBytes != lastTotal || lastTotal != int64(len(content)) {
		t.Errorf("Unexpected final progress %d %d %d", lastLines, lastBytes, lastTotal)
	}
}
