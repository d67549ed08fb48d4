package parser

import "testing"

func TestLineScanner(t *testing.T) {
	t.Run("offsets and numbers", func(t *testing.T) {
		sc := NewLineScanner([]byte("ab\r\n\ncd\n"))
		var lines []Line
		for sc.Scan() {
			lines = append(lines, sc.Line())
		}
		if len(lines) != 3 {
			t.Fatalf("Expected 3 lines, got %d", len(lines))
		}

		want := []Line{
			{Start: 0, End: 3, Number: 1, Text: "ab"},
			{Start: 4, End: 4, Number: 2, Text: ""},
			{Start: 5, End: 7, Number: 3, Text: "cd"},
		}
		for i, w := range want {
			if lines[i] != w {
				t.Errorf("line %d: got %+v, want %+v", i, lines[i], w)
			}
		}
	})

	t.Run("no trailing newline", func(t *testing.T) {
		sc := NewLineScanner([]byte("one\ntwo"))
		count := 0
		var last Line
		for sc.Scan() {
			count++
			last = sc.Line()
		}
		if count != 2 {
			t.Errorf("Expected 2 lines, got %d", count)
		}
		if last.Text != "two" || last.End != 7 {
			t.Errorf("Unexpected last line %+v", last)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		sc := NewLineScanner(nil)
		if sc.Scan() {
			t.Error("Expected no lines for empty input")
		}
	})

	t.Run("lone carriage return", func(t *testing.T) {
		sc := NewLineScanner([]byte("\r\n"))
		if !sc.Scan() {
			t.Fatal("Expected one line")
		}
		if sc.Line().Text != "" {
			t.Errorf("Expected empty text, got %q", sc.Line().Text)
		}
		if sc.Scan() {
			t.Error("Expected a single line")
		}
	})
}
