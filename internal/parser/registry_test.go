package parser

import (
	"testing"

	"github.com/loglens/backend/internal/models"
)

func TestRegistry_ForFormat(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		format models.Format
		want   string
	}{
		{models.FormatWebAccess, "web_access"},
		{models.FormatSyslog, "syslog"},
		{models.FormatStructured, "structured"},
		{models.FormatWebError, "generic"},
		{models.FormatJSON, "generic"},
		{models.FormatCustom, "generic"},
		{models.FormatIIS, "generic"},
	}
	for _, tt := range tests {
		if got := r.ForFormat(tt.format).Name(); got != tt.want {
			t.Errorf("ForFormat(%v) = %s, want %s", tt.format, got, tt.want)
		}
	}
}

func TestRegistry_FindParser(t *testing.T) {
	r := NewRegistry()
	f, p := r.FindParser([]byte("Jan 15 10:30:00 host app[1]: hello"))
	if f != models.FormatSyslog || p.Name() != "syslog" {
		t.Errorf("Expected syslog, got %v/%s", f, p.Name())
	}
}

func TestRegistry_GetParserByName(t *testing.T) {
	r := NewRegistry()
	p, err := r.GetParserByName("SYSLOG")
	if err != nil {
		t.Fatalf("GetParserByName failed: %v", err)
	}
	if p.Name() != "syslog" {
		t.Errorf("Expected syslog, got %s", p.Name())
	}
	if _, err := r.GetParserByName("nope"); err == nil {
		t.Error("Expected error for unknown parser")
	}
	if len(r.Names()) != 4 {
		t.Errorf("Expected 4 parsers, got %v", r.Names())
	}
}

func TestParsers_Idempotent(t *testing.T) {
	content := []byte("Jan 15 10:30:00 host app[1]: one\nJan 15 10:30:01 host app[1]: two failed\n")
	r := NewRegistry()
	_, p := r.FindParser(content)
	a := p.Parse(content, nil)
	b := p.Parse(content, nil)
	if len(a) != len(b) {
		t.Fatalf("Record counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("record %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
	if Aggregate(a) != Aggregate(b) {
		t.Error("Statistics differ between runs")
	}
}
