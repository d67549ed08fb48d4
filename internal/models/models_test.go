package models

import (
	"encoding/json"
	"testing"
)

func TestLevelIsProblem(t *testing.T) {
	for _, l := range []Level{LevelWarning, LevelError, LevelFatal, LevelCritical} {
		if !l.IsProblem() {
			t.Errorf("%v should be a problem level", l)
		}
	}
	for _, l := range []Level{LevelUnknown, LevelTrace, LevelDebug, LevelInfo} {
		if l.IsProblem() {
			t.Errorf("%v should not be a problem level", l)
		}
	}
}

func TestSpanJSON(t *testing.T) {
	in := Span{Kind: TokenIPAddress, Start: 3, End: 12, Class: ClassKeyword2}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"kind":"ip_address","start":3,"end":12,"class":"keyword2"}` {
		t.Errorf("unexpected encoding: %s", data)
	}

	var out Span
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Errorf("got %+v, want %+v", out, in)
	}

	if err := json.Unmarshal([]byte(`{"kind":"nope"}`), &out); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestRecordLevelJSON(t *testing.T) {
	data, err := json.Marshal(Record{Level: LevelError, Message: "x"})
	if err != nil {
		t.Fatal(err)
	}
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		t.Fatal(err)
	}
	if r.Level != LevelError {
		t.Errorf("level = %v, want ERROR", r.Level)
	}
}

func TestStatisticsLevelCount(t *testing.T) {
	s := Statistics{Fatal: 2, Error: 1}
	if s.LevelCount(LevelCritical) != 2 {
		t.Errorf("critical should read the fatal bucket")
	}
	if s.HasHTTP() {
		t.Error("no statuses recorded")
	}
	s.HTTP3xx = 4
	if s.HasHTTP() {
		t.Error("3xx alone does not show the HTTP section")
	}
}
