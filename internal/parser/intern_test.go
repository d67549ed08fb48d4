package parser

import (
	"fmt"
	"testing"
)

func TestStringIntern(t *testing.T) {
	si := NewStringIntern()

	s1 := si.Intern("sshd[1]")
	s2 := si.Intern("sshd[1]")
	if s1 != s2 {
		t.Error("Expected equal interned strings")
	}

	si.Intern("cron[2]")
	if si.Len() != 2 {
		t.Errorf("Expected pool size 2, got %d", si.Len())
	}

	si.Clear()
	if si.Len() != 0 {
		t.Errorf("Expected pool size 0 after clear, got %d", si.Len())
	}
}

func TestStringIntern_Limit(t *testing.T) {
	si := NewStringIntern()
	for i := 0; i < MaxInternPoolSize+10; i++ {
		si.Intern(fmt.Sprintf("s%d", i))
	}
	if si.Len() != MaxInternPoolSize {
		t.Errorf("Expected pool to stop at %d, got %d", MaxInternPoolSize, si.Len())
	}
	if got := si.Intern("overflow"); got != "overflow" {
		t.Errorf("Expected passthrough after limit, got %q", got)
	}
}

func BenchmarkStringIntern(b *testing.B) {
	si := NewStringIntern()
	sources := []string{"sshd[1]", "cron[2]", "kernel", "systemd[1]"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		si.Intern(sources[i%len(sources)])
	}
}
