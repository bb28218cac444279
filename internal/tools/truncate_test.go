package tools

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncate_NoOpWhenWithinCap(t *testing.T) {
	s := strings.Repeat("a", 100)
	if got := Truncate(s, 100); got != s {
		t.Errorf("Truncate changed a string that fits: %q", got)
	}
	if got := Truncate("", 10); got != "" {
		t.Errorf("Truncate of empty string = %q", got)
	}
}

func TestTruncate_CapsLength(t *testing.T) {
	for _, size := range []int{10241, 20480, 1 << 20} {
		s := strings.Repeat("x", size)
		got := Truncate(s, DefaultMaxResultBytes)
		if len(got) > DefaultMaxResultBytes {
			t.Errorf("len(Truncate(%d bytes)) = %d, want <= %d", size, len(got), DefaultMaxResultBytes)
		}
		if !strings.Contains(got, truncationMarker) {
			t.Errorf("truncated result missing marker")
		}
	}
}

func TestTruncate_KeepsHeadAndTail(t *testing.T) {
	head := strings.Repeat("H", 4000)
	tail := strings.Repeat("T", 1500)
	s := head + strings.Repeat("m", 50000) + tail

	got := Truncate(s, DefaultMaxResultBytes)
	if !strings.HasPrefix(got, head) {
		t.Error("head of the result was not preserved")
	}
	if !strings.HasSuffix(got, tail) {
		t.Error("tail of the result was not preserved")
	}
}

func TestTruncate_RespectsRuneBoundaries(t *testing.T) {
	s := strings.Repeat("héllo wörld ", 2000)
	got := Truncate(s, DefaultMaxResultBytes)
	if !utf8.ValidString(got) {
		t.Error("truncation split a multi-byte rune")
	}
	if len(got) > DefaultMaxResultBytes {
		t.Errorf("len = %d, want <= %d", len(got), DefaultMaxResultBytes)
	}
}

func TestTruncate_TinyCap(t *testing.T) {
	s := strings.Repeat("abc", 100)
	for _, capBytes := range []int{1, 5, len(truncationMarker), 30} {
		got := Truncate(s, capBytes)
		if len(got) > capBytes {
			t.Errorf("cap %d: len = %d", capBytes, len(got))
		}
	}
}
