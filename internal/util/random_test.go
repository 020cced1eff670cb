package util

import (
	"strings"
	"testing"
)

func TestGenerateRandomID(t *testing.T) {
	id := GenerateRandomID("test_", 16)
	if !strings.HasPrefix(id, "test_") {
		t.Errorf("id %q missing prefix", id)
	}
	if len(id) != len("test_")+16 {
		t.Errorf("len(id) = %d, want %d", len(id), len("test_")+16)
	}
}

func TestGenerateRandomHex(t *testing.T) {
	hex := GenerateRandomHex(32)
	if len(hex) != 32 {
		t.Fatalf("len = %d, want 32", len(hex))
	}
	for _, c := range hex {
		if !strings.ContainsRune("0123456789abcdef", c) {
			t.Errorf("non-hex character %q", c)
		}
	}
	if GenerateRandomHex(0) != "" || GenerateRandomHex(-1) != "" {
		t.Error("non-positive length should return empty string")
	}
}

func TestGenerateTraceIDUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := GenerateTraceID()
		if !strings.HasPrefix(id, "m_") {
			t.Fatalf("trace id %q missing prefix", id)
		}
		if seen[id] {
			t.Fatalf("duplicate trace id %q", id)
		}
		seen[id] = true
	}
}
