package testfixtures

import "testing"

func TestIDGeneratorProducesSequentialIDs(t *testing.T) {
	gen := NewIDGenerator("event")

	first := gen.Next()
	second := gen.Next()

	if first != "event-1" || second != "event-2" {
		t.Fatalf("unexpected identifiers: %q, %q", first, second)
	}
}

func TestIDGeneratorCanReset(t *testing.T) {
	gen := NewIDGenerator("grant")
	_ = gen.Next()
	gen.SetCounter(0)
	gen.SetPrefix("g")

	if next := gen.Next(); next != "g-1" {
		t.Fatalf("expected g-1 after reset, got %q", next)
	}
}
