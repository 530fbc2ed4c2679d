package gcrc

import "testing"

// TestCloneDoesNotDestroyUntilLastHandleDrops is grounded on tests.rs's
// unit/simple: two handles to the same allocation, destroyed only once
// the second one drops.
func TestCloneDoesNotDestroyUntilLastHandleDrops(t *testing.T) {
	d := NewDumpster()

	var count int

	h1 := NewOn(d, newMultiRef(&count))
	h2 := h1.Clone()

	h1.Drop()

	if count != 0 {
		t.Fatalf("count = %d, want 0 after dropping only one of two handles", count)
	}

	h2.Drop()

	if count != 1 {
		t.Fatalf("count = %d, want 1 after the last handle drops", count)
	}
}

func TestDropIsIdempotentOnAZombiedHandle(t *testing.T) {
	d := NewDumpster()

	var count int

	h := NewOn(d, newMultiRef(&count))

	h.Drop()

	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}

	h.Drop() // dropping the same Handle value again must be a no-op

	if count != 1 {
		t.Fatalf("count = %d after a second drop, want still 1 (no double-destroy)", count)
	}
}

func TestStrongCountReflectsClonesAndDrops(t *testing.T) {
	d := NewDumpster()

	var count int

	h1 := NewOn(d, newMultiRef(&count))
	if got := h1.StrongCount(); got != 1 {
		t.Fatalf("StrongCount() = %d, want 1", got)
	}

	h2 := h1.Clone()
	if got := h1.StrongCount(); got != 2 {
		t.Fatalf("StrongCount() = %d, want 2", got)
	}

	h2.Drop()
	if got := h1.StrongCount(); got != 1 {
		t.Fatalf("StrongCount() = %d, want 1", got)
	}

	h1.Drop()
}

func TestValueBorrowsThePayload(t *testing.T) {
	d := NewDumpster()

	var count int

	h := NewOn(d, newMultiRef(&count))
	if h.Value() == nil {
		t.Fatal("Value() returned nil for a live handle")
	}

	h.Drop()
}

func TestNewUsesTheDefaultDumpster(t *testing.T) {
	var count int

	h := New(newMultiRef(&count))
	h.Drop()

	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
}
