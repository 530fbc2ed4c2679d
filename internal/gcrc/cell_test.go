package gcrc

import "testing"

func TestCellGetSetRoundTrip(t *testing.T) {
	c := NewCell(3)

	if got := c.Get(); got != 3 {
		t.Fatalf("Get() = %d, want 3", got)
	}

	c.Set(7)

	if got := c.Get(); got != 7 {
		t.Fatalf("Get() = %d, want 7", got)
	}
}

func TestCellTryBorrowMutRefusesAConcurrentBorrow(t *testing.T) {
	c := NewCell(0)

	unlock, ok := c.TryBorrowMut()
	if !ok {
		t.Fatal("first TryBorrowMut should succeed on an unborrowed Cell")
	}

	if _, ok := c.TryBorrowMut(); ok {
		t.Fatal("second TryBorrowMut should fail while the first borrow is outstanding")
	}

	unlock()

	if _, ok := c.TryBorrowMut(); !ok {
		t.Fatal("TryBorrowMut should succeed again once the prior borrow is released")
	}
}

func TestCellMustBorrowMutPanicsOnConflict(t *testing.T) {
	c := NewCell(0)

	_, ok := c.TryBorrowMut()
	if !ok {
		t.Fatal("first TryBorrowMut should succeed")
	}

	defer func() {
		if recover() == nil {
			t.Fatal("MustBorrowMut should panic while a borrow is outstanding")
		}
	}()

	c.MustBorrowMut()
}

// TestAcceptRefusesDuringAnOutstandingBorrow mirrors the conflict Cell
// exists to prevent: a payload's Accept must refuse rather than read a
// Cell some other code currently holds mutably borrowed.
func TestAcceptRefusesDuringAnOutstandingBorrow(t *testing.T) {
	d := NewDumpster()

	var count int

	h := NewOn(d, newMultiRef(&count))

	unlock, ok := (*h.Value()).refs.TryBorrowMut()
	if !ok {
		t.Fatal("expected the fresh Cell to be unborrowed")
	}
	defer unlock()

	if err := (*h.Value()).Accept(markVisitorNoop{}); err == nil {
		t.Fatal("Accept should refuse while refs is mutably borrowed")
	}
}

// markVisitorNoop is a trivial Visitor used only to exercise Accept
// directly, outside of a real collection run.
type markVisitorNoop struct{}

func (markVisitorNoop) Visit(AnyHandle) error { return nil }

// TestSelfPushThenPopLeavesNoLingeringRefusal is grounded on tests.rs's
// double_borrow: pushing a self-clone into refs, then taking the borrow
// back out to pop it immediately, must not leave Accept refusing once
// the borrow is released — a transient borrow is not a lasting
// aliasing conflict.
func TestSelfPushThenPopLeavesNoLingeringRefusal(t *testing.T) {
	d := NewDumpster()

	var count int

	h := NewOn(d, newMultiRef(&count))
	(*h.Value()).push(h.Clone())

	unlock, ok := (*h.Value()).refs.TryBorrowMut()
	if !ok {
		t.Fatal("expected refs to be borrowable")
	}

	items := (*h.Value()).refs.Get()
	popped := items[len(items)-1]
	(*h.Value()).refs.Set(items[:len(items)-1])
	unlock()
	popped.Drop()

	if err := (*h.Value()).Accept(markVisitorNoop{}); err != nil {
		t.Fatalf("Accept still refuses after the borrow was released: %v", err)
	}

	if count != 0 {
		t.Fatalf("count = %d, want 0: popping and dropping the self-clone is not the last handle", count)
	}

	d.CollectNow() // refs is empty again; h should resolve reachable and survive

	if count != 0 {
		t.Fatalf("count = %d, want 0: h still has one live handle", count)
	}

	h.Drop()

	if count != 1 {
		t.Fatalf("count = %d, want 1 after the last handle drops", count)
	}
}
