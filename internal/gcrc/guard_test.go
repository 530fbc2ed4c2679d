package gcrc

import (
	"testing"

	gcerrors "github.com/orizon-lang/cyclegc/internal/errors"
)

func TestValueDoesNotPanicOutsideCollection(t *testing.T) {
	d := NewDumpster()

	var count int

	h := NewOn(d, newMultiRef(&count))
	_ = h.Value()
	h.Drop()
}

// derefOnDestroy lets a test observe what happens when a destructor
// dereferences a sibling Handle while the collector's guard is held: the
// target's push/pop here is irrelevant, only Destroy matters.
type derefOnDestroy struct {
	loop   *Cell[[]Handle[*derefOnDestroy]]
	target Handle[*multiRef]
	done   *bool
}

func newDerefOnDestroy(target Handle[*multiRef], done *bool) *derefOnDestroy {
	return &derefOnDestroy{loop: NewCell[[]Handle[*derefOnDestroy]](nil), target: target, done: done}
}

func (d *derefOnDestroy) push(h Handle[*derefOnDestroy]) {
	unlock := d.loop.MustBorrowMut()
	defer unlock()

	d.loop.Set(append(d.loop.Get(), h))
}

func (d *derefOnDestroy) Accept(v Visitor) error {
	unlock, ok := d.loop.TryBorrowMut()
	if !ok {
		return gcerrors.VisitorRefused("derefOnDestroy")
	}
	defer unlock()

	for _, h := range d.loop.Get() {
		if err := v.Visit(h); err != nil {
			return err
		}
	}

	return nil
}

func (d *derefOnDestroy) Destroy() {
	*d.done = true
	d.target.Value() // must panic: the collector's guard is held here
}

// TestHandleValuePanicsDuringCollection verifies that Value panics with
// errors.DerefDuringCollection if called from within a destructor the
// collector itself triggered.
func TestHandleValuePanicsDuringCollection(t *testing.T) {
	d := NewDumpster()

	var victimCount int

	victim := NewOn(d, newMultiRef(&victimCount))

	var done bool

	h := NewOn(d, newDerefOnDestroy(victim, &done))
	(*h.Value()).push(h.Clone())
	h.Drop()

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected Value() to panic during collection")
		}

		if !done {
			t.Fatal("Destroy should have run before the panic")
		}

		se, ok := r.(*gcerrors.StandardError)
		if !ok {
			t.Fatalf("expected *errors.StandardError, got %T", r)
		}

		if se.Code != "DEREF_DURING_COLLECTION" {
			t.Fatalf("Code = %q, want DEREF_DURING_COLLECTION", se.Code)
		}
	}()

	d.CollectNow()
	t.Fatal("CollectNow returned without panicking")
}
