package gcrc

import gcerrors "github.com/orizon-lang/cyclegc/internal/errors"

// Cell is a single-goroutine interior-mutability primitive, the Go
// stand-in for Rust's RefCell<T>. A payload that wants to mutate its own
// Handle fields from outside of Accept's call — push a new Handle into
// a slice of children, for instance — holds them behind a Cell rather
// than as bare fields, so Accept can detect and refuse a concurrent
// mutable borrow instead of aliasing it.
type Cell[T any] struct {
	value    T
	borrowed bool
}

// NewCell wraps v for interior mutation.
func NewCell[T any](v T) *Cell[T] {
	return &Cell[T]{value: v}
}

// TryBorrowMut attempts to take the single mutable borrow. On success it
// returns an unlock function the caller must invoke when done, and ok is
// true. On failure — the Cell is already borrowed — ok is false and
// unlock is nil. Accept implementations call this to guard the
// visit of a Cell's contained Handles: a failed TryBorrowMut means the
// payload must return errors.VisitorRefused rather than read the value
// out from under its owner.
func (c *Cell[T]) TryBorrowMut() (unlock func(), ok bool) {
	if c.borrowed {
		return nil, false
	}

	c.borrowed = true

	return func() { c.borrowed = false }, true
}

// Get reads the current value. Panics via errors.VisitorRefused-shaped
// StandardError semantics are not applicable here — Get is a plain read,
// not a borrow acquisition, and mirrors RefCell::borrow's immutable path,
// which the collector's visitors never contend with (only mutable borrows
// conflict with a concurrent Accept).
func (c *Cell[T]) Get() T {
	return c.value
}

// Set overwrites the value unconditionally. The trial-deletion
// algorithm only ever needs a visitor's *read* access during Accept,
// never a concurrent Set, so Set does not participate in the
// borrowed/unborrowed bookkeeping; a payload that wants Set to respect an
// outstanding TryBorrowMut should guard it at the call site with its own
// TryBorrowMut/unlock pair.
func (c *Cell[T]) Set(v T) {
	c.value = v
}

// MustBorrowMut is a convenience for call sites that know no conflicting
// borrow is outstanding and want a panic instead of a bool on the
// programmer-error path (e.g. application code outside of Accept, which
// is never invoked concurrently with itself in this single-goroutine
// model).
func (c *Cell[T]) MustBorrowMut() func() {
	unlock, ok := c.TryBorrowMut()
	if !ok {
		panic(gcerrors.VisitorRefused("Cell"))
	}

	return unlock
}
