package gcrc

// Handle is the owning smart pointer at the center of this package. It
// carries only the allocation's address and the Dumpster that created
// it; all other state lives in the header or that Dumpster. The zero value is not usable —
// construct one with New.
type Handle[T Collectable] struct {
	box *box[T]
	d   *Dumpster
}

// New allocates value on this package's default Dumpster and returns an
// owning Handle to it.
func New[T Collectable](value T) Handle[T] {
	return NewOn(defaultDumpster, value)
}

// NewOn allocates value on d and returns an owning Handle to it. This is
// the Dumpster-scoped constructor behind New, for callers using an
// isolated arena from NewDumpster: a Handle always belongs to exactly
// one Dumpster, the one that created it, and every later operation on
// it (Clone, Drop) is routed back to that same Dumpster. Go methods
// cannot carry their own type parameters, so this lives as a free
// function rather than a (*Dumpster) method.
func NewOn[T Collectable](d *Dumpster, value T) Handle[T] {
	d.noteCreated()

	return Handle[T]{box: newBox(value), d: d}
}

// header satisfies AnyHandle, letting the collector enumerate h as an
// outgoing edge from a Collectable.Accept without exposing box[T]
// itself.
func (h Handle[T]) header() *boxHeader {
	return &h.box.boxHeader
}

// Clone returns an additional Handle to the same allocation:
// saturating-increments the strong count and bumps the live-handle
// counter. A clone is never recorded as a new suspect — only drops do
// that — and Clone intentionally does not clear suspect status on the
// source handle even if it happened to be a suspect: a clone of a
// suspect does not prove it is no longer part of a cycle, only that one
// more reference to it exists.
func (h Handle[T]) Clone() Handle[T] {
	h.box.boxHeader.strong = saturatingIncrement(h.box.boxHeader.strong)
	h.d.noteCreated()

	return Handle[T]{box: h.box, d: h.d}
}

// Drop releases this Handle. It is a no-op if a collection is in
// progress — the collector owns count manipulation during its own run —
// and idempotent against a zombied header (strong already 0): a caller
// that drops the same Handle value twice, or drops a Handle the
// collector has already destroyed through a sibling edge, must not
// double-free.
func (h Handle[T]) Drop() {
	if collecting {
		return
	}

	header := &h.box.boxHeader

	if header.strong == 0 {
		return
	}

	if header.strong == 1 {
		h.d.markClean(header)
		header.strong = 0
		header.destroy()
	} else {
		header.strong--
		h.d.markSuspect(header)
	}

	h.d.noteDropped()
}

// Value borrows the payload. It panics via errors.DerefDuringCollection
// if called while a collection is in progress — a program error, since
// the only way to observe that state is to dereference a Handle
// captured by a destructor the collector itself triggered.
func (h Handle[T]) Value() *T {
	checkNotCollecting()

	return &h.box.value
}

// StrongCount reports the allocation's current strong count. Diagnostic
// only: it is stale mid-collection, since the shadow count, not this
// field, is what the collector reasons about during a run.
func (h Handle[T]) StrongCount() uint64 {
	return h.box.boxHeader.strong
}
