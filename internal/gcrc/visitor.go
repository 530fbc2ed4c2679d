package gcrc

// Collectable is the contract a payload type must satisfy to be held
// inside a Handle. Accept must invoke visitor.Visit once per Handle
// directly owned by the payload (fields, elements of owned containers,
// enum-like variants); recursing into nested user types is the
// payload's own responsibility. Accept may refuse — return a non-nil
// error — when doing so would alias state the caller currently holds
// mutably (see Cell); the collector treats a refusal as "reachable this
// round," never as fatal.
type Collectable interface {
	Accept(v Visitor) error
}

// Destroyer is an optional extension of Collectable. If a payload
// implements it, Destroy runs exactly once, immediately before the
// payload's storage is released — the Go analogue of a user-defined
// destructor, since Go has no Drop trait of its own.
type Destroyer interface {
	Destroy()
}

// AnyHandle is the type-erased view of a Handle[T] that a Visitor
// receives. It is satisfied only by this package's Handle[T]: the single
// method is unexported, so external code can implement Collectable and
// pass Handle[T] values to a Visitor, but cannot fabricate a conforming
// AnyHandle of its own.
type AnyHandle interface {
	header() *boxHeader
}

// Visitor is the callback a Collectable.Accept invokes once per
// contained Handle. The collector supplies two implementations,
// decrementVisitor and markVisitor, and box[T]'s destroy thunk a third,
// cascadeDropVisitor; user code never constructs a Visitor itself, only
// receives one as an Accept parameter.
type Visitor interface {
	Visit(h AnyHandle) error
}

// decrementVisitor implements the trial-deletion algorithm's decrement
// phase: for every handle visited whose target is also a suspect in
// this run, its tentative count is reduced by one.
type decrementVisitor struct {
	shadow map[*boxHeader]*shadowNode
}

func (d *decrementVisitor) Visit(h AnyHandle) error {
	if sn, ok := d.shadow[h.header()]; ok {
		sn.tentative--
	}

	return nil
}

// markVisitor implements trial-deletion's forward reachability sweep:
// resurrecting reachability from a node propagates to everything that
// node can reach within the suspect set.
type markVisitor struct {
	shadow map[*boxHeader]*shadowNode
}

func (m *markVisitor) Visit(h AnyHandle) error {
	sn, ok := m.shadow[h.header()]
	if !ok || sn.reachable {
		return nil
	}

	markReachable(sn, m.shadow)

	return nil
}

// dropper is satisfied by Handle[T] for any T: Drop's signature carries
// no type parameter, so a plain type assertion on the type-erased
// AnyHandle a Visit receives is enough to reach it generically.
type dropper interface {
	Drop()
}

// cascadeDropVisitor is the Go stand-in for a compiler-derived Drop that
// recurses into owned fields: when a payload owning Handle fields is
// itself destroyed, those Handles must be dropped too, or their targets
// never see their strong count decremented and leak forever. Used
// unconditionally by box[T]'s destroy thunk; when invoked from within
// the collector's own destroy pass, the guard already makes every
// nested Drop a no-op, so running it there is harmless.
type cascadeDropVisitor struct{}

func (cascadeDropVisitor) Visit(h AnyHandle) error {
	if d, ok := h.(dropper); ok {
		d.Drop()
	}

	return nil
}
