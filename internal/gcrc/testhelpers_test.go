package gcrc

import gcerrors "github.com/orizon-lang/cyclegc/internal/errors"

// multiRef is this package's own stand-in for the original test suite's
// MultiRef: a payload that holds zero or more outgoing Handles to others
// of its own kind behind a Cell, and bumps a caller-supplied counter
// exactly once when destroyed. Every scenario below is built out of it.
type multiRef struct {
	counter *int
	refs    *Cell[[]Handle[*multiRef]]
}

func newMultiRef(counter *int) *multiRef {
	return &multiRef{counter: counter, refs: NewCell[[]Handle[*multiRef]](nil)}
}

func (m *multiRef) push(h Handle[*multiRef]) {
	unlock := m.refs.MustBorrowMut()
	defer unlock()

	m.refs.Set(append(m.refs.Get(), h))
}

func (m *multiRef) Accept(v Visitor) error {
	unlock, ok := m.refs.TryBorrowMut()
	if !ok {
		return gcerrors.VisitorRefused("multiRef")
	}
	defer unlock()

	for _, h := range m.refs.Get() {
		if err := v.Visit(h); err != nil {
			return err
		}
	}

	return nil
}

func (m *multiRef) Destroy() {
	*m.counter++
}

// buildCompleteGraph wires one Handle[*multiRef] per counter into a
// complete graph: every node holds a reference to every node built
// before it, and reciprocally, every earlier node gets a reference back
// to the new one. Grounded on tests.rs's complete_graph helper.
func buildCompleteGraph(d *Dumpster, counters []*int) []Handle[*multiRef] {
	gcs := make([]Handle[*multiRef], 0, len(counters))

	for _, c := range counters {
		h := NewOn(d, newMultiRef(c))

		for _, x := range gcs {
			(*h.Value()).push(x.Clone())
			(*x.Value()).push(h.Clone())
		}

		gcs = append(gcs, h)
	}

	return gcs
}
