package gcrc

import gcerrors "github.com/orizon-lang/cyclegc/internal/errors"

// CollectInfo is the read-only view of a Dumpster's counters passed to a
// CollectCondition. Field access goes through methods, not exported
// fields, so a future counter can be added without breaking existing
// CollectCondition implementations.
type CollectInfo struct {
	nRefDrops   uint64
	nRefsLiving uint64
}

// NGCsDroppedSinceLastCollect returns the number of Handle drops observed
// since the last collection.
func (s CollectInfo) NGCsDroppedSinceLastCollect() uint64 { return s.nRefDrops }

// NGCsExisting returns the number of Handles currently alive on this
// Dumpster.
func (s CollectInfo) NGCsExisting() uint64 { return s.nRefsLiving }

// Stats is an alias kept for readability at call sites; it is identical
// to CollectInfo.
type Stats = CollectInfo

// CollectCondition decides whether a Dumpster should run a collection
// after a drop; the default is DefaultCollectCondition.
type CollectCondition func(Stats) bool

// DefaultCollectCondition collects once more handles have been dropped
// since the last collection than currently exist. This is a heuristic
// that amortizes collection cost across drops, not a guarantee callers
// should depend on.
func DefaultCollectCondition(s Stats) bool {
	return s.nRefDrops > s.nRefsLiving
}

// Dumpster is the thread-local suspect set backing the collector. The
// zero value is not usable; construct one with NewDumpster, or use the
// package-level default via New/Clone/Drop/CollectNow/SetCollectPolicy.
type Dumpster struct {
	// suspects maps an allocation's identity to nothing: membership
	// alone means "may be in a cycle, examine on next collection". The
	// operations needed to examine a suspect (accept/destroy) live on
	// the boxHeader itself, so no separate entry value is needed.
	suspects map[*boxHeader]struct{}

	nRefsLiving uint64
	nRefDrops   uint64

	policy CollectCondition

	shadowPool shadowPool
}

// NewDumpster constructs an isolated suspect set with the default
// collection policy. Most callers should use the package-level
// functions, which share one process-wide default Dumpster;
// NewDumpster exists for callers who want more than one independent
// arena, and for this package's own tests.
func NewDumpster() *Dumpster {
	return &Dumpster{
		suspects: make(map[*boxHeader]struct{}),
		policy:   DefaultCollectCondition,
	}
}

var defaultDumpster = NewDumpster()

// noteCreated bumps the live-handle counter.
func (d *Dumpster) noteCreated() {
	d.nRefsLiving++
}

// markSuspect inserts header into the suspect set.
func (d *Dumpster) markSuspect(header *boxHeader) {
	d.suspects[header] = struct{}{}
}

// markClean removes header from the suspect set: called when the last
// handle drops. The collector does not call it; a collection swaps out
// the whole suspect set at the start of its run instead.
func (d *Dumpster) markClean(header *boxHeader) {
	delete(d.suspects, header)
}

// noteDropped bumps the drop counter, bumps down the live-handle
// counter, and runs a collection if the active policy says to.
func (d *Dumpster) noteDropped() {
	d.nRefDrops++
	d.nRefsLiving--

	if d.shouldCollect() {
		d.collectAll()
		d.nRefDrops = 0
	}
}

// shouldCollect evaluates the active CollectCondition, recovering a
// panic so it can be wrapped: the guard is already unset here
// (collectAll hasn't started), so a panicking policy is simply
// re-panicked after wrapping, with nothing left to reset.
func (d *Dumpster) shouldCollect() (result bool) {
	defer func() {
		if r := recover(); r != nil {
			panic(gcerrors.PolicyPanicked(r))
		}
	}()

	return d.policy(CollectInfo{nRefDrops: d.nRefDrops, nRefsLiving: d.nRefsLiving})
}

// CollectNow forces a collection on this Dumpster.
func (d *Dumpster) CollectNow() {
	d.collectAll()
	d.nRefDrops = 0
}

// SetCollectPolicy installs f as this Dumpster's CollectCondition.
func (d *Dumpster) SetCollectPolicy(f CollectCondition) {
	d.policy = f
}

// Stats returns a snapshot of this Dumpster's counters.
func (d *Dumpster) Stats() Stats {
	return CollectInfo{nRefDrops: d.nRefDrops, nRefsLiving: d.nRefsLiving}
}

// Shutdown runs a final collection, the way a program winding down
// should reclaim cycles local to this Dumpster before exit. Go has no
// thread-exit hook to call this automatically; a program that wants
// deterministic cleanup should call gcrc.Shutdown before exit. Anything
// still referenced by a live Handle leaks.
func (d *Dumpster) Shutdown() {
	d.collectAll()
	d.nRefDrops = 0
}

// Package-level functions operate on the shared default Dumpster.

// CollectNow forces a collection on the default Dumpster.
func CollectNow() { defaultDumpster.CollectNow() }

// SetCollectPolicy installs f as the default Dumpster's CollectCondition.
func SetCollectPolicy(f CollectCondition) { defaultDumpster.SetCollectPolicy(f) }

// CurrentStats returns a snapshot of the default Dumpster's counters.
func CurrentStats() Stats { return defaultDumpster.Stats() }

// Shutdown runs a final collection on the default Dumpster.
func Shutdown() { defaultDumpster.Shutdown() }
