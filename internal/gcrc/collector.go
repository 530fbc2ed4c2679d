package gcrc

// shadowNode is the collector's per-suspect scratch state for one
// collection run. Values are drawn from a reusable pool (shadowPool)
// rather than allocated fresh on every collection, so that frequent
// collections over the same working set don't churn garbage
// proportional to the suspect-set size on every run.
type shadowNode struct {
	header     *boxHeader
	trueStrong uint64
	tentative  int64
	reachable  bool
}

func (s *shadowNode) reset(header *boxHeader) {
	s.header = header
	s.trueStrong = header.strong
	s.tentative = int64(header.strong)
	s.reachable = false
}

// markReachable marks sn reachable and propagates that reachability
// transitively to everything sn can reach within shadow. A visitor
// refusal while sweeping is treated the same as during the decrement
// phase: conservatively, the node stays marked reachable and the sweep
// simply doesn't propagate further along that edge.
func markReachable(sn *shadowNode, shadow map[*boxHeader]*shadowNode) {
	sn.reachable = true

	mv := &markVisitor{shadow: shadow}
	_ = sn.header.accept(mv)
}

// collectAll runs a trial-deletion collection against d's current
// suspect set. It is invoked either explicitly via
// CollectNow/(*Dumpster).CollectNow/Shutdown or automatically by
// noteDropped when the active CollectCondition returns true; each of
// those callers zeroes n_ref_drops once it returns.
//
// The algorithm: snapshot the suspect set so destructors running below
// can't feed this run; build a shadow graph shadowing each suspect's
// strong count; decrement every shadow count along edges between
// suspects; sweep forward reachability from anything left with a
// positive tentative count; destroy whatever reachability never
// reached.
func (d *Dumpster) collectAll() {
	withGuard(func() {
		working := d.suspects
		d.suspects = make(map[*boxHeader]struct{})

		if len(working) == 0 {
			return
		}

		shadow := make(map[*boxHeader]*shadowNode, len(working))

		for header := range working {
			sn := d.shadowPool.get()
			sn.reset(header)
			shadow[header] = sn
		}

		dv := &decrementVisitor{shadow: shadow}

		for header := range working {
			if err := header.accept(dv); err != nil {
				// A refusing Accept means this allocation's subgraph is
				// treated as reachable rather than risking an alias.
				markReachable(shadow[header], shadow)
			}
		}

		for _, sn := range shadow {
			if sn.tentative > 0 {
				markReachable(sn, shadow)
			}
		}

		// Reachable suspects are left exactly as they were — their real
		// strong count was never touched, only the shadow's tentative
		// count — so they simply fall out of the suspect set until
		// their next non-last drop re-enqueues them.

		// Zombie every unreachable header before running any destructor,
		// so a destructor that (incorrectly) dereferences a sibling
		// unreachable allocation observes a zombie rather than a
		// half-destroyed value.
		var unreachable []*boxHeader

		for header, sn := range shadow {
			if !sn.reachable {
				header.strong = 0

				unreachable = append(unreachable, header)
			}
		}

		for _, header := range unreachable {
			header.destroy()
		}

		for _, sn := range shadow {
			d.shadowPool.put(sn)
		}
	})
}
