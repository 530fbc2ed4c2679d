// Package main demonstrates cyclegc's cycle-collecting smart pointer
// against a handful of reference shapes: a linear chain, a self-loop, a
// two-node cycle, and a cycle with an external root that is collected
// once that root has been dropped. Grounded on cmd/effect-demo's single-file, numbered-demo
// structure.
package main

import (
	"flag"
	"fmt"

	"github.com/orizon-lang/cyclegc/internal/cli"
	"github.com/orizon-lang/cyclegc/internal/gcrc"
)

// node is a simple linked-list/graph cell: an optional payload plus
// zero or more outgoing edges to other nodes, each held through a
// gcrc.Handle so the collector can walk them.
type node struct {
	name     string
	children *gcrc.Cell[[]gcrc.Handle[*node]]
	destroyed *bool
}

func newNode(name string, destroyed *bool) *node {
	return &node{name: name, children: gcrc.NewCell[[]gcrc.Handle[*node]](nil), destroyed: destroyed}
}

func (n *node) addChild(h gcrc.Handle[*node]) {
	unlock, ok := n.children.TryBorrowMut()
	if !ok {
		cli.ExitWithError("node %s: children already borrowed", n.name)
	}
	defer unlock()

	n.children.Set(append(n.children.Get(), h))
}

// Accept implements gcrc.Collectable: visit every child handle, refusing
// if this node's children are concurrently borrowed mutably.
func (n *node) Accept(v gcrc.Visitor) error {
	unlock, ok := n.children.TryBorrowMut()
	if !ok {
		return fmt.Errorf("node %s: accept refused, children borrowed", n.name)
	}
	defer unlock()

	for _, h := range n.children.Get() {
		if err := v.Visit(h); err != nil {
			return err
		}
	}

	return nil
}

// Destroy implements gcrc.Destroyer so the demo can report which nodes
// the collector actually freed.
func (n *node) Destroy() {
	*n.destroyed = true
	fmt.Printf("  destroyed %s\n", n.name)
}

func main() {
	verbose := flag.Bool("verbose", false, "print stats after every section")
	flag.Parse()

	log := cli.NewLogger(*verbose, false)

	fmt.Println("cyclegc demo")
	fmt.Println("============")

	fmt.Println("\n1. linear chain (no cycle): a -> b -> c")
	runLinearChain(log)

	fmt.Println("\n2. self-loop: a -> a")
	runSelfLoop(log)

	fmt.Println("\n3. two-node cycle: a <-> b, no external root")
	runTwoCycle(log)

	fmt.Println("\n4. cycle with an external root: a <-> b, root keeps a alive")
	runRootedCycle(log)

	fmt.Printf("\nfinal stats: %+v\n", gcrc.CurrentStats())
	gcrc.Shutdown()
}

func runLinearChain(log *cli.Logger) {
	var cDestroyed, bDestroyed, aDestroyed bool

	c := gcrc.New[*node](newNode("c", &cDestroyed))
	b := gcrc.New[*node](newNode("b", &bDestroyed))
	a := gcrc.New[*node](newNode("a", &aDestroyed))

	(*a.Value()).addChild(b.Clone())
	(*b.Value()).addChild(c.Clone())

	a.Drop()
	b.Drop()
	c.Drop()

	gcrc.CollectNow()
	log.Info("a=%v b=%v c=%v destroyed", aDestroyed, bDestroyed, cDestroyed)
}

func runSelfLoop(log *cli.Logger) {
	var destroyed bool

	a := gcrc.New[*node](newNode("a", &destroyed))
	(*a.Value()).addChild(a.Clone())
	a.Drop()

	gcrc.CollectNow()
	log.Info("a destroyed=%v (expected true: the self-edge alone does not keep it reachable)", destroyed)
}

func runTwoCycle(log *cli.Logger) {
	var aDestroyed, bDestroyed bool

	a := gcrc.New[*node](newNode("a", &aDestroyed))
	b := gcrc.New[*node](newNode("b", &bDestroyed))

	(*a.Value()).addChild(b.Clone())
	(*b.Value()).addChild(a.Clone())

	a.Drop()
	b.Drop()

	gcrc.CollectNow()
	log.Info("a=%v b=%v destroyed (expected both true)", aDestroyed, bDestroyed)
}

// runRootedCycle builds the same mutual cycle as runTwoCycle, but with an
// extra external handle (root) also pointing at a. Collection is
// deliberately deferred until after root itself drops: running an
// intermediate CollectNow while root is still alive would classify both
// nodes "reachable" and remove them from the suspect set, after which
// only a (not b) would be re-suspected when root drops, understating the
// cycle to a single collector run. Waiting keeps both nodes suspect
// until one collection sees the whole picture at once.
func runRootedCycle(log *cli.Logger) {
	var aDestroyed, bDestroyed bool

	a := gcrc.New[*node](newNode("a", &aDestroyed))
	b := gcrc.New[*node](newNode("b", &bDestroyed))

	root := a.Clone()

	(*a.Value()).addChild(b.Clone())
	(*b.Value()).addChild(a.Clone())

	a.Drop()
	b.Drop()
	log.Info("root still holds a reachable (strong count via root: %d); no collection run yet", root.StrongCount())

	root.Drop()
	gcrc.CollectNow()
	log.Info("after dropping root and collecting: a=%v b=%v destroyed (expected both true)", aDestroyed, bDestroyed)
}
