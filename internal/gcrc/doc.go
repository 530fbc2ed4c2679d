// Package gcrc implements a cycle-collecting reference-counted smart
// pointer, Handle[T], for single-goroutine use.
//
// Ordinary reference counting (Handle's strong count) reclaims an
// allocation the instant its last handle is dropped. That fast path
// leaks whenever two or more allocations reference each other in a
// cycle, since each allocation's count never reaches zero on its own.
// gcrc augments the fast path with a deferred trial-deletion algorithm:
// every allocation that survives a non-final drop is recorded as a
// "suspect" in a package-local Dumpster, and periodically (by default,
// whenever more handles have been dropped than currently exist) the
// Dumpster runs a collection that tells suspects reachable from outside
// the suspect set apart from suspects that only reach each other, and
// frees exactly the latter.
//
// This package is not safe for concurrent use from multiple goroutines.
// There is no internal locking anywhere in it, by design: the
// algorithm's invariants (see collector.go) depend on nothing mutating
// the suspect set or any strong count while a collection is running, and
// the only thing that can make that true without locks is confining all
// use to one goroutine at a time. Treat gcrc.Handle[T] the way you'd
// treat a raw pointer into a single-threaded arena.
package gcrc
