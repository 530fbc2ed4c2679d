package gcrc

import gcerrors "github.com/orizon-lang/cyclegc/internal/errors"

// collecting is the collection guard: true only while the collector is
// running, including while it runs user destructors. It is a bare
// package-level bool, not an atomic — this package supports exactly one
// active goroutine (see doc.go), so there is nothing for it to race
// with.
var collecting bool

// withGuard runs fn with the collection guard held, restoring it
// afterward even if fn panics: collecting must be reset before the
// panic propagates so the goroutine remains usable.
func withGuard(fn func()) {
	collecting = true
	defer func() { collecting = false }()

	fn()
}

// checkNotCollecting panics with errors.DerefDuringCollection if called
// while a collection is in progress.
func checkNotCollecting() {
	if collecting {
		panic(gcerrors.DerefDuringCollection())
	}
}
