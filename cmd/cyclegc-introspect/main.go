// Package main runs a read-only HTTP/3 server exposing the default
// Dumpster's Stats, optionally hot-reloading its collect policy from a
// JSON file. Grounded on cmd/gdb-rsp-server's flag-parsing and
// server-lifecycle structuring.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/orizon-lang/cyclegc/internal/cli"
	"github.com/orizon-lang/cyclegc/internal/gcrc"
	"github.com/orizon-lang/cyclegc/internal/gcrcconfig"
	"github.com/orizon-lang/cyclegc/internal/gcrcintrospect"
)

func main() {
	var (
		addr       string
		policyPath string
		verbose    bool
	)

	flag.StringVar(&addr, "addr", ":4433", "UDP listen address for the HTTP/3 stats endpoint")
	flag.StringVar(&policyPath, "policy", "", "optional path to a JSON collect-policy file, hot-reloaded on change")
	flag.BoolVar(&verbose, "verbose", false, "log policy reloads and server lifecycle")
	flag.Parse()

	log := cli.NewLogger(verbose, false)

	if policyPath != "" {
		policy, err := gcrcconfig.Load(policyPath)
		if err != nil {
			cli.ExitWithError("load policy: %v", err)
		}

		gcrc.SetCollectPolicy(policy.ToCondition())
		log.Info("loaded initial policy from %s", policyPath)

		watcher, err := gcrcconfig.NewWatcher()
		if err != nil {
			cli.ExitWithError("start policy watcher: %v", err)
		}
		defer watcher.Close()

		if err := watcher.Watch(policyPath, func(p *gcrcconfig.Policy) {
			gcrc.SetCollectPolicy(p.ToCondition())
			log.Info("reloaded policy from %s", policyPath)
		}); err != nil {
			cli.ExitWithError("watch policy: %v", err)
		}
	}

	srv := gcrcintrospect.NewServer(addr, statsSource{}, nil, gcrcintrospect.Options{})

	boundAddr, err := srv.Start()
	if err != nil {
		cli.ExitWithError("start server: %v", err)
	}

	fmt.Printf("serving GET /stats over HTTP/3 on %s\n", boundAddr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Info("shutting down")
	case err := <-srv.Error():
		cli.ExitWithError("server error: %v", err)
	}

	_ = srv.Stop()
	gcrc.Shutdown()
}

// statsSource adapts the package-level default Dumpster's Stats to
// gcrcintrospect.StatsSource.
type statsSource struct{}

func (statsSource) NGCsDroppedSinceLastCollect() uint64 {
	return gcrc.CurrentStats().NGCsDroppedSinceLastCollect()
}

func (statsSource) NGCsExisting() uint64 {
	return gcrc.CurrentStats().NGCsExisting()
}
