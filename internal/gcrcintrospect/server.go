// Package gcrcintrospect serves a Dumpster's Stats as read-only JSON over
// HTTP/3, in the same HTTP3Server-wrapper shape as
// internal/runtime/netstack/http3.go. It is deliberately outside
// internal/gcrc: the core package carries no wire protocol of its own.
package gcrcintrospect

import (
	"crypto/tls"
	"encoding/json"
	"net"
	"net/http"
	"time"
	"unsafe"

	quic "github.com/quic-go/quic-go"
	http3 "github.com/quic-go/quic-go/http3"

	"github.com/orizon-lang/cyclegc/internal/allocator"
)

// StatsSource is the read-only view a Server polls on every request. A
// gcrc.Stats value satisfies it, but only as a fixed snapshot;
// *gcrc.Dumpster does not satisfy it directly, so cmd/cyclegc-introspect
// adapts gcrc.CurrentStats to read fresh counters on every call.
type StatsSource interface {
	NGCsDroppedSinceLastCollect() uint64
	NGCsExisting() uint64
}

// statsView is the wire shape returned by GET /stats.
type statsView struct {
	DroppedSinceLastCollect uint64 `json:"dropped_since_last_collect"`
	Existing                uint64 `json:"existing"`
}

// Server serves a single StatsSource over HTTP/3.
type Server struct {
	pc    net.PacketConn
	srv   *http3.Server
	close func() error
	errC  chan error
	addr  string
	src   StatsSource
	scr   *scratchPool
}

// Options configures the underlying QUIC transport, in the same shape
// as HTTP3Options.
type Options struct {
	MaxIdleTimeout  time.Duration
	KeepAlivePeriod time.Duration
}

// NewServer builds a Server bound to addr that reports src's Stats.
// tlsCfg may be nil, in which case TLS 1.3 is enforced with the "h3"
// ALPN exactly as HTTP3Server does.
func NewServer(addr string, src StatsSource, tlsCfg *tls.Config, opts Options) *Server {
	tlsCfg = requireTLS13(tlsCfg)

	s := &Server{addr: addr, src: src, errC: make(chan error, 1), scr: newScratchPool()}

	mux := http.NewServeMux()
	mux.HandleFunc("/stats", s.handleStats)

	qc := &quic.Config{}
	if opts.MaxIdleTimeout > 0 {
		qc.MaxIdleTimeout = opts.MaxIdleTimeout
	}

	if opts.KeepAlivePeriod > 0 {
		qc.KeepAlivePeriod = opts.KeepAlivePeriod
	}

	s.srv = &http3.Server{Addr: addr, TLSConfig: tlsCfg, Handler: mux, QUICConfig: qc}

	return s
}

func requireTLS13(tlsCfg *tls.Config) *tls.Config {
	if tlsCfg == nil {
		return &tls.Config{MinVersion: tls.VersionTLS13, NextProtos: []string{"h3"}}
	}

	if tlsCfg.MinVersion >= tls.VersionTLS13 {
		return tlsCfg
	}

	c := tlsCfg.Clone()
	c.MinVersion = tls.VersionTLS13

	if len(c.NextProtos) == 0 {
		c.NextProtos = []string{"h3"}
	}

	return c
}

// handleStats marshals the current Stats with encoding/json, which
// allocates a fresh []byte per request, copies the result into a pooled
// scratch buffer and writes that buffer to the response.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	view := statsView{
		DroppedSinceLastCollect: s.src.NGCsDroppedSinceLastCollect(),
		Existing:                s.src.NGCsExisting(),
	}

	buf := s.scr.get()
	defer s.scr.put(buf)

	data, err := json.Marshal(view)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)

		return
	}

	buf = append(buf[:0], data...)

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(buf)
}

// Start begins serving HTTP/3 on an ephemeral UDP port if addr ends with
// ":0"; use the returned address to discover the bound port.
func (s *Server) Start() (string, error) {
	var err error

	s.pc, err = net.ListenPacket("udp", s.addr)
	if err != nil {
		return "", err
	}

	realAddr := s.pc.LocalAddr().String()
	done := make(chan struct{})

	go func() {
		if err := s.srv.Serve(s.pc); err != nil {
			select {
			case s.errC <- err:
			default:
			}
		}

		close(done)
	}()

	s.close = func() error {
		_ = s.pc.Close()
		select {
		case <-done:
		case <-time.After(time.Second):
		}

		return nil
	}

	return realAddr, nil
}

// Stop stops the server.
func (s *Server) Stop() error {
	if s.close != nil {
		return s.close()
	}

	return nil
}

// Error returns a non-blocking channel that receives the first serve
// error, if any.
func (s *Server) Error() <-chan error {
	return s.errC
}

// scratchBufSize is big enough for a statsView's JSON encoding with
// ample headroom; a response that somehow exceeds it still encodes
// correctly, just without reusing scratch space for that one request.
const scratchBufSize = 256

// scratchPool is a free list of byte scratch buffers backed by
// internal/allocator's size-classed pool allocator (pool.go's
// PoolAllocatorImpl) — exactly the repeated-same-size-allocation shape
// that allocator exists to serve, unlike internal/gcrc's own shadowNode
// pool, which reuses fixed Go struct values rather than raw bytes.
type scratchPool struct {
	alloc allocator.Allocator
	free  [][]byte
}

func newScratchPool() *scratchPool {
	cfg := &allocator.Config{
		PoolSizes:     []uintptr{scratchBufSize},
		AlignmentSize: 8,
	}

	pool, err := allocator.NewPoolAllocator([]uintptr{scratchBufSize}, cfg)
	if err != nil {
		// PoolSizes is always non-empty above; NewPoolAllocator only
		// rejects an empty list.
		panic(err)
	}

	return &scratchPool{alloc: pool}
}

func (p *scratchPool) get() []byte {
	if n := len(p.free); n > 0 {
		buf := p.free[n-1]
		p.free = p.free[:n-1]

		return buf
	}

	ptr := p.alloc.Alloc(scratchBufSize)
	if ptr == nil {
		return make([]byte, 0, scratchBufSize)
	}

	return unsafe.Slice((*byte)(ptr), scratchBufSize)[:0]
}

func (p *scratchPool) put(buf []byte) {
	p.free = append(p.free, buf[:0])
}
