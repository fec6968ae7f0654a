// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package serialengine owns a single HIL device's byte-oriented serial
// link: a reader task that incrementally parses the inbound stream, a
// synchronous response rendezvous for foreground callers, and a per-bus
// CAN frame queue for asynchronous traffic.
package serialengine // import "github.com/go-lpc/hil/serialengine"

import (
	"io"
	"log"
	"sync"
	"time"

	"github.com/go-lpc/hil/errs"
	"github.com/go-lpc/hil/wire"
)

// Link is the byte-oriented transport an Engine drives. go.bug.st/serial's
// *serial.Port satisfies it directly.
type Link interface {
	io.Reader
	io.Writer
	io.Closer
}

const (
	pollInterval   = 10 * time.Millisecond
	defaultTimeout = 500 * time.Millisecond
)

// Engine owns one device's serial link. Exactly one reader goroutine runs
// per Engine; any number of foreground callers may Write concurrently.
type Engine struct {
	link Link
	msg  *log.Logger

	mu      sync.Mutex
	pending map[wire.Opcode][]byte
	canQ    map[uint8][][]byte

	parser *wire.Parser

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}

	lastRead time.Time
}

// New creates an Engine around link and starts its reader goroutine.
// preload is any bytes already consumed past the device's sync preamble
// during discovery, and is replayed into the parser first.
func New(link Link, preload []byte, msg *log.Logger) *Engine {
	if msg == nil {
		msg = log.New(io.Discard, "", 0)
	}
	e := &Engine{
		link:    link,
		msg:     msg,
		pending: make(map[wire.Opcode][]byte),
		canQ:    make(map[uint8][][]byte),
		parser:  wire.NewParser(preload),
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
	if len(preload) > 0 {
		e.drainParse(nil)
	}
	go e.readLoop()
	return e
}

// Write sends bytes to the device. Writes are serialized by the link
// itself; any number of foreground goroutines may call Write concurrently.
func (e *Engine) Write(p []byte) error {
	_, err := e.link.Write(p)
	if err != nil {
		return errs.Serialf("serialengine: write failed: %w", err)
	}
	return nil
}

// readLoop reads single bytes from the link, feeding them to the parser
// under the engine mutex, until Stop is called or the link errors out.
func (e *Engine) readLoop() {
	defer close(e.done)
	buf := make([]byte, 1)
	for {
		select {
		case <-e.stopCh:
			return
		default:
		}

		n, err := e.link.Read(buf)
		if n > 0 {
			e.mu.Lock()
			e.lastRead = time.Now()
			e.mu.Unlock()
			e.drainParse(buf[:n])
		}
		if err != nil {
			select {
			case <-e.stopCh:
				return
			default:
			}
			if err != io.EOF {
				e.msg.Printf("read error, stopping reader: %v", err)
			}
			return
		}
	}
}

// drainParse feeds data (which may be nil, to flush a preload) through the
// parser, storing completed responses/CAN frames under the engine mutex.
func (e *Engine) drainParse(data []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()

	err := e.parser.Feed(data, func(r wire.Response) {
		if r.Opcode == wire.RecvCAN {
			e.canQ[r.Bus] = append(e.canQ[r.Bus], r.Body)
			return
		}
		e.pending[r.Opcode] = r.Body
	})
	if err != nil {
		e.msg.Printf("parser error: %v", err)
	}
}

// AwaitResponse polls the pending-response map at a fixed interval until a
// response for opcode arrives or timeout elapses. A zero timeout uses the
// default of 500ms. Only the most recent response for a given opcode is
// retrievable — callers sharing an opcode across concurrent commands must
// serialize themselves (see dispatch).
func (e *Engine) AwaitResponse(op wire.Opcode, timeout time.Duration) ([]byte, error) {
	if timeout == 0 {
		timeout = defaultTimeout
	}
	deadline := time.Now().Add(timeout)
	for {
		e.mu.Lock()
		body, ok := e.pending[op]
		if ok {
			delete(e.pending, op)
		}
		e.mu.Unlock()
		if ok {
			return body, nil
		}
		if time.Now().After(deadline) {
			return nil, errs.Serialf("serialengine: no response for %s after %s", op, timeout)
		}
		time.Sleep(pollInterval)
	}
}

// DrainCAN returns and clears all CAN frame bodies queued for bus, in
// arrival order.
func (e *Engine) DrainCAN(bus uint8) [][]byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	frames := e.canQ[bus]
	delete(e.canQ, bus)
	return frames
}

// Healthy reports whether the link appears alive, i.e. whether the reader
// goroutine is still running: it turns false once the link has returned
// EOF or a read error, or Stop was called. It does not look at when
// traffic was last seen, and it performs no wire round-trip.
func (e *Engine) Healthy() bool {
	select {
	case <-e.done:
		return false
	default:
		return true
	}
}

// Stop idempotently signals the reader to exit and closes the link. It may
// be called from any goroutine and returns once the reader has exited.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		close(e.stopCh)
		_ = e.link.Close()
	})
	<-e.done
}
