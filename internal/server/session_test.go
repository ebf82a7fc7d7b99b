package server

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

// flakyListener fails the first failures Accept calls, then hands out conns until closed.
type flakyListener struct {
	failures int32
	calls    atomic.Int32
	conns    chan net.Conn
	closed   chan struct{}
	once     sync.Once
}

func newFlakyListener(failures int32) *flakyListener {
	return &flakyListener{failures: failures, conns: make(chan net.Conn, 1), closed: make(chan struct{})}
}

func (l *flakyListener) Accept() (net.Conn, error) {
	if l.calls.Add(1) <= l.failures {
		return nil, errors.New("too many open files")
	}
	select {
	case conn := <-l.conns:
		return conn, nil
	case <-l.closed:
		return nil, net.ErrClosed
	}
}

func (l *flakyListener) Close() error {
	l.once.Do(func() { close(l.closed) })
	return nil
}

func (l *flakyListener) Addr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 1}
}

func runSession(t *testing.T, ln net.Listener, timeout time.Duration, sink Sink) *session {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	s := &session{id: "test", cancel: cancel, done: make(chan struct{}), started: time.Now()}
	go s.run(ctx, newLoop(ln, sink, timeout, log.New(io.Discard)))
	t.Cleanup(func() {
		cancel()
		<-s.done
	})
	return s
}

func TestSession(t *testing.T) {
	t.Run("keeps accepting after accept errors", func(t *testing.T) {
		const failures = 3
		ln := newFlakyListener(failures)

		client, server := net.Pipe()
		ln.conns <- server
		go func() {
			defer client.Close()
			client.Write([]byte("GET /?code=x HTTP/1.1\r\nHost: x\r\n\r\n"))
			io.ReadAll(client)
		}()

		captured := make(chan map[string]string, 1)
		start := time.Now()
		s := runSession(t, ln, time.Minute, SinkFunc(func(q map[string]string) { captured <- q }))

		select {
		case <-s.done:
		case <-time.After(5 * time.Second):
			t.Fatal("session did not finish")
		}
		elapsed := time.Since(start)

		select {
		case q := <-captured:
			if q["code"] != "x" {
				t.Errorf("unexpected capture: %v", q)
			}
		default:
			t.Fatal("expected a capture after the accept errors")
		}

		if got := ln.calls.Load(); got != failures+1 {
			t.Errorf("expected %d accept calls, got %d", failures+1, got)
		}
		if want := (failures-1)*acceptRetryInterval - 10*time.Millisecond; elapsed < want {
			t.Errorf("expected retries to be paced over at least %v, took %v", want, elapsed)
		}
		if s.err != nil {
			t.Errorf("unexpected session error: %v", s.err)
		}
	})

	t.Run("timeout ends the session without a capture", func(t *testing.T) {
		ln := newFlakyListener(0)
		captured := make(chan map[string]string, 1)
		s := runSession(t, ln, 50*time.Millisecond, SinkFunc(func(q map[string]string) { captured <- q }))

		select {
		case <-s.done:
		case <-time.After(5 * time.Second):
			t.Fatal("session did not time out")
		}
		if len(captured) != 0 {
			t.Errorf("expected no capture, got %v", <-captured)
		}
	})
}
