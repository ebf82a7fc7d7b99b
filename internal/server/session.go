package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/steamlink/internal/shared"
)

const (
	// SessionTimeout is how long a session waits for the login redirect before giving up.
	SessionTimeout = 10 * time.Minute
	// ConnTimeout bounds reading and answering a single connection.
	ConnTimeout = 30 * time.Second
	// acceptRetryInterval paces Accept after a failure. There is no limit on the number of retries.
	acceptRetryInterval = 250 * time.Millisecond
)

// session is one listening context owned by a [Manager].
type session struct {
	id      string
	port    uint16
	started time.Time
	cancel  context.CancelFunc
	done    chan struct{}
	err     error // written before done is closed
}

// accepted is the outcome of one Accept call.
type accepted struct {
	conn net.Conn
	err  error
}

// loop holds what run needs besides the session itself.
type loop struct {
	ln      net.Listener
	handler *Handler
	sink    Sink
	timeout time.Duration
	logger  *log.Logger
	limiter *rate.Limiter
}

func newLoop(ln net.Listener, sink Sink, timeout time.Duration, logger *log.Logger) *loop {
	return &loop{
		ln:      ln,
		handler: NewHandler(logger),
		sink:    sink,
		timeout: timeout,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Every(acceptRetryInterval), 1),
	}
}

// run waits for cancellation, the timeout, or a connection, whichever comes first.
//
// It returns after self-cancelling on timeout or on a captured result, or when ctx is cancelled. The listener is
// closed and the accept goroutine has exited by the time done is closed.
func (s *session) run(ctx context.Context, l *loop) {
	conns := make(chan accepted)
	next := make(chan struct{}, 1)
	acceptDone := make(chan struct{})

	defer close(s.done)
	defer func() {
		if r := recover(); r != nil {
			s.err = fmt.Errorf("%w: panic: %v", ErrJoin, r)
			l.logger.Error("session goroutine panicked", "panic", r)
		}
	}()
	defer func() { <-acceptDone }()
	defer l.ln.Close()
	defer s.cancel()

	timer := time.NewTimer(l.timeout)
	defer timer.Stop()

	next <- struct{}{}
	go l.accept(ctx, conns, next, acceptDone)

	l.logger.Info("waiting for login callback", "timeout", l.timeout)

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("session cancelled")
			return
		case <-timer.C:
			l.logger.Warn("session timed out without a callback", "after", l.timeout)
			s.cancel()
			return
		case a := <-conns:
			if a.err != nil {
				l.logger.Error("failed to accept connection", "error", &ConnError{Op: "accept", Addr: l.ln.Addr().String(), Err: a.err})
				next <- struct{}{}
				continue
			}

			query, ok := l.serve(ctx, a.conn)
			if !ok {
				next <- struct{}{}
				continue
			}

			s.cancel()
			l.logger.Info("login callback captured", "params", len(query))
			l.sink.Notify(query)
			return
		}
	}
}

// accept calls Accept once per token received on next and hands the result to the loop.
//
// After a failed Accept the next attempt waits on the limiter.
func (l *loop) accept(ctx context.Context, conns chan<- accepted, next <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	var failed bool
	for {
		select {
		case <-ctx.Done():
			return
		case <-next:
		}

		if failed {
			if err := l.limiter.Wait(ctx); err != nil {
				return
			}
		}

		conn, err := l.ln.Accept()
		if errors.Is(err, net.ErrClosed) {
			return
		}
		failed = err != nil

		select {
		case conns <- accepted{conn: conn, err: err}:
		case <-ctx.Done():
			if conn != nil {
				conn.Close()
			}
			return
		}
	}
}

// serve runs the handler on conn and closes it. Cancelling ctx expires the connection deadline, which unblocks a
// pending read or write.
func (l *loop) serve(ctx context.Context, conn net.Conn) (map[string]string, bool) {
	defer conn.Close()

	remote := conn.RemoteAddr().String()
	logger := shared.WithLogger(l.logger, "remote", remote)

	if err := conn.SetDeadline(time.Now().Add(ConnTimeout)); err != nil {
		logger.Warn("failed to set connection deadline", "error", err)
	}
	stop := context.AfterFunc(ctx, func() { conn.SetDeadline(time.Now()) })
	defer stop()

	query, ok, err := l.handler.Handle(conn)
	if err != nil {
		var connErr *ConnError
		if errors.As(err, &connErr) && connErr.Addr == "" {
			connErr.Addr = remote
		}
		logger.Warn("connection error", "error", err)
	}
	return query, ok
}
