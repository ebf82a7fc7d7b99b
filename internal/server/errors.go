package server

import (
	"errors"
	"fmt"
)

var (
	ErrBind  = errors.New("failed to bind loopback listener")
	ErrParse = errors.New("malformed request")
	ErrJoin  = errors.New("session did not terminate cleanly")
)

// ConnError is a failure on a single connection or on the listening socket.
//
// Op is one of "accept", "read" or "write". None of these end a session.
type ConnError struct {
	Op   string
	Addr string
	Err  error
}

func (e *ConnError) Error() string {
	if e.Addr == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *ConnError) Unwrap() error { return e.Err }
