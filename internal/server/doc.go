// Package server implements the loopback listener that completes a browser login.
//
// # Sessions
//
// A [Manager] owns at most one session. [Manager.Start] binds 127.0.0.1 on an ephemeral port and returns it so the
// caller can point the identity provider's return URL at it. The session goroutine then waits on three things: its
// context being cancelled, [SessionTimeout] elapsing, or a connection arriving. Connections are handled one at a time;
// the listener does not accept the next connection until the current one has been answered.
//
// The first GET / ends the session. The session cancels itself, then hands the query mapping to the configured
// [Sink]. Any other request is answered (400 for the wrong method or path, 500 for a malformed request) and the session
// keeps waiting. [Manager.Cancel] after a successful capture only reclaims the finished session.
//
// # Wire format
//
// [ParseRequest] is deliberately small: it drains the connection in [ChunkSize] reads until a short read, splits the
// request line, headers and body, and maps the query string without percent-decoding. [NewResponse] and
// [Response.Bytes] write a status line, Content-Type and Content-Length, any extra headers, and the body. There is no
// keep-alive and no chunked encoding.
//
// # Errors
//
// Only [ErrBind] (from Start) and [ErrJoin] (from Cancel, or from Start when the previous session cannot be torn
// down) reach callers. Parse failures wrap [ErrParse]; connection and accept failures are [*ConnError] values that are
// logged and otherwise ignored.
package server
