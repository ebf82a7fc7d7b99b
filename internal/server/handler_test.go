package server

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	tu "github.com/desertthunder/steamlink/internal/testing"
)

func TestHandler(t *testing.T) {
	handler := NewHandler(log.New(io.Discard))

	t.Run("GET / is captured with 204", func(t *testing.T) {
		conn := tu.NewConn("GET /?code=abc&state=xyz HTTP/1.1\r\nHost: x\r\n\r\n")

		query, ok, err := handler.Handle(conn)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !ok {
			t.Fatal("expected a captured result")
		}
		if len(query) != 2 || query["code"] != "abc" || query["state"] != "xyz" {
			t.Errorf("unexpected query: %v", query)
		}

		out := conn.Out.String()
		if !strings.HasPrefix(out, "HTTP/1.1 204 No Content\r\n") {
			t.Errorf("expected 204 status line, got %q", out)
		}
		if !strings.Contains(out, "Content-Length: 0\r\n") {
			t.Errorf("expected Content-Length: 0, got %q", out)
		}
		if !strings.HasSuffix(out, "\r\n\r\n") {
			t.Errorf("expected empty body, got %q", out)
		}
	})

	t.Run("rejected requests get 400", func(t *testing.T) {
		tc := []struct {
			name string
			raw  string
		}{
			{name: "other path", raw: "GET /favicon.ico HTTP/1.1\r\n\r\n"},
			{name: "path with trailing segment", raw: "GET /callback?code=abc HTTP/1.1\r\n\r\n"},
			{name: "POST to root", raw: "POST /?code=abc HTTP/1.1\r\n\r\n"},
			{name: "lowercase method", raw: "get / HTTP/1.1\r\n\r\n"},
			{name: "HEAD", raw: "HEAD / HTTP/1.1\r\n\r\n"},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				conn := tu.NewConn(tt.raw)

				query, ok, err := handler.Handle(conn)
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if ok || query != nil {
					t.Errorf("expected no capture, got %v", query)
				}
				if !strings.HasPrefix(conn.Out.String(), "HTTP/1.1 400 Bad Request\r\n") {
					t.Errorf("expected 400, got %q", conn.Out.String())
				}
			})
		}
	})

	t.Run("malformed request gets 500 with the error text", func(t *testing.T) {
		conn := tu.NewConn("GARBAGE\r\n\r\n")

		_, ok, err := handler.Handle(conn)
		if err != nil {
			t.Fatalf("expected parse errors to be answered, got %v", err)
		}
		if ok {
			t.Fatal("expected no capture")
		}

		out := conn.Out.String()
		if !strings.HasPrefix(out, "HTTP/1.1 500 Internal Server Error\r\n") {
			t.Errorf("expected 500, got %q", out)
		}
		if !strings.Contains(out, ErrParse.Error()) {
			t.Errorf("expected body to carry the parse error, got %q", out)
		}
	})

	t.Run("write failure is a connection error", func(t *testing.T) {
		conn := &tu.Conn{Reader: strings.NewReader("GET /nope HTTP/1.1\r\n\r\n"), Writer: &tu.FWriter{}}

		_, ok, err := handler.Handle(conn)
		if ok {
			t.Error("expected no capture")
		}

		var connErr *ConnError
		if !errors.As(err, &connErr) || connErr.Op != "write" {
			t.Errorf("expected write *ConnError, got %v", err)
		}
	})

	t.Run("write failure after a capture keeps the result", func(t *testing.T) {
		conn := &tu.Conn{Reader: strings.NewReader("GET /?code=1 HTTP/1.1\r\n\r\n"), Writer: &tu.FWriter{}}

		query, ok, err := handler.Handle(conn)
		if !ok || query["code"] != "1" {
			t.Errorf("expected capture despite write failure, got %v %v", ok, query)
		}
		if err == nil {
			t.Error("expected write error to be reported")
		}
	})

	t.Run("read failure still attempts a response", func(t *testing.T) {
		conn := &tu.Conn{Reader: &tu.FReader{}, Writer: &strings.Builder{}}

		_, ok, err := handler.Handle(conn)
		if ok {
			t.Error("expected no capture")
		}

		var connErr *ConnError
		if !errors.As(err, &connErr) || connErr.Op != "read" {
			t.Errorf("expected read *ConnError, got %v", err)
		}
		if out := conn.Writer.(*strings.Builder).String(); !strings.HasPrefix(out, "HTTP/1.1 500") {
			t.Errorf("expected 500 to be attempted, got %q", out)
		}
	})
}
