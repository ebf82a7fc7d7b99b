package server

import (
	"errors"
	"strings"
	"testing"

	tu "github.com/desertthunder/steamlink/internal/testing"
)

func TestParseRequest(t *testing.T) {
	t.Run("parses a browser redirect", func(t *testing.T) {
		raw := "GET /?code=abc&state=xyz HTTP/1.1\r\nHost: 127.0.0.1:5000\r\nUser-Agent: test\r\n\r\n"

		req, err := ParseRequest(strings.NewReader(raw))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if req.Method != "GET" {
			t.Errorf("expected method GET, got %s", req.Method)
		}
		if req.Path != "/" {
			t.Errorf("expected path /, got %s", req.Path)
		}
		if req.Query["code"] != "abc" || req.Query["state"] != "xyz" {
			t.Errorf("unexpected query mapping: %v", req.Query)
		}
		if req.Headers["Host"] != "127.0.0.1:5000" {
			t.Errorf("expected Host header without line terminator, got %q", req.Headers["Host"])
		}
		if req.Headers["User-Agent"] != "test" {
			t.Errorf("expected User-Agent test, got %q", req.Headers["User-Agent"])
		}
		if req.Body != "" {
			t.Errorf("expected empty body, got %q", req.Body)
		}
	})

	t.Run("query mapping", func(t *testing.T) {
		tc := []struct {
			name   string
			target string
			want   map[string]string
		}{
			{
				name:   "no query",
				target: "/",
				want:   map[string]string{},
			},
			{
				name:   "last value wins",
				target: "/?a=1&b=2&a=3",
				want:   map[string]string{"a": "3", "b": "2"},
			},
			{
				name:   "values are not percent-decoded",
				target: "/?openid.claimed_id=https%3A%2F%2Fsteamcommunity.com%2Fopenid%2Fid%2F7656&x=a+b",
				want: map[string]string{
					"openid.claimed_id": "https%3A%2F%2Fsteamcommunity.com%2Fopenid%2Fid%2F7656",
					"x":                 "a+b",
				},
			},
			{
				name:   "split once on the first equals sign",
				target: "/?sig=abc=&k==v",
				want:   map[string]string{"sig": "abc=", "k": "=v"},
			},
			{
				name:   "pairs without equals are skipped",
				target: "/?flag&k=v&",
				want:   map[string]string{"k": "v"},
			},
			{
				name:   "empty value",
				target: "/?k=",
				want:   map[string]string{"k": ""},
			},
			{
				name:   "split once on the first question mark",
				target: "/cb?next=/a?b=c",
				want:   map[string]string{"next": "/a?b=c"},
			},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				raw := "GET " + tt.target + " HTTP/1.1\r\n\r\n"
				req, err := ParseRequest(strings.NewReader(raw))
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if len(req.Query) != len(tt.want) {
					t.Fatalf("expected %d params, got %d: %v", len(tt.want), len(req.Query), req.Query)
				}
				for k, v := range tt.want {
					if got, ok := req.Query[k]; !ok || got != v {
						t.Errorf("query[%q] = %q, want %q", k, got, v)
					}
				}
			})
		}
	})

	t.Run("path excludes the query string", func(t *testing.T) {
		req, err := ParseRequest(strings.NewReader("GET /callback?x=1 HTTP/1.1\r\n\r\n"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if req.Path != "/callback" {
			t.Errorf("expected path /callback, got %s", req.Path)
		}
	})

	t.Run("headers", func(t *testing.T) {
		raw := "GET / HTTP/1.1\r\nX-Dup: one\r\nx-dup: lower\r\nX-Dup: two\r\nBroken-Line\r\nX-Colon: a: b\r\n\r\n"
		req, err := ParseRequest(strings.NewReader(raw))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if req.Headers["X-Dup"] != "two" {
			t.Errorf("expected last X-Dup to win, got %q", req.Headers["X-Dup"])
		}
		if req.Headers["x-dup"] != "lower" {
			t.Errorf("expected keys to keep their case, got %q", req.Headers["x-dup"])
		}
		if _, ok := req.Headers["Broken-Line"]; ok {
			t.Error("expected line without separator to be ignored")
		}
		if req.Headers["X-Colon"] != "a: b" {
			t.Errorf("expected split on first separator only, got %q", req.Headers["X-Colon"])
		}
	})

	t.Run("body is joined after the blank line", func(t *testing.T) {
		raw := "POST /submit HTTP/1.1\r\nContent-Length: 11\r\n\r\nline1\r\nline2"
		req, err := ParseRequest(strings.NewReader(raw))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if req.Body != "line1\r\nline2" {
			t.Errorf("expected body verbatim, got %q", req.Body)
		}
	})

	t.Run("accepts bare newlines", func(t *testing.T) {
		req, err := ParseRequest(strings.NewReader("GET /?a=1 HTTP/1.1\nHost: x\n\n"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if req.Headers["Host"] != "x" || req.Query["a"] != "1" {
			t.Errorf("unexpected request: %+v", req)
		}
	})

	t.Run("malformed requests", func(t *testing.T) {
		tc := []struct {
			name string
			raw  string
		}{
			{name: "empty input", raw: ""},
			{name: "missing target", raw: "GET\r\n\r\n"},
			{name: "blank request line", raw: "\r\n\r\n"},
			{name: "no blank line", raw: "GET / HTTP/1.1\r\nHost: x\r\n"},
			{name: "invalid UTF-8", raw: "GET /\xff\xfe HTTP/1.1\r\n\r\n"},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				_, err := ParseRequest(strings.NewReader(tt.raw))
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.Is(err, ErrParse) {
					t.Errorf("expected ErrParse, got %v", err)
				}
			})
		}
	})

	t.Run("read failure is a connection error", func(t *testing.T) {
		_, err := ParseRequest(&tu.FReader{})

		var connErr *ConnError
		if !errors.As(err, &connErr) {
			t.Fatalf("expected *ConnError, got %v", err)
		}
		if connErr.Op != "read" {
			t.Errorf("expected op read, got %s", connErr.Op)
		}
		if errors.Is(err, ErrParse) {
			t.Error("read failure should not be reported as a parse error")
		}
	})
}

func TestReadRequest(t *testing.T) {
	t.Run("stops at the first short read", func(t *testing.T) {
		r := tu.NewChunkReader("GET / HTTP/1.1\r\n\r\nextra", 18)

		raw, err := ReadRequest(r)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if string(raw) != "GET / HTTP/1.1\r\n\r\n" {
			t.Errorf("expected only the first read, got %q", raw)
		}
		if r.Reads != 1 {
			t.Errorf("expected 1 read, got %d", r.Reads)
		}
	})

	t.Run("keeps reading full chunks", func(t *testing.T) {
		payload := strings.Repeat("a", ChunkSize*2+10)
		r := tu.NewChunkReader(payload, ChunkSize)

		raw, err := ReadRequest(r)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(raw) != len(payload) {
			t.Errorf("expected %d bytes, got %d", len(payload), len(raw))
		}
		if r.Reads != 3 {
			t.Errorf("expected 3 reads, got %d", r.Reads)
		}
	})

	t.Run("EOF after a full chunk ends input", func(t *testing.T) {
		payload := strings.Repeat("b", ChunkSize)

		raw, err := ReadRequest(tu.NewChunkReader(payload, ChunkSize))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(raw) != ChunkSize {
			t.Errorf("expected %d bytes, got %d", ChunkSize, len(raw))
		}
	})
}
