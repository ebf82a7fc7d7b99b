package server

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// ChunkSize is the read size used when draining a connection.
//
// A read shorter than ChunkSize is taken as the end of the request. Browser redirects are small, headers-only GET
// requests, so this holds in practice; a request that is an exact multiple of ChunkSize waits for the connection
// deadline instead.
const ChunkSize = 1024

// Request is a parsed HTTP/1.1 request as received on the callback listener.
type Request struct {
	Method  string
	Path    string
	Headers map[string]string // last occurrence wins, keys as received
	Query   map[string]string // last occurrence wins, values not percent-decoded
	Body    string
}

// ReadRequest drains r in [ChunkSize] reads until a short read or EOF.
func ReadRequest(r io.Reader) ([]byte, error) {
	var received []byte
	chunk := make([]byte, ChunkSize)

	for {
		n, err := r.Read(chunk)
		received = append(received, chunk[:n]...)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return received, nil
			}
			return received, &ConnError{Op: "read", Err: err}
		}
		if n < ChunkSize {
			return received, nil
		}
	}
}

// ParseRequest reads one request from r and parses it.
//
// Parse failures wrap [ErrParse]; read failures are returned as a [*ConnError].
func ParseRequest(r io.Reader) (*Request, error) {
	raw, err := ReadRequest(r)
	if err != nil {
		return nil, err
	}
	return parseRequest(raw)
}

func parseRequest(raw []byte) (*Request, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty request", ErrParse)
	}
	if !utf8.Valid(raw) {
		return nil, fmt.Errorf("%w: request is not valid UTF-8", ErrParse)
	}

	lines := strings.SplitAfter(string(raw), "\n")

	fields := strings.Fields(lines[0])
	if len(fields) < 2 {
		return nil, fmt.Errorf("%w: invalid request line %q", ErrParse, strings.TrimSpace(lines[0]))
	}

	req := &Request{
		Method:  fields[0],
		Headers: make(map[string]string),
		Query:   make(map[string]string),
	}

	path, rawQuery, _ := strings.Cut(fields[1], "?")
	req.Path = path
	parseQuery(rawQuery, req.Query)

	rest := lines[1:]
	blank := -1
	for i, line := range rest {
		if line == "\r\n" || line == "\n" {
			blank = i
			break
		}
	}
	if blank < 0 {
		return nil, fmt.Errorf("%w: missing blank line after headers", ErrParse)
	}

	for _, line := range rest[:blank] {
		key, value, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}
		req.Headers[key] = strings.TrimRight(value, "\r\n")
	}

	req.Body = strings.Join(rest[blank+1:], "")
	return req, nil
}

// parseQuery splits a raw query string into dst. Pairs without '=' are skipped.
func parseQuery(rawQuery string, dst map[string]string) {
	if rawQuery == "" {
		return
	}
	for _, pair := range strings.Split(rawQuery, "&") {
		if key, value, ok := strings.Cut(pair, "="); ok {
			dst[key] = value
		}
	}
}
