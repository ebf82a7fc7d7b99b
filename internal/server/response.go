package server

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const defaultContentType = "text/plain; charset=utf-8"

// Header is a single response header line. Order is preserved and duplicates are allowed.
type Header struct {
	Key   string
	Value string
}

// Response is a minimal HTTP/1.1 response written once per connection.
type Response struct {
	Status  int
	Headers []Header
	Body    string
}

// StatusText returns the status line text for code, e.g. "204 No Content".
//
// Codes other than 200, 204, 400 and 500 render as "<code> Unknown".
func StatusText(code int) string {
	switch code {
	case 200:
		return "200 Ok"
	case 204:
		return "204 No Content"
	case 400:
		return "400 Bad Request"
	case 500:
		return "500 Internal Server Error"
	default:
		return fmt.Sprintf("%d Unknown", code)
	}
}

// NewResponse builds a [Response] whose first two headers are Content-Type and Content-Length.
//
// A caller-supplied Content-Type replaces the default value in place; every other header is appended in order.
func NewResponse(status int, body string, headers ...Header) *Response {
	contentType := defaultContentType
	extra := make([]Header, 0, len(headers))
	for _, h := range headers {
		if strings.EqualFold(h.Key, "Content-Type") {
			contentType = h.Value
			continue
		}
		extra = append(extra, h)
	}

	all := []Header{
		{Key: "Content-Type", Value: contentType},
		{Key: "Content-Length", Value: strconv.Itoa(len(body))},
	}

	return &Response{
		Status:  status,
		Headers: append(all, extra...),
		Body:    body,
	}
}

// Bytes serializes the response: status line, headers, blank line, body.
func (r *Response) Bytes() []byte {
	var buf bytes.Buffer
	buf.WriteString("HTTP/1.1 " + StatusText(r.Status) + "\r\n")
	for _, h := range r.Headers {
		buf.WriteString(h.Key + ": " + h.Value + "\r\n")
	}
	buf.WriteString("\r\n")
	buf.WriteString(r.Body)
	return buf.Bytes()
}

// WriteTo implements [io.WriterTo].
func (r *Response) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(r.Bytes())
	return int64(n), err
}
