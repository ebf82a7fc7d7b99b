package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
)

// Handler answers a single callback connection.
type Handler struct {
	logger *log.Logger
}

// NewHandler creates a [Handler]. A nil logger falls back to [log.Default].
func NewHandler(logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{logger: logger}
}

// Handle reads one request from conn and writes exactly one response.
//
// GET / is answered with 204 and its query mapping is returned with ok set. Any other method or path gets a 400, and
// a malformed request gets a 500 carrying the parse error. The returned error is a [*ConnError] for read or write
// failures and never means the session should end.
func (h *Handler) Handle(conn io.ReadWriter) (query map[string]string, ok bool, err error) {
	req, err := ParseRequest(conn)
	if err != nil {
		werr := h.write(conn, NewResponse(http.StatusInternalServerError, err.Error()))

		var connErr *ConnError
		if errors.As(err, &connErr) {
			return nil, false, errors.Join(err, werr)
		}

		h.logger.Warn("rejecting malformed request", "error", err)
		return nil, false, werr
	}

	h.logger.Debug("request received", "method", req.Method, "path", req.Path, "params", len(req.Query))

	if req.Method != http.MethodGet || req.Path != "/" {
		return nil, false, h.write(conn, NewResponse(http.StatusBadRequest, ""))
	}

	if err := h.write(conn, NewResponse(http.StatusNoContent, "")); err != nil {
		// The browser may not see the 204, but the redirect itself arrived intact.
		return req.Query, true, err
	}
	return req.Query, true, nil
}

func (h *Handler) write(w io.Writer, res *Response) error {
	if _, err := res.WriteTo(w); err != nil {
		return &ConnError{Op: "write", Err: err}
	}
	return nil
}
