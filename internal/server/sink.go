package server

import (
	"sync"

	"github.com/charmbracelet/log"
)

// Sink receives the query mapping of a successful callback.
//
// Notify is called from the session goroutine after the session has cancelled itself and must not block; calling
// [Manager.Cancel] or [Manager.Start] from inside Notify deadlocks.
type Sink interface {
	Notify(query map[string]string)
}

// SinkFunc adapts a function to [Sink].
type SinkFunc func(query map[string]string)

// Notify calls f(query).
func (f SinkFunc) Notify(query map[string]string) { f(query) }

// ChanSink is a one-shot [Sink] backed by a buffered channel.
//
// The first result is delivered and the channel is closed; later results are dropped.
type ChanSink struct {
	results chan map[string]string
	once    sync.Once
	logger  *log.Logger
}

// NewChanSink creates a [ChanSink]. A nil logger falls back to [log.Default].
func NewChanSink(logger *log.Logger) *ChanSink {
	if logger == nil {
		logger = log.Default()
	}
	return &ChanSink{results: make(chan map[string]string, 1), logger: logger}
}

// Notify delivers query if no result has been delivered yet.
func (s *ChanSink) Notify(query map[string]string) {
	delivered := false
	s.once.Do(func() {
		s.results <- query
		close(s.results)
		delivered = true
	})
	if !delivered {
		s.logger.Warn("dropping callback result, sink already delivered")
	}
}

// Results returns the channel receiving the first result. It is closed after delivery.
func (s *ChanSink) Results() <-chan map[string]string {
	return s.results
}
