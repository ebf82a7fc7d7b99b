package steam

import (
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sony/gobreaker"
)

const (
	defaultBreakerTrips   = 5
	defaultBreakerTimeout = 30 * time.Second
)

// errServerStatus marks a response the breaker counts as a failure. It never leaves circuitTransport.
var errServerStatus = errors.New("steam server error")

// circuitTransport fails fast once Steam has failed breakerTrips times in a row.
//
// Transport errors, 429 and 5xx responses count as failures; the response itself is still returned so the retry
// layer above can inspect it.
type circuitTransport struct {
	next http.RoundTripper
	cb   *gobreaker.CircuitBreaker
}

func newCircuitTransport(next http.RoundTripper, trips uint32, timeout time.Duration, logger *log.Logger) *circuitTransport {
	return &circuitTransport{
		next: next,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "steam",
			MaxRequests: 1,
			Timeout:     timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= trips
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				switch to {
				case gobreaker.StateOpen:
					logger.Error("steam circuit opened", "retry_after", timeout)
				case gobreaker.StateHalfOpen:
					logger.Warn("steam circuit half open, probing")
				case gobreaker.StateClosed:
					logger.Info("steam circuit closed")
				}
			},
		}),
	}
}

func (t *circuitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	v, err := t.cb.Execute(func() (interface{}, error) {
		resp, err := t.next.RoundTrip(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return resp, errServerStatus
		}
		return resp, nil
	})
	if errors.Is(err, errServerStatus) {
		return v.(*http.Response), nil
	}
	if err != nil {
		return nil, err
	}
	return v.(*http.Response), nil
}
