package circuitbreaker

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// errServerStatus marks a 5xx response for breaker accounting. The caller
// still receives the response; only the breaker treats it as a failure.
var errServerStatus = errors.New("upstream returned a server error")

// HTTPWrapper routes an http.Client through a breaker. 5xx responses count
// as failures, 4xx do not: a client error says nothing about upstream health.
type HTTPWrapper struct {
	client  *http.Client
	breaker *Breaker
}

func NewHTTPWrapper(client *http.Client, name, service string, logger *zap.Logger) *HTTPWrapper {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &HTTPWrapper{
		client:  client,
		breaker: New(name, service, httpSettings(), logger),
	}
}

func (w *HTTPWrapper) Do(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	err := w.breaker.Do(func() error {
		var derr error
		resp, derr = w.client.Do(req)
		if derr != nil {
			return derr
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return errServerStatus
		}
		return nil
	})
	if errors.Is(err, errServerStatus) {
		return resp, nil
	}
	return resp, err
}

// State reports the breaker position for readiness checks.
func (w *HTTPWrapper) State() State {
	return w.breaker.State()
}
