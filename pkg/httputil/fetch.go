package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single fetch attempt when the client has none.
const DefaultTimeout = 30 * time.Second

// StatusError reports a non-2xx response.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.Status, http.StatusText(e.Status))
}

// Fetch GETs url and returns at most limit bytes of the body. Network
// errors, 5xx and 429 responses are retried; a body larger than limit is
// an error. A nil client uses one with [DefaultTimeout].
func Fetch(ctx context.Context, client *http.Client, url string, limit int64) ([]byte, error) {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}

	var data []byte
	err := RetryWithBackoff(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			return &RetryableError{Err: err}
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			serr := &StatusError{URL: url, Status: resp.StatusCode}
			if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
				return &RetryableError{Err: serr}
			}
			return serr
		}

		data, err = io.ReadAll(io.LimitReader(resp.Body, limit+1))
		if err != nil {
			return &RetryableError{Err: err}
		}
		if int64(len(data)) > limit {
			return fmt.Errorf("GET %s: body exceeds %d bytes", url, limit)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}
