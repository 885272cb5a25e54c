package intel

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrMalformedResponse marks a payload that failed schema validation or
// decoding. It is never retried.
var ErrMalformedResponse = errors.New("malformed intelligence response")

// APIError is a non-2xx answer from the intelligence service.
type APIError struct {
	Code   int
	Status string
	Body   string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("intelligence service error %s", e.Status)
	}
	return fmt.Sprintf("intelligence service error %s: %s", e.Status, e.Body)
}

// StatusCode lets the retry policy recognize rate limiting.
func (e *APIError) StatusCode() int {
	return e.Code
}

// CheckResponse turns an error status into an *APIError carrying a bounded
// excerpt of the body. It does not close the body.
func CheckResponse(resp *http.Response) error {
	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}
	excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return &APIError{
		Code:   resp.StatusCode,
		Status: resp.Status,
		Body:   strings.TrimSpace(string(excerpt)),
	}
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedResponse, fmt.Sprintf(format, args...))
}
