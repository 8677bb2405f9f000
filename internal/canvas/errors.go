package canvas

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-success HTTP status from the remote API.
type APIError struct {
	StatusCode int
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("remote API returned %d for %s", e.StatusCode, e.URL)
}

// IsForbidden reports whether err is a permission denial (HTTP 403)
// from the remote API. Denials are recorded and excluded from retry;
// they are never treated as hard failures.
func IsForbidden(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusForbidden
}
