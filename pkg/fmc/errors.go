package fmc

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Validation errors.
var (
	ErrInvalidResourceType = errors.New("invalid resource type")
	ErrInvalidObjectType   = errors.New("invalid object type")
	ErrUnsupportedMethod   = errors.New("HTTP method is not supported")
	ErrInvalidObjectSpec   = errors.New("exactly one object source must be given")
	ErrEmptyName           = errors.New("object name must not be empty")
	ErrIDRequired          = errors.New("record id is required")
	ErrConfigRequired      = errors.New("config is required")
	ErrURLRequired         = errors.New("FMC URL is required")
	ErrCredentialsRequired = errors.New("username and password are required")
	ErrForeignHost         = errors.New("link points outside the FMC server")
)

// Response and lookup errors.
var (
	ErrEmptyResponse   = errors.New("empty response from FMC")
	ErrNameNotFound    = errors.New("name not found")
	ErrNoMoreItems     = errors.New("no more items")
	ErrCyclicReference = errors.New("cyclic object reference")
	ErrRenameRejected  = errors.New("rename was not applied by FMC")
)

// Object lifecycle errors.
var (
	ErrObjectUnbound  = errors.New("object is not bound to a record")
	ErrAlreadyDeleted = errors.New("object already deleted")
	ErrNotDeletable   = errors.New("object cannot be deleted")
	ErrNotGroupType   = errors.New("object type cannot contain children")
	ErrNoParentType   = errors.New("object type cannot be nested in a group")
)

// Session errors.
var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNoAccessToken    = errors.New("login response carried no access token")
	ErrLoggedOut        = errors.New("client has been logged out")
)

// StatusError is a non-2xx response from FMC.
type StatusError struct {
	StatusCode int      `json:"status_code"`
	Method     string   `json:"method"`
	URL        string   `json:"url"`
	Messages   []string `json:"messages,omitempty"`
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: HTTP %d", e.Method, e.URL, e.StatusCode)
	if len(e.Messages) > 0 {
		msg += ": " + strings.Join(e.Messages, "; ")
	}

	return msg
}

func statusCode(err error) int {
	statusErr := &StatusError{}
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}

	return 0
}

// IsNotFound checks if the error is a 404 from FMC.
func IsNotFound(err error) bool {
	return statusCode(err) == http.StatusNotFound
}

// IsUnauthorized checks if the error is a 401 from FMC.
func IsUnauthorized(err error) bool {
	return statusCode(err) == http.StatusUnauthorized
}

// IsConflict checks if FMC refused the request because of the object's state,
// e.g. deleting an object that is still referenced.
func IsConflict(err error) bool {
	switch statusCode(err) {
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return true
	default:
		return false
	}
}

// IsTooManyRequests checks if FMC rate limited the request.
func IsTooManyRequests(err error) bool {
	return statusCode(err) == http.StatusTooManyRequests
}
