package synology

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is returned when the client is misconfigured
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Error codes shared by every SYNO API
var commonErrors = map[int]string{
	100: "unknown error",
	101: "invalid parameter",
	102: "the requested API does not exist",
	103: "the requested method does not exist",
	104: "the requested version does not support the functionality",
	105: "the logged in session does not have permission",
	106: "session timeout",
	107: "session interrupted by duplicate login",
}

// Error codes of SYNO.API.Auth
var authErrors = map[int]string{
	400: "no such account or incorrect password",
	401: "account disabled",
	402: "permission denied",
	403: "2-step verification code required",
	404: "failed to authenticate 2-step verification code",
}

// Error codes of SYNO.DownloadStation.Task
var taskErrors = map[int]string{
	400: "file upload failed",
	401: "max number of tasks reached",
	402: "destination denied",
	403: "destination does not exist",
	404: "invalid task id",
	405: "invalid task action",
	406: "no default destination",
}

// APIError is an error reported by the Synology API
type APIError struct {
	API  string
	Code int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("synology API error: %s: code %d: %s", e.API, e.Code, e.Message())
}

// Message returns the documented meaning of the error code
func (e *APIError) Message() string {
	table := commonErrors
	switch e.API {
	case apiAuth:
		table = authErrors
	case apiTask:
		table = taskErrors
	}

	if msg, ok := table[e.Code]; ok {
		return msg
	}
	if msg, ok := commonErrors[e.Code]; ok {
		return msg
	}
	return "unknown error"
}

// IsSessionExpired reports whether the session must be renewed
func (e *APIError) IsSessionExpired() bool {
	return e.Code == 106 || e.Code == 107
}

// IsAuthFailure reports whether the login was rejected
func (e *APIError) IsAuthFailure() bool {
	return e.API == apiAuth && e.Code >= 400 && e.Code <= 404
}

// HTTPError is returned for non-200 responses
type HTTPError struct {
	StatusCode int
	Status     string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("synology HTTP error: %s", e.Status)
}
