package acquire

import (
	"errors"
	"fmt"
)

var (
	// ErrNoChoices is returned when a task succeeds without any tracks.
	ErrNoChoices = errors.New("generation finished without any tracks")
	// ErrMissingAPIKey is returned when no API key is configured.
	ErrMissingAPIKey = errors.New("missing API key")
	// ErrEmptyGenre is returned when the genre folder name is blank.
	ErrEmptyGenre = errors.New("genre must not be empty")
)

// TaskFailedError reports a task that reached a terminal state other than
// succeeded.
type TaskFailedError struct {
	TaskID string
	Status string
	Reason string
}

func (e *TaskFailedError) Error() string {
	return fmt.Sprintf("generation %s %s: %s", e.TaskID, e.Status, e.Reason)
}

// HTTPError is a non-2xx response from the generation service.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}
