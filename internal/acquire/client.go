package acquire

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"longform/internal/logx"
)

// Task states reported by the status endpoint.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusTimeouted = "timeouted"
	StatusCancelled = "cancelled"
)

const (
	defaultPollInterval = 5 * time.Second
	maxErrorBody        = 512
	noReason            = "no reason"
)

// Options configures a Client.
type Options struct {
	Endpoint     string
	StatusURL    string
	APIKey       string
	Model        string
	PollInterval time.Duration
	// Timeout bounds the whole generate call; zero waits until the service
	// reports a terminal state or the context ends.
	Timeout   time.Duration
	OutputDir string

	// HTTPClient serves the submit and status calls.
	HTTPClient *http.Client
	// DownloadClient fetches finished tracks. It should carry no overall
	// Timeout; ctx bounds the transfer. When nil it shares HTTPClient's
	// transport without the timeout.
	DownloadClient *http.Client
	Logger         *log.Logger
	Now        func() time.Time
	// Progress receives download bars; nil disables them.
	Progress io.Writer
	// OnStatus is called after every poll with the reported state.
	OnStatus func(taskID, status string)
}

// Client talks to an instrumental generation service that accepts a prompt,
// returns a task ID, and later exposes the finished tracks as URLs.
type Client struct {
	opts     Options
	http     *http.Client
	download *http.Client
	logger   *log.Logger
}

// Choice is one generated track.
type Choice struct {
	URL      string  `json:"url"`
	Index    int     `json:"index,omitempty"`
	Duration float64 `json:"duration,omitempty"`
}

// Task is the status endpoint's view of a generation.
type Task struct {
	ID           string   `json:"id"`
	Status       string   `json:"status"`
	FailedReason string   `json:"failed_reason,omitempty"`
	Choices      []Choice `json:"choices,omitempty"`
}

// Terminal reports whether the task will not change state again.
func (t Task) Terminal() bool {
	switch t.Status {
	case StatusSucceeded, StatusFailed, StatusTimeouted, StatusCancelled:
		return true
	}
	return false
}

type submitRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// New validates opts and returns a client.
func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if strings.TrimSpace(opts.Endpoint) == "" || strings.TrimSpace(opts.StatusURL) == "" {
		return nil, fmt.Errorf("generation endpoint and status endpoint are required")
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.Model == "" {
		opts.Model = "auto"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	downloadClient := opts.DownloadClient
	if downloadClient == nil {
		downloadClient = &http.Client{
			Transport:     httpClient.Transport,
			CheckRedirect: httpClient.CheckRedirect,
			Jar:           httpClient.Jar,
		}
	}
	return &Client{
		opts:     opts,
		http:     httpClient,
		download: downloadClient,
		logger:   logx.OrDiscard(opts.Logger),
	}, nil
}

// Submit starts a generation and returns its task ID.
func (c *Client) Submit(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(submitRequest{Model: c.opts.Model, Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	var task Task
	if err := c.doJSON(ctx, http.MethodPost, c.opts.Endpoint, body, &task); err != nil {
		return "", fmt.Errorf("submit generation: %w", err)
	}
	if task.ID == "" {
		return "", fmt.Errorf("submit generation: response has no task id")
	}
	c.logger.Printf("submitted generation task %s (model=%s)", task.ID, c.opts.Model)
	return task.ID, nil
}

// Status fetches the current state of a task.
func (c *Client) Status(ctx context.Context, taskID string) (Task, error) {
	url := strings.TrimRight(c.opts.StatusURL, "/") + "/" + taskID
	var task Task
	if err := c.doJSON(ctx, http.MethodGet, url, nil, &task); err != nil {
		return Task{}, fmt.Errorf("query task %s: %w", taskID, err)
	}
	if task.ID == "" {
		task.ID = taskID
	}
	return task, nil
}

// Wait polls until the task reaches a terminal state. It sleeps one poll
// interval before each query. A task that ends in any state other than
// succeeded yields a *TaskFailedError.
func (c *Client) Wait(ctx context.Context, taskID string) (Task, error) {
	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()

	for polls := 1; ; polls++ {
		select {
		case <-ctx.Done():
			return Task{}, fmt.Errorf("waiting for task %s: %w", taskID, ctx.Err())
		case <-ticker.C:
		}

		task, err := c.Status(ctx, taskID)
		if err != nil {
			return Task{}, err
		}
		c.logger.Printf("task %s poll %d: %s", taskID, polls, task.Status)
		if c.opts.OnStatus != nil {
			c.opts.OnStatus(taskID, task.Status)
		}

		if !task.Terminal() {
			continue
		}
		if task.Status != StatusSucceeded {
			reason := strings.TrimSpace(task.FailedReason)
			if reason == "" {
				reason = noReason
			}
			return task, &TaskFailedError{TaskID: taskID, Status: task.Status, Reason: reason}
		}
		return task, nil
	}
}

func (c *Client) doJSON(ctx context.Context, method, url string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPError{Method: method, URL: url, StatusCode: resp.StatusCode, Body: truncate(strings.TrimSpace(string(data)), maxErrorBody)}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w (body: %s)", err, truncate(string(data), maxErrorBody))
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
