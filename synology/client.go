package synology

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/s0up4200/mtstation/station"
)

// Config holds the connection settings of a Download Station
type Config struct {
	Host     string
	Port     int
	Account  string
	Password string
	HTTPS    bool
}

// Client represents a Synology Download Station client
type Client struct {
	baseURL    string
	account    string
	password   string
	httpClient *http.Client
	logger     zerolog.Logger

	mu  sync.Mutex
	sid string
}

// Option configures a Client
type Option func(*Client)

// WithTimeout sets the HTTP client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithBaseURL overrides the URL derived from host and port
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// NewClient creates a new Download Station client. No request is made until
// Login or the first task call.
func NewClient(cfg Config, logger zerolog.Logger, opts ...Option) (*Client, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("%w: host is required", ErrInvalidConfig)
	}
	if cfg.Account == "" || cfg.Password == "" {
		return nil, fmt.Errorf("%w: account and password are required", ErrInvalidConfig)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("%w: invalid port %d", ErrInvalidConfig, cfg.Port)
	}

	scheme := "http"
	if cfg.HTTPS {
		scheme = "https"
	}

	client := &Client{
		baseURL:  fmt.Sprintf("%s://%s", scheme, net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))),
		account:  cfg.Account,
		password: cfg.Password,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Login opens a Download Station session
func (c *Client) Login(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.login(ctx)
}

func (c *Client) login(ctx context.Context) error {
	params := url.Values{
		"api":     {apiAuth},
		"version": {"2"},
		"method":  {"login"},
		"account": {c.account},
		"passwd":  {c.password},
		"session": {sessionName},
		"format":  {"sid"},
	}

	data, err := c.call(ctx, authPath, apiAuth, params)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	var login loginData
	if err := json.Unmarshal(data, &login); err != nil {
		return fmt.Errorf("failed to parse login response: %w", err)
	}
	if login.SID == "" {
		return fmt.Errorf("login failed: empty session id")
	}

	c.sid = login.SID
	c.logger.Debug().Str("account", c.account).Msg("Logged in to Download Station")

	return nil
}

// session returns the current session id, logging in when needed
func (c *Client) session(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sid == "" {
		if err := c.login(ctx); err != nil {
			return "", err
		}
	}
	return c.sid, nil
}

// task calls a SYNO.DownloadStation.Task method
func (c *Client) task(ctx context.Context, method string, params url.Values) (json.RawMessage, error) {
	sid, err := c.session(ctx)
	if err != nil {
		return nil, err
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api", apiTask)
	params.Set("version", "1")
	params.Set("method", method)
	params.Set("_sid", sid)

	return c.call(ctx, taskPath, apiTask, params)
}

// call posts params to a CGI endpoint and returns the data of a successful
// response
func (c *Client) call(ctx context.Context, path, api string, params url.Values) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	c.logger.Debug().
		Str("api", api).
		Str("method", params.Get("method")).
		Msg("Making Download Station request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var r response
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if !r.Success {
		code := 100
		if r.Error != nil {
			code = r.Error.Code
		}
		return nil, &APIError{API: api, Code: code}
	}

	return r.Data, nil
}

// ListTasks returns every Download Station task with detail and transfer
// information
func (c *Client) ListTasks(ctx context.Context) ([]station.Task, error) {
	data, err := c.task(ctx, "list", url.Values{"additional": {"detail,transfer"}})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	var list taskList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse task list: %w", err)
	}

	tasks := make([]station.Task, 0, len(list.Tasks))
	for _, t := range list.Tasks {
		tasks = append(tasks, t.toStation())
	}

	c.logger.Debug().Int("count", len(tasks)).Msg("Retrieved tasks from Download Station")

	return tasks, nil
}

// DeleteTasks removes tasks without moving incomplete data
func (c *Client) DeleteTasks(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	data, err := c.task(ctx, "delete", url.Values{
		"id":             {strings.Join(ids, ",")},
		"force_complete": {"false"},
	})
	if err != nil {
		return fmt.Errorf("failed to delete tasks: %w", err)
	}

	return actionErrors("delete", data)
}

// ResumeTasks resumes paused or failed tasks
func (c *Client) ResumeTasks(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	data, err := c.task(ctx, "resume", url.Values{"id": {strings.Join(ids, ",")}})
	if err != nil {
		return fmt.Errorf("failed to resume tasks: %w", err)
	}

	return actionErrors("resume", data)
}

// actionErrors collects the per task failures of a delete or resume call
func actionErrors(action string, data json.RawMessage) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	var results []actionResult
	if err := json.Unmarshal(data, &results); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", action, err)
	}

	var errs []error
	for _, r := range results {
		if r.Error == 0 {
			continue
		}
		errs = append(errs, fmt.Errorf("%s %s: %w", action, r.ID, &APIError{API: apiTask, Code: r.Error}))
	}

	return errors.Join(errs...)
}

// Close logs out of the session. It is a no-op without a session.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sid == "" {
		return nil
	}

	_, err := c.call(ctx, authPath, apiAuth, url.Values{
		"api":     {apiAuth},
		"version": {"1"},
		"method":  {"logout"},
		"session": {sessionName},
		"_sid":    {c.sid},
	})
	c.sid = ""
	if err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}

	return nil
}

var _ station.Station = (*Client)(nil)
