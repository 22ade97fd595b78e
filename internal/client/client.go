// Package client talks to a running taskmanager server and exposes it as a
// storage.Store.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"taskmanager/internal/models"
	"taskmanager/internal/storage"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Is lets callers match a 404 against storage.ErrNotFound.
func (e *APIError) Is(target error) bool {
	return target == storage.ErrNotFound && e.Status == http.StatusNotFound
}

// Client is a storage.Store backed by the HTTP API.
type Client struct {
	base *url.URL
	http *http.Client
}

var _ storage.Store = (*Client)(nil)

// New parses baseURL, the server root without the /api suffix.
func New(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server url %q: scheme must be http or https", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{base: u, http: httpClient}, nil
}

func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		r = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.JoinPath(path).String(), r)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
			apiErr.Message = payload.Message
		}
		return apiErr
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) ListTasks(ctx context.Context) ([]models.Task, error) {
	tasks := []models.Task{}
	if err := c.do(ctx, http.MethodGet, "/api/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	for i := range tasks {
		tasks[i].Normalize()
	}
	return tasks, nil
}

// GetTask has no endpoint of its own; it scans the full list.
func (c *Client) GetTask(ctx context.Context, id string) (models.Task, error) {
	tasks, err := c.ListTasks(ctx)
	if err != nil {
		return models.Task{}, err
	}
	for _, t := range tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return models.Task{}, fmt.Errorf("task %s: %w", id, storage.ErrNotFound)
}

func (c *Client) CreateTask(ctx context.Context, t models.Task) (models.Task, error) {
	t.Normalize()
	t.ID = ""
	var created models.Task
	if err := c.do(ctx, http.MethodPost, "/api/tasks", t, &created); err != nil {
		return models.Task{}, err
	}
	created.Normalize()
	return created, nil
}

func (c *Client) UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (models.Task, error) {
	var updated models.Task
	if err := c.do(ctx, http.MethodPut, "/api/tasks/"+id, patch, &updated); err != nil {
		return models.Task{}, err
	}
	updated.Normalize()
	return updated, nil
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+id, nil, nil)
}

func (c *Client) ListProjects(ctx context.Context) ([]models.Project, error) {
	projects := []models.Project{}
	if err := c.do(ctx, http.MethodGet, "/api/projects", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

func (c *Client) CreateProject(ctx context.Context, name string) (models.Project, error) {
	var p models.Project
	err := c.do(ctx, http.MethodPost, "/api/projects", map[string]string{"name": name}, &p)
	return p, err
}

func (c *Client) ListLabels(ctx context.Context) ([]models.Label, error) {
	labels := []models.Label{}
	if err := c.do(ctx, http.MethodGet, "/api/labels", nil, &labels); err != nil {
		return nil, err
	}
	return labels, nil
}

func (c *Client) CreateLabel(ctx context.Context, name string) (models.Label, error) {
	var l models.Label
	err := c.do(ctx, http.MethodPost, "/api/labels", map[string]string{"name": name}, &l)
	return l, err
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}
