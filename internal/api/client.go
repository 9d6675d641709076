package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxResponseSize = 16 << 20

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// BaseURL is the records service or relay URL (e.g., "http://localhost:3000/proxy").
	BaseURL string
	// StudentsPath is the students collection path relative to BaseURL.
	StudentsPath string
	// ScholarshipsPath is the scholarships collection path relative to BaseURL.
	ScholarshipsPath string
	// HTTPClient is used for all requests. If nil, a client with Timeout is created.
	HTTPClient *http.Client
	// Timeout bounds each request when HTTPClient is nil (0 = no limit).
	Timeout time.Duration
	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Client talks to the records service.
type Client struct {
	baseURL          string
	studentsPath     string
	scholarshipsPath string
	httpClient       *http.Client
	logger           *slog.Logger
}

// NewClient creates a new records client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("api: BaseURL is required")
	}
	u, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("api: invalid BaseURL %q: %w", config.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api: BaseURL %q must use http or https", config.BaseURL)
	}
	if config.StudentsPath == "" || config.ScholarshipsPath == "" {
		return nil, fmt.Errorf("api: StudentsPath and ScholarshipsPath are required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:          strings.TrimRight(config.BaseURL, "/"),
		studentsPath:     "/" + strings.Trim(config.StudentsPath, "/"),
		scholarshipsPath: "/" + strings.Trim(config.ScholarshipsPath, "/"),
		httpClient:       httpClient,
		logger:           logger,
	}, nil
}

// BaseURL returns the URL requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Ping fetches the students collection and reports how long it took.
func (c *Client) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	_, err := c.do(ctx, http.MethodGet, c.studentsPath, "", nil)
	return time.Since(start), err
}

func itemPath(collection string, id string) string {
	return collection + "/" + url.PathEscape(id)
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("api: failed to encode request body: %w", err)
		}
		body = bytes.NewReader(encoded)
		contentType = "application/json"
	}

	data, err := c.do(ctx, method, path, contentType, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := decodeOptional(data, out); err != nil {
		return fmt.Errorf("api: failed to parse %s %s response: %w", method, path, err)
	}
	return nil
}

// decodeOptional decodes data into out unless it is empty.
func decodeOptional(data []byte, out any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}

// do sends one request and returns the body of a 2xx answer.
func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) ([]byte, error) {
	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("api: failed to create request: %w", err)
	}
	if contentType != "" {
		request.Header.Set("Content-Type", contentType)
	}
	request.Header.Set("Accept", "application/json")
	request.Header.Set("X-Request-Id", uuid.NewString())

	start := time.Now()
	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("api: request to %s %s failed: %w", method, path, err)
	}
	defer response.Body.Close()

	data, err := io.ReadAll(io.LimitReader(response.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("api: failed to read response body: %w", err)
	}

	c.logger.Debug("records request",
		"method", method,
		"path", path,
		"status", response.StatusCode,
		"duration", time.Since(start))

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, newStatusError(method, path, response.StatusCode, data)
	}
	return data, nil
}
