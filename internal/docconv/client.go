package docconv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"editpdf/internal/config"
	"editpdf/internal/submission"
)

const maxErrorBody = 64 << 10

// HTTPDoer describes the HTTP client used by the converter client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client calls the conversion service over HTTP.
type Client struct {
	baseURL string
	token   string
	client  HTTPDoer
}

// NewClient constructs a client for baseURL. A nil doer uses a client with
// the given timeout.
func NewClient(baseURL, token string, timeout time.Duration, doer HTTPDoer) *Client {
	if doer == nil {
		doer = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   strings.TrimSpace(token),
		client:  doer,
	}
}

// NewConfiguredClient builds a client from the converter configuration.
func NewConfiguredClient(cfg *config.Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("converter client requires configuration")
	}
	if strings.TrimSpace(cfg.Converter.BaseURL) == "" {
		return nil, errors.New("converter.base_url is not configured")
	}
	return NewClient(cfg.Converter.BaseURL, cfg.Converter.APIToken, cfg.ConverterTimeout(), nil), nil
}

// BaseURL returns the normalized service root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CombinedStatus returns the state of the combined document for one user's attempt.
func (c *Client) CombinedStatus(ctx context.Context, assignment *submission.Assignment, userID int64, attempt int) (Status, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.attemptURL(assignment, userID, attempt)+"/combined")
	if err != nil {
		return "", fmt.Errorf("build combined status request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch combined status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", decodeFailure(resp)
	}
	var payload struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode combined status: %w", err)
	}
	if strings.TrimSpace(payload.Status) == "" {
		return "", errors.New("combined status response missing status")
	}
	return ParseStatus(payload.Status), nil
}

// GeneratePageImages renders page images for one user's attempt, either the
// annotatable set or the readonly set.
func (c *Client) GeneratePageImages(ctx context.Context, assignment *submission.Assignment, userID int64, attempt int, readonly bool) error {
	flag := "0"
	if readonly {
		flag = "1"
	}
	req, err := c.newRequest(ctx, http.MethodPost, c.attemptURL(assignment, userID, attempt)+"/pages?readonly="+flag)
	if err != nil {
		return fmt.Errorf("build page image request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("generate page images: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return decodeFailure(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Ping checks that the service root answers at all.
func (c *Client) Ping(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, c.baseURL+"/health")
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("reach converter: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("converter health returned %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) attemptURL(assignment *submission.Assignment, userID int64, attempt int) string {
	var assignmentID int64
	if assignment != nil {
		assignmentID = assignment.ID
	}
	return fmt.Sprintf("%s/assignments/%d/users/%d/attempts/%d", c.baseURL, assignmentID, userID, attempt)
}

func (c *Client) newRequest(ctx context.Context, method, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

// decodeFailure turns a non-2xx response into a ConversionError when the body
// carries an error code, or a plain error otherwise.
func decodeFailure(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var payload struct {
		ErrorCode string `json:"errorcode"`
		Message   string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && strings.TrimSpace(payload.ErrorCode) != "" {
		return &ConversionError{
			Code:    strings.TrimSpace(payload.ErrorCode),
			Message: strings.TrimSpace(payload.Message),
			Status:  resp.StatusCode,
		}
	}
	snippet := strings.TrimSpace(string(body))
	if len(snippet) > 200 {
		snippet = snippet[:200]
	}
	if snippet == "" {
		return fmt.Errorf("converter returned %d", resp.StatusCode)
	}
	return fmt.Errorf("converter returned %d: %s", resp.StatusCode, snippet)
}
