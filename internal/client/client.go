// Package client is a small HTTP client for the question import API.
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

	"github.com/sethvargo/go-retry"

	"github.com/phrazzld/quizimport/internal/api"
	"github.com/phrazzld/quizimport/internal/api/shared"
	"github.com/phrazzld/quizimport/internal/domain"
	"github.com/phrazzld/quizimport/internal/service"
)

// MinPollInterval is the shortest interval Wait polls at.
const MinPollInterval = 100 * time.Millisecond

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
	TraceID    string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
	if e.TraceID != "" {
		msg += " (trace " + e.TraceID + ")"
	}
	return msg
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client calls the import API.
type Client struct {
	baseURL *url.URL
	token   string
	http    *http.Client
}

// New creates a Client for the server at baseURL. token, when set, is sent
// as a bearer token. A nil httpClient uses a client with a 30s timeout.
func New(baseURL, token string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server url %q: scheme must be http or https", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: u, token: token, http: httpClient}, nil
}

// Submit queues an import and returns the server's acknowledgement.
func (c *Client) Submit(ctx context.Context, req api.ImportRequest) (*api.ImportAcceptedResponse, error) {
	var resp api.ImportAcceptedResponse
	if err := c.do(ctx, http.MethodPost, "/api/questions/import", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status returns the current status of the job identified by jobToken.
func (c *Client) Status(ctx context.Context, jobToken string) (*service.ImportStatus, error) {
	var st service.ImportStatus
	if err := c.do(ctx, http.MethodGet, "/api/questions/import/"+url.PathEscape(jobToken), nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Wait polls Status every interval until the job is no longer processing
// and returns its final status. onUpdate, when set, sees every status read.
// Server errors and network failures are retried; 4xx responses end the wait.
func (c *Client) Wait(
	ctx context.Context,
	jobToken string,
	interval time.Duration,
	onUpdate func(*service.ImportStatus),
) (*service.ImportStatus, error) {
	var final *service.ImportStatus
	backoff := retry.NewConstant(max(interval, MinPollInterval))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		st, err := c.Status(ctx, jobToken)
		if err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError {
				return err
			}
			return retry.RetryableError(err)
		}
		if onUpdate != nil {
			onUpdate(st)
		}
		if st.Status == domain.JobStatusProcessing {
			return retry.RetryableError(errStillProcessing)
		}
		final = st
		return nil
	})
	if err != nil {
		return nil, err
	}
	return final, nil
}

var errStillProcessing = errors.New("import still processing")

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := &APIError{StatusCode: resp.StatusCode, TraceID: resp.Header.Get(shared.TraceIDHeader)}

	var body shared.ErrorResponse
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		apiErr.Message = body.Error
		if body.TraceID != "" {
			apiErr.TraceID = body.TraceID
		}
	} else {
		apiErr.Message = strings.TrimSpace(string(raw))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
	}
	return apiErr
}
