// Package restapi implements the repository interfaces over the catalog REST backend.
// Every call is one request/response round trip with no retry and no cache.
package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/hapkiduki/stone-feeder/internal/application/port"
	"github.com/hapkiduki/stone-feeder/internal/domain/entity"
	"github.com/hapkiduki/stone-feeder/internal/domain/repository"
)

// envelope is the backend response shape. Success is a pointer so that a
// missing flag can be told apart from false.
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// Client performs round trips against the backend base URL.
type Client struct {
	baseURL string
	http    *http.Client
	log     port.Logger
}

// NewClient creates a client for baseURL. A nil httpClient uses a client
// without a timeout; the caller's context bounds every call.
func NewClient(baseURL string, httpClient *http.Client, log port.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		log:     log,
	}
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// request describes one round trip.
type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
}

// do sends req and decodes the envelope data into out (when out is non-nil).
func (c *Client) do(ctx context.Context, sess *entity.Session, req request, out any) error {
	u := c.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, req.body)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", repository.ErrInvalidInput, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if auth := sess.Authorization(); auth != "" {
		httpReq.Header.Set("Authorization", auth)
	}

	log := c.log.WithContext(ctx).With("method", req.method, "path", req.path)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		log.Warn("Backend request failed", "error", err)
		return fmt.Errorf("%w: %v", repository.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Warn("Backend response unreadable", "status", resp.StatusCode, "error", err)
		return fmt.Errorf("%w: read body: %v", repository.ErrBackendUnavailable, err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return withMessage(repository.ErrProductNotFound, resp.StatusCode, env.Message)
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return withMessage(repository.ErrUnauthorized, resp.StatusCode, env.Message)
	case resp.StatusCode >= 500:
		log.Warn("Backend error status", "status", resp.StatusCode, "message", env.Message)
		return withMessage(repository.ErrBackendUnavailable, resp.StatusCode, env.Message)
	case resp.StatusCode >= 400:
		return withMessage(repository.ErrRequestRejected, resp.StatusCode, env.Message)
	case decodeErr != nil:
		log.Warn("Backend response is not JSON", "status", resp.StatusCode, "error", decodeErr)
		return fmt.Errorf("%w: %v", repository.ErrMalformedResponse, decodeErr)
	case env.Success == nil:
		return fmt.Errorf("%w: missing success flag", repository.ErrMalformedResponse)
	case !*env.Success:
		return withMessage(repository.ErrRequestRejected, resp.StatusCode, env.Message)
	}

	log.Debug("Backend request succeeded", "status", resp.StatusCode)

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: decode data: %v", repository.ErrMalformedResponse, err)
	}
	return nil
}

// Error is a failed round trip. It unwraps to a repository sentinel error and
// carries the backend's own message, when it sent one.
type Error struct {
	Err     error
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage is the backend message, suitable for display.
func (e *Error) UserMessage() string {
	return e.Message
}

func withMessage(sentinel error, status int, message string) error {
	return &Error{Err: sentinel, Status: status, Message: message}
}

// jsonBody encodes v as a JSON request body.
func jsonBody(v any) (io.Reader, string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, "", fmt.Errorf("%w: encode body: %v", repository.ErrInvalidInput, err)
	}
	return bytes.NewReader(data), "application/json", nil
}

// multipartBody writes fields and images into a multipart form. Images are
// sent under the "images" field name.
func multipartBody(fields map[string]string, images []repository.ImageUpload) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("%w: write field %s: %v", repository.ErrInvalidInput, k, err)
		}
	}

	for _, img := range images {
		part, err := w.CreatePart(imagePartHeader(img))
		if err != nil {
			return nil, "", fmt.Errorf("%w: create part %s: %v", repository.ErrInvalidInput, img.FileName, err)
		}
		if _, err := io.Copy(part, img.Content); err != nil {
			return nil, "", fmt.Errorf("%w: copy %s: %v", repository.ErrInvalidInput, img.FileName, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("%w: close multipart: %v", repository.ErrInvalidInput, err)
	}
	return &buf, w.FormDataContentType(), nil
}
