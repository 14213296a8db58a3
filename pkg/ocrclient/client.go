// Package ocrclient talks to the remote document storage and OCR service.
// It owns transport concerns only: multipart encoding, retries with backoff,
// error parsing. Field normalization and review rules live in ocrmap.
package ocrclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/relayhr/doccapture/pkg/errx"
)

const (
	// DefaultTimeout covers upload plus synchronous extraction.
	DefaultTimeout = 2 * time.Minute
	MaxRetries     = 3
)

// Client is an HTTP client for the document service.
type Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
	maxRetries int
	backoff    func(attempt int) time.Duration
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient substitutes the underlying transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithAuthToken attaches a bearer token to every request.
func WithAuthToken(token string) Option {
	return func(c *Client) { c.authToken = token }
}

// WithMaxRetries overrides the retry budget.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithBackoff substitutes the retry delay schedule.
func WithBackoff(fn func(attempt int) time.Duration) Option {
	return func(c *Client) { c.backoff = fn }
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		maxRetries: MaxRetries,
		backoff: func(attempt int) time.Duration {
			return time.Duration(attempt) * time.Second
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Upload stores one document and, when the service extracts synchronously,
// returns its OCR result alongside the issued document id.
func (c *Client) Upload(ctx context.Context, req UploadRequest) (*UploadResponse, *errx.Error) {
	body, contentType, err := encodeMultipart(req)
	if err != nil {
		return nil, err
	}

	respBody, err := c.post(ctx, "/documents", contentType, body)
	if err != nil {
		return nil, err
	}

	var resp UploadResponse
	if jsonErr := json.Unmarshal(respBody, &resp); jsonErr != nil {
		return nil, clientErrors.NewWithCause(ErrResponse, jsonErr)
	}
	return &resp, nil
}

// Reprocess re-runs extraction on a stored document.
func (c *Client) Reprocess(ctx context.Context, req ReprocessRequest) (*ReprocessResponse, *errx.Error) {
	payload, jsonErr := json.Marshal(req)
	if jsonErr != nil {
		return nil, clientErrors.NewWithCause(ErrRequest, jsonErr)
	}

	respBody, err := c.post(ctx, "/documents/"+req.DocumentID+"/ocr", "application/json", payload)
	if err != nil {
		return nil, err
	}

	var resp ReprocessResponse
	if jsonErr := json.Unmarshal(respBody, &resp); jsonErr != nil {
		return nil, clientErrors.NewWithCause(ErrResponse, jsonErr)
	}
	return &resp, nil
}

// post sends the payload with retries. The body is rebuilt per attempt from
// the encoded bytes, so multipart uploads retry safely.
func (c *Client) post(ctx context.Context, endpoint, contentType string, payload []byte) ([]byte, *errx.Error) {
	var lastErr *errx.Error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.backoff(attempt)):
			case <-ctx.Done():
				return nil, clientErrors.NewWithCause(ErrRequest, ctx.Err())
			}
		}

		body, err := c.doRequest(ctx, endpoint, contentType, payload)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !shouldRetry(err) {
			break
		}
	}
	return nil, lastErr
}

func (c *Client) doRequest(ctx context.Context, endpoint, contentType string, payload []byte) ([]byte, *errx.Error) {
	url := c.baseURL + endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, clientErrors.NewWithCause(ErrRequest, err)
	}
	req.Header.Set("Content-Type", contentType)
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, clientErrors.NewWithCause(ErrRequest, err).WithDetail("url", url)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, clientErrors.NewWithCause(ErrResponse, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseAPIError(resp.StatusCode, respBody)
	}
	return respBody, nil
}

func shouldRetry(err *errx.Error) bool {
	if err.Code == ErrRateLimit.Code {
		return true
	}
	if statusCode, ok := err.Details["status_code"].(int); ok {
		return statusCode >= 500 && statusCode < 600
	}
	// Transport-level failures with no status are worth a retry.
	return err.Code == ErrRequest.Code && err.Err != nil
}

// encodeMultipart renders the upload form: sessionId, documentCategory and
// documentName fields plus the file part.
func encodeMultipart(req UploadRequest) ([]byte, string, *errx.Error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"sessionId":        req.SessionID.String(),
		"documentCategory": req.Category.String(),
		"documentName":     req.FileName,
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", clientErrors.NewWithCause(ErrRequest, err)
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+req.FileName+`"`)
	header.Set("Content-Type", req.MediaType)
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", clientErrors.NewWithCause(ErrRequest, err)
	}
	if _, err := part.Write(req.Data); err != nil {
		return nil, "", clientErrors.NewWithCause(ErrRequest, err)
	}
	if err := w.Close(); err != nil {
		return nil, "", clientErrors.NewWithCause(ErrRequest, err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
