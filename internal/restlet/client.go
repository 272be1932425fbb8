package restlet

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/suitesync/internal/common"
	"github.com/dmitrijs2005/suitesync/internal/filetype"
	"github.com/dmitrijs2005/suitesync/internal/logging"
	"github.com/dmitrijs2005/suitesync/internal/tba"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultMaxRetries   = 3
	defaultRetryBackoff = 200 * time.Millisecond
)

// Client performs signed requests against a cabinet endpoint. Transient
// network failures are retried with backoff; remote rejections are not.
type Client struct {
	endpoint    string
	signer      *tba.Signer
	httpClient  *http.Client
	logger      logging.Logger
	maxFileSize int64
	maxRetries  uint64
}

type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithMaxFileSize overrides the upload size limit in bytes.
func WithMaxFileSize(n int64) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxFileSize = n
		}
	}
}

// WithMaxRetries overrides how many times transient failures are retried.
func WithMaxRetries(n uint64) ClientOption {
	return func(c *Client) { c.maxRetries = n }
}

func NewClient(endpoint string, signer *tba.Signer, logger logging.Logger, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:    endpoint,
		signer:      signer,
		httpClient:  &http.Client{Timeout: defaultTimeout},
		logger:      logger,
		maxFileSize: DefaultMaxFileSize,
		maxRetries:  defaultMaxRetries,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UploadFile uploads content to remotePath, creating or overwriting the
// remote file. The size limit is enforced before any network call; content
// of exactly the limit is accepted. Valid UTF-8 goes up as utf8 text,
// anything else as base64.
func (c *Client) UploadFile(ctx context.Context, remotePath string, content []byte, description string) (*UploadResponse, error) {
	if int64(len(content)) > c.maxFileSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", common.ErrFileTooLarge, remotePath, len(content), c.maxFileSize)
	}

	req := &UploadRequest{
		Path:        remotePath,
		Description: description,
	}
	// Binary cabinet types always travel base64, even when the bytes happen
	// to be valid UTF-8.
	if filetype.IsTextual(filetype.ForName(remotePath)) && utf8.Valid(content) {
		req.Content = string(content)
		req.Encoding = EncodingUTF8
	} else {
		req.Content = base64.StdEncoding.EncodeToString(content)
		req.Encoding = EncodingBase64
	}

	resp := &UploadResponse{}
	if err := c.do(ctx, http.MethodPost, req, resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("%w: %s", common.ErrRemoteRejected, firstNonEmpty(resp.Error, resp.Message, "upload failed"))
	}
	return resp, nil
}

// TestConnection issues the side-effect-free GET health check.
func (c *Client) TestConnection(ctx context.Context) (*ConnectionInfo, error) {
	info := &ConnectionInfo{}
	if err := c.do(ctx, http.MethodGet, nil, info); err != nil {
		return nil, err
	}
	if !info.Success {
		return nil, fmt.Errorf("%w: %s", common.ErrRemoteRejected, firstNonEmpty(info.Error, "connection test failed"))
	}
	return info, nil
}

// Delete removes the remote file at the given cabinet path.
func (c *Client) Delete(ctx context.Context, remotePath string) (*DeleteResponse, error) {
	return c.delete(ctx, &DeleteRequest{Path: remotePath})
}

// DeleteByID removes a remote file by its identifier.
func (c *Client) DeleteByID(ctx context.Context, fileID int64) (*DeleteResponse, error) {
	return c.delete(ctx, &DeleteRequest{FileID: fileID})
}

func (c *Client) delete(ctx context.Context, req *DeleteRequest) (*DeleteResponse, error) {
	resp := &DeleteResponse{}
	if err := c.do(ctx, http.MethodDelete, req, resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("%w: %s", common.ErrRemoteRejected, firstNonEmpty(resp.Error, "delete failed"))
	}
	return resp, nil
}

// do signs and executes one request, retrying transient network failures.
// Each attempt gets a freshly signed header; signatures are single-use.
func (c *Client) do(ctx context.Context, method string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewFibonacci(defaultRetryBackoff))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := c.attempt(ctx, method, payload, out)
		if errors.Is(err, common.ErrNetwork) {
			c.logger.Warn(ctx, "transient failure, will retry", "method", method, "error", err)
			return retry.RetryableError(err)
		}
		return err
	})
}

func (c *Client) attempt(ctx context.Context, method string, payload []byte, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	auth, err := c.signer.Sign(method, c.endpoint)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", auth)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrNetwork, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %v", common.ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := remoteErrorMessage(raw)
		return fmt.Errorf("%w: status %d: %s", common.ErrRemoteRejected, resp.StatusCode, msg)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", common.ErrParse, err)
	}
	return nil
}

// remoteErrorMessage pulls an error string out of a failure body when there
// is one, falling back to the raw payload.
func remoteErrorMessage(raw []byte) string {
	var e struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &e) == nil {
		if s := firstNonEmpty(e.Error, e.Message); s != "" {
			return s
		}
	}
	if len(raw) > 200 {
		raw = raw[:200]
	}
	return string(raw)
}

func firstNonEmpty(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}
	return ""
}
