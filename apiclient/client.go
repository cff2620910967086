// Package apiclient implements the SDK transport layer: plain HTTP verbs
// plus multipart upload against the Mixcore REST API, with consistent
// headers, per-request timeouts and error normalization.
//
// The layer is stateless across calls except for the injected token provider
// closure; it never owns authentication logic itself.
package apiclient

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

	"github.com/google/uuid"
	"github.com/mixcore/sdk-go/common"
	"github.com/mixcore/sdk-go/internal/logging"
)

// DefaultTimeout bounds every request unless overridden.
const DefaultTimeout = 30 * time.Second

// TokenProvider supplies the current access token, or "" when no session is
// active. The token/session layer implements it; the transport only consumes.
type TokenProvider func() string

// Client performs HTTP calls against a single endpoint.
type Client struct {
	endpoint      string
	httpClient    *http.Client
	timeout       time.Duration
	tokenProvider TokenProvider
	tokenType     string
	log           logging.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithHTTPClient substitutes the underlying http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithTokenProvider installs the closure consulted for a bearer token on
// every request.
func WithTokenProvider(p TokenProvider) Option {
	return func(c *Client) { c.tokenProvider = p }
}

// WithTokenType overrides the Authorization scheme (default "Bearer").
func WithTokenType(t string) Option {
	return func(c *Client) { c.tokenType = t }
}

// WithLogger installs a structured logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New returns a Client bound to endpoint. A trailing slash on the endpoint
// is trimmed so paths can always start with "/".
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{},
		timeout:    DefaultTimeout,
		tokenType:  common.DefaultTokenType,
		log:        logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get issues a GET with optional query parameters. Nil-valued parameters are
// dropped before encoding.
func (c *Client) Get(ctx context.Context, path string, params map[string]any, out any) error {
	return c.do(ctx, http.MethodGet, path+encodeQuery(params), nil, out)
}

// Post issues a POST with a JSON-encoded body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// Put issues a PUT with a JSON-encoded body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

// Patch issues a PATCH with a JSON-encoded body.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPatch, path, body, out)
}

// Delete issues a DELETE. body may be nil.
func (c *Client) Delete(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodDelete, path, body, out)
}

// Upload issues a POST with a multipart body. Content-Type is left to the
// form so the multipart boundary is set correctly.
func (c *Client) Upload(ctx context.Context, path string, form *Form, out any) error {
	body, contentType, err := form.encode()
	if err != nil {
		return fmt.Errorf("encoding multipart form: %w", err)
	}
	return c.roundTrip(ctx, http.MethodPost, path, body, contentType, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	contentType := ""
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
		contentType = "application/json"
	}
	return c.roundTrip(ctx, method, path, reader, contentType, out)
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	requestID := uuid.NewString()
	req.Header.Set(common.RequestIDHeader, requestID)

	if c.tokenProvider != nil {
		if token := c.tokenProvider(); token != "" {
			req.Header.Set(common.AuthorizationHeader, c.tokenType+" "+token)
		}
	}

	c.log.Debug(ctx, "request", "method", method, "path", path, "request_id", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return common.NewTimeoutError(fmt.Sprintf("%s %s timed out after %s", method, path, c.timeout), err)
		}
		return common.NewNetworkError(fmt.Sprintf("%s %s failed", method, path), 0, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return common.NewNetworkError(fmt.Sprintf("reading %s %s response", method, path), resp.StatusCode, err)
	}

	c.log.Debug(ctx, "response", "status", resp.StatusCode, "request_id", requestID)

	if resp.StatusCode >= http.StatusBadRequest {
		return statusError(resp.StatusCode, resp.Status, payload)
	}

	return decode(resp.Header.Get("Content-Type"), payload, out)
}

// statusError maps an HTTP failure status to the SDK error taxonomy:
// 401/403 are authentication failures, 5xx are network failures carrying the
// status, everything else is a generic request error.
func statusError(code int, status string, body []byte) error {
	message := serverMessage(body)
	if message == "" {
		message = status
	}
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return common.NewAuthError(message, code)
	case code >= http.StatusInternalServerError:
		return common.NewNetworkError(message, code, nil)
	default:
		return common.NewRequestError(message, code)
	}
}

// serverMessage pulls a human-readable message out of a JSON error body.
func serverMessage(body []byte) string {
	var envelope struct {
		Message string   `json:"message"`
		Error   string   `json:"error"`
		Errors  []string `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	switch {
	case envelope.Message != "":
		return envelope.Message
	case envelope.Error != "":
		return envelope.Error
	case len(envelope.Errors) > 0:
		return strings.Join(envelope.Errors, "; ")
	}
	return ""
}

// decode unmarshals JSON responses into out; non-JSON responses are exposed
// as raw text (via *string) or raw bytes (via *[]byte). A nil out discards
// the body.
func decode(contentType string, payload []byte, out any) error {
	if out == nil {
		return nil
	}
	if strings.Contains(contentType, "application/json") {
		if len(payload) == 0 {
			return nil
		}
		if err := json.Unmarshal(payload, out); err != nil {
			return fmt.Errorf("decoding response body: %w", err)
		}
		return nil
	}
	switch target := out.(type) {
	case *string:
		*target = string(payload)
	case *[]byte:
		*target = payload
	default:
		return fmt.Errorf("cannot decode %q response into %T", contentType, out)
	}
	return nil
}

// encodeQuery renders params into a "?a=b" suffix, dropping nil values and
// JSON-encoding non-scalar values. Returns "" for an empty map.
func encodeQuery(params map[string]any) string {
	if len(params) == 0 {
		return ""
	}
	values := url.Values{}
	for k, v := range params {
		if v == nil {
			continue
		}
		switch value := v.(type) {
		case string:
			values.Set(k, value)
		case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
			values.Set(k, fmt.Sprintf("%v", value))
		default:
			encoded, err := json.Marshal(value)
			if err != nil {
				continue
			}
			values.Set(k, string(encoded))
		}
	}
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}
