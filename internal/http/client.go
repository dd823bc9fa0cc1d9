package http

import (
	"bytes"
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
	"time"

	"github.com/vedsharma/momentscli/internal/catalog"
	"github.com/vedsharma/momentscli/internal/logger"
	"github.com/vedsharma/momentscli/internal/model"
	"github.com/vedsharma/momentscli/internal/params"
	"github.com/vedsharma/momentscli/internal/request"
	"go.uber.org/zap"
)

const (
	// MaxResponseSize limits response body to 50MB to prevent memory exhaustion
	MaxResponseSize = 50 * 1024 * 1024

	// DefaultTimeout bounds every execution
	DefaultTimeout = 30 * time.Second

	// UserAgent identifies the explorer on every executed request
	UserAgent = "MomentScience-API-Explorer/1.0"
)

// Client executes assembled requests and normalizes every outcome into a
// model.Response. It never returns an error.
type Client struct {
	client          *http.Client
	timeout         time.Duration
	maxResponseSize int64
}

// Option configures a Client
type Option func(*Client)

// WithTimeout replaces the execution timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithTransport replaces the underlying round tripper
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.client.Transport = rt }
}

// WithMaxResponseSize replaces the response body cap
func WithMaxResponseSize(n int64) Option {
	return func(c *Client) { c.maxResponseSize = n }
}

// NewClient creates a new HTTP client
func NewClient(opts ...Option) *Client {
	c := &Client{
		client:          &http.Client{},
		timeout:         DefaultTimeout,
		maxResponseSize: MaxResponseSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Execute builds the request for ep and sends it
func (c *Client) Execute(ctx context.Context, ep catalog.Endpoint, apiKey string, o *params.Overrides) *model.Response {
	return c.Send(ctx, request.BuildParts(ep, apiKey, o))
}

// Send performs the call described by parts. HTTP error statuses are returned
// as ordinary responses. Failures that produce no response come back with
// status 0 and a model.Diagnostic in Data.
func (c *Client) Send(ctx context.Context, parts request.Parts) *model.Response {
	start := time.Now()

	if err := validateURL(parts.URL); err != nil {
		return failure(start, invalidRequest(err))
	}

	// Warn about insecure HTTP connections
	if strings.HasPrefix(strings.ToLower(parts.URL), "http://") {
		logger.Warn("using insecure HTTP connection, data will be transmitted unencrypted",
			zap.String("url", redactURL(parts.URL)))
	}

	bodyJSON, err := parts.BodyJSON()
	if err != nil {
		return failure(start, invalidRequest(err))
	}
	var bodyReader io.Reader
	if bodyJSON != nil {
		bodyReader = bytes.NewReader(bodyJSON)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, parts.Method, parts.URL, bodyReader)
	if err != nil {
		return failure(start, invalidRequest(err))
	}
	for _, h := range parts.Headers {
		if err := validHeader(h.Name, h.Value); err != nil {
			return failure(start, invalidRequest(err))
		}
		req.Header.Set(h.Name, h.Value)
	}
	// set last so it cannot be overridden
	req.Header.Set("User-Agent", UserAgent)

	logger.Debug("executing request",
		zap.String("method", parts.Method),
		zap.String("url", redactURL(parts.URL)))

	resp, err := c.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			logger.Warn("request timed out", zap.Duration("timeout", c.timeout))
			return failure(start, timeoutDiagnostic(c.timeout))
		}
		logger.Warn("request failed without a response", zap.Error(err))
		return failure(start, networkDiagnostic(err))
	}
	defer resp.Body.Close()

	// Read response body with size limit to prevent memory exhaustion
	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseSize+1))
	if readErr != nil && isTimeout(readErr) {
		logger.Warn("request timed out while reading the body", zap.Duration("timeout", c.timeout))
		return failure(start, timeoutDiagnostic(c.timeout))
	}
	if int64(len(respBody)) > c.maxResponseSize {
		respBody = respBody[:c.maxResponseSize]
		logger.Warn("response body truncated", zap.Int64("limit", c.maxResponseSize))
	}

	out := &model.Response{
		Status:     resp.StatusCode,
		StatusText: statusText(resp),
		Headers:    flattenHeaders(resp.Header),
	}
	if readErr != nil {
		logger.Warn("failed to read response body", zap.Error(readErr))
		out.Data = model.Diagnostic{
			Error:   model.TagUnknown,
			Message: "The response body could not be read.",
			Details: readErr.Error(),
		}
	} else {
		out.Data = decodeBody(respBody)
	}
	out.ElapsedMs = time.Since(start).Milliseconds()
	return out
}

func failure(start time.Time, d model.Diagnostic) *model.Response {
	text := "Request failed"
	switch d.Error {
	case model.TagNetwork:
		text = "Network error - possibly CORS blocked or server unreachable"
	case model.TagTimeout:
		text = "Request timeout"
	case model.TagInvalidRequest:
		text = "Invalid request"
	}
	return &model.Response{
		Status:     0,
		StatusText: text,
		Data:       d,
		Headers:    map[string]string{},
		ElapsedMs:  time.Since(start).Milliseconds(),
	}
}

func networkDiagnostic(err error) model.Diagnostic {
	return model.Diagnostic{
		Error:      model.TagNetwork,
		Message:    "The request was blocked by cross-origin policy, or the server is unreachable.",
		Suggestion: "Try using the cURL command in your terminal instead, or contact the API provider about CORS configuration.",
		Details:    err.Error(),
	}
}

func timeoutDiagnostic(d time.Duration) model.Diagnostic {
	return model.Diagnostic{
		Error:      model.TagTimeout,
		Message:    fmt.Sprintf("The request took too long to complete (over %s).", d),
		Suggestion: "Check your internet connection and try again.",
	}
}

func invalidRequest(err error) model.Diagnostic {
	return model.Diagnostic{
		Error:      model.TagInvalidRequest,
		Message:    "The request could not be constructed.",
		Suggestion: "Check the endpoint URL and parameters.",
		Details:    err.Error(),
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// validHeader rejects what the transport would refuse to send: names that
// are not RFC 7230 tokens and values carrying control characters.
func validHeader(name, value string) error {
	if name == "" {
		return errors.New("empty header name")
	}
	for i := 0; i < len(name); i++ {
		if !isTokenChar(name[i]) {
			return fmt.Errorf("invalid header field name %q", name)
		}
	}
	for i := 0; i < len(value); i++ {
		if b := value[i]; (b < ' ' && b != '\t') || b == 0x7f {
			return fmt.Errorf("invalid header field value for %q", name)
		}
	}
	return nil
}

func isTokenChar(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	}
	return strings.IndexByte("!#$%&'*+-.^_`|~", b) >= 0
}

// statusText returns the reason phrase without the numeric code
func statusText(resp *http.Response) string {
	if text := strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)+" "); text != "" && text != resp.Status {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for key, values := range h {
		if len(values) > 0 {
			out[key] = strings.Join(values, ", ")
		}
	}
	return out
}

// decodeBody parses JSON bodies and keeps anything else as text
func decodeBody(b []byte) any {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		return string(b)
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return string(b)
	}
	return v
}

// redactURL hides the api_key value for logging
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Has(request.APIKeyParam) {
		q.Set(request.APIKeyParam, "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// validateURL checks the URL for potential SSRF vulnerabilities
func validateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %s (only http and https are allowed)", parsed.Scheme)
	}

	hostname := parsed.Hostname()
	if hostname == "" {
		return fmt.Errorf("URL must have a hostname")
	}

	// Block cloud metadata endpoints (common SSRF targets)
	if isCloudMetadataEndpoint(hostname) {
		return fmt.Errorf("blocked request to cloud metadata endpoint: %s", hostname)
	}

	if isPrivateOrReservedHost(hostname) {
		logger.Debug("request targets a private or loopback address", zap.String("host", hostname))
	}
	return nil
}

// isPrivateOrReservedHost reports loopback, private and link-local addresses
func isPrivateOrReservedHost(hostname string) bool {
	if strings.EqualFold(hostname, "localhost") {
		return true
	}
	ip := net.ParseIP(hostname)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsUnspecified()
}

func isCloudMetadataEndpoint(hostname string) bool {
	metadataHosts := map[string]bool{
		"169.254.169.254":          true, // AWS, GCP, Azure
		"metadata.google.internal": true,
		"metadata.goog":            true,
		"100.100.100.200":          true, // Alibaba Cloud
		"169.254.170.2":            true, // AWS ECS task metadata
	}
	return metadataHosts[strings.ToLower(hostname)]
}
