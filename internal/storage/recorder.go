package storage

import (
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vedsharma/momentscli/internal/catalog"
	"github.com/vedsharma/momentscli/internal/logger"
	"github.com/vedsharma/momentscli/internal/model"
	"github.com/vedsharma/momentscli/internal/request"
	"go.uber.org/zap"
)

const redacted = "[REDACTED]"

// sensitiveHeaders is a list of headers that should be redacted before storing in history
var sensitiveHeaders = map[string]bool{
	// Standard authentication headers
	"authorization":       true,
	"proxy-authorization": true,
	"www-authenticate":    true,

	// Session and token headers
	"cookie":       true,
	"set-cookie":   true,
	"x-api-key":    true,
	"api-key":      true,
	"x-auth-token": true,
	"x-csrf-token": true,
	"x-xsrf-token": true,

	// Cloud credentials
	"x-amz-security-token":     true,
	"x-amz-credential":         true,
	"x-amz-signature":          true,
	"x-goog-iap-jwt-assertion": true,
	"x-ms-token-aad-id-token":  true,

	"x-access-token":  true,
	"x-refresh-token": true,
	"x-session-token": true,
	"x-secret-key":    true,
	"x-private-key":   true,
}

// sensitiveBodyPatterns contains patterns that suggest sensitive data in request bodies
var sensitiveBodyPatterns = []string{
	"password", "passwd", "pwd",
	"secret", "token", "api_key", "apikey",
	"private_key", "privatekey",
	"credit_card", "creditcard", "card_number",
	"ssn", "social_security",
	"access_token", "refresh_token",
	"client_secret",
}

// FilterSensitiveHeaders returns a copy of headers with sensitive values redacted
func FilterSensitiveHeaders(headers map[string]string) map[string]string {
	if headers == nil {
		return nil
	}

	filtered := make(map[string]string, len(headers))
	for k, v := range headers {
		if sensitiveHeaders[strings.ToLower(k)] {
			filtered[k] = redacted
		} else {
			filtered[k] = v
		}
	}
	return filtered
}

// RedactURL replaces the api_key query value. The rest of the query is kept
// byte for byte so that parameter order survives.
func RedactURL(raw string) string {
	base, query, ok := strings.Cut(raw, "?")
	if !ok {
		return raw
	}
	pairs := strings.Split(query, "&")
	for i, pair := range pairs {
		key, _, _ := strings.Cut(pair, "=")
		if k, err := url.QueryUnescape(key); err == nil && k == request.APIKeyParam {
			pairs[i] = key + "=" + redacted
		}
	}
	return base + "?" + strings.Join(pairs, "&")
}

// SensitiveBody reports whether body looks like it carries credentials
func SensitiveBody(body string) bool {
	lower := strings.ToLower(body)
	for _, pattern := range sensitiveBodyPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

// Recorder stores executions in the history with credentials redacted
type Recorder struct {
	store *SQLiteStorage
	now   func() time.Time
}

// NewRecorder wraps store
func NewRecorder(store *SQLiteStorage) *Recorder {
	return &Recorder{store: store, now: time.Now}
}

// Record implements session.Recorder
func (r *Recorder) Record(ep catalog.Endpoint, parts request.Parts, resp *model.Response) error {
	body, err := parts.BodyJSON()
	if err != nil {
		return err
	}
	if SensitiveBody(string(body)) {
		logger.Warn("request body may contain sensitive data and is stored in history",
			zap.String("endpoint", ep.ID))
	}

	var stored *model.Response
	if resp != nil {
		stored = &model.Response{
			Status:     resp.Status,
			StatusText: resp.StatusText,
			Data:       resp.Data,
			Headers:    FilterSensitiveHeaders(resp.Headers),
			ElapsedMs:  resp.ElapsedMs,
		}
	}

	return r.store.AddToHistory(model.Request{
		ID:         uuid.New().String()[:8],
		Timestamp:  r.now(),
		EndpointID: ep.ID,
		Method:     parts.Method,
		URL:        RedactURL(parts.URL),
		Headers:    FilterSensitiveHeaders(parts.HeaderMap()),
		Body:       string(body),
		Response:   stored,
	})
}
