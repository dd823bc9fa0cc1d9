// Package request turns an endpoint definition and the user's overrides into
// the request that is executed and into an equivalent curl command.
//
// Both outputs are computed from the same Parts value so that the executed
// request and the command text cannot drift apart. Building is pure: no
// clocks, counters or randomness.
package request

import (
	"net/url"
	"strings"

	"github.com/vedsharma/momentscli/internal/catalog"
	"github.com/vedsharma/momentscli/internal/model"
	"github.com/vedsharma/momentscli/internal/params"
)

// APIKeyParam is the query parameter carrying the credential on every endpoint
const APIKeyParam = "api_key"

// Parts is a fully assembled request
type Parts struct {
	Method  string
	URL     string
	Headers []catalog.Header
	// Body is nil when no body is attached
	Body *model.Object
}

// HeaderMap returns the headers as a map
func (p Parts) HeaderMap() map[string]string {
	out := make(map[string]string, len(p.Headers))
	for _, h := range p.Headers {
		out[h.Name] = h.Value
	}
	return out
}

// Header returns the value of a header, matching the name case-insensitively
func (p Parts) Header(name string) (string, bool) {
	for _, h := range p.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}

// BodyJSON returns the compact JSON body, or nil when there is none
func (p Parts) BodyJSON() ([]byte, error) {
	if p.Body == nil {
		return nil, nil
	}
	return p.Body.MarshalJSON()
}

// BuildParts assembles url, headers and body.
//
// Query order is api_key first, then every default query parameter with a
// non-empty effective value, then the active dynamic query entries. Dynamic
// headers overlay the static ones by name. The body is only attached when the
// endpoint requires one and at least one field contributes.
func BuildParts(ep catalog.Endpoint, apiKey string, o *params.Overrides) Parts {
	if o == nil {
		o = params.New()
	}
	return Parts{
		Method:  ep.Method,
		URL:     ep.BaseURL + "?" + buildQuery(ep, apiKey, o),
		Headers: buildHeaders(ep, o),
		Body:    buildBody(ep, o),
	}
}

func buildQuery(ep catalog.Endpoint, apiKey string, o *params.Overrides) string {
	var b strings.Builder
	appendParam(&b, APIKeyParam, apiKey)

	for _, q := range ep.QueryParams {
		if q.Name == APIKeyParam {
			continue
		}
		if v := o.QueryValue(q); v != "" {
			appendParam(&b, q.Name, v)
		}
	}

	for _, kv := range o.DynamicQuery {
		if kv.Active() {
			appendParam(&b, kv.Key, kv.Value)
		}
	}
	return b.String()
}

func appendParam(b *strings.Builder, key, value string) {
	if b.Len() > 0 {
		b.WriteByte('&')
	}
	b.WriteString(url.QueryEscape(key))
	b.WriteByte('=')
	b.WriteString(url.QueryEscape(value))
}

func buildHeaders(ep catalog.Endpoint, o *params.Overrides) []catalog.Header {
	headers := make([]catalog.Header, len(ep.Headers), len(ep.Headers)+len(o.DynamicHeaders))
	copy(headers, ep.Headers)

	for _, kv := range o.DynamicHeaders {
		if !kv.Active() {
			continue
		}
		headers = setHeader(headers, kv.Key, kv.Value)
	}
	return headers
}

// setHeader replaces an existing header in place or appends a new one
func setHeader(headers []catalog.Header, name, value string) []catalog.Header {
	for i := range headers {
		if strings.EqualFold(headers[i].Name, name) {
			headers[i].Value = value
			return headers
		}
	}
	return append(headers, catalog.Header{Name: name, Value: value})
}

func buildBody(ep catalog.Endpoint, o *params.Overrides) *model.Object {
	if !ep.RequiresBody {
		return nil
	}

	body := model.NewObject()
	for _, f := range ep.Body {
		if !o.Enabled(f.Name) {
			continue
		}
		if v, ok := o.BodyValue(f); ok {
			body.Set(f.Name, v)
		}
	}

	for _, kv := range o.DynamicBody {
		if kv.Active() {
			body.Set(kv.Key, kv.Value)
		}
	}

	if body.Len() == 0 {
		return nil
	}
	return body
}
