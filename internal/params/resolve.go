package params

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vedsharma/momentscli/internal/catalog"
	"github.com/vedsharma/momentscli/internal/model"
)

// QueryValue returns the effective value of a default query parameter: the
// user's value when set, the schema default otherwise
func (o *Overrides) QueryValue(q catalog.QueryParam) string {
	if v, ok := o.Field(q.Name); ok {
		return v
	}
	return q.Default
}

// BodyValue returns the effective typed value of a body field. String fields
// resolve to a string and object fields to a decoded JSON object. The second
// result is false when the field has neither a value nor a default.
func (o *Overrides) BodyValue(f catalog.BodyField) (any, bool) {
	raw, ok := o.Field(f.Name)
	if !ok {
		if f.Default == nil {
			return nil, false
		}
		return f.Default, true
	}
	if f.Kind != catalog.KindObject {
		return raw, true
	}
	obj, err := model.ParseObject([]byte(raw))
	if err != nil {
		return raw, true
	}
	return obj, true
}

// Payload renders the editable JSON view of a request: the query parameters
// that carry a value followed by a "body" object when the endpoint sends one
func (o *Overrides) Payload(ep catalog.Endpoint) (string, error) {
	payload := model.NewObject()
	for _, q := range ep.QueryParams {
		if v := o.QueryValue(q); v != "" {
			payload.Set(q.Name, v)
		}
	}
	if ep.RequiresBody {
		body := model.NewObject()
		for _, f := range ep.Body {
			if v, ok := o.BodyValue(f); ok {
				body.Set(f.Name, v)
			}
		}
		payload.Set("body", body)
	}
	return payload.Indent()
}

// ApplyPayload merges an edited JSON view back into the field values. Any
// parse failure discards the whole edit and returns ErrInvalidJSON.
func (o *Overrides) ApplyPayload(ep catalog.Endpoint, raw string) error {
	parsed, err := model.ParseObject([]byte(raw))
	if errors.Is(err, model.ErrNotObject) {
		return fmt.Errorf("%w: payload must be an object", ErrInvalidJSON)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	updates := make(map[string]string)
	for _, q := range ep.QueryParams {
		v, ok := parsed.Get(q.Name)
		if !ok || isEmpty(v) {
			continue
		}
		s, err := stringify(v)
		if err != nil {
			return err
		}
		updates[q.Name] = s
	}

	b, _ := parsed.Get("body")
	if body, ok := b.(*model.Object); ok {
		for _, f := range ep.Body {
			v, ok := body.Get(f.Name)
			if !ok {
				continue
			}
			s, err := stringify(v)
			if err != nil {
				return err
			}
			updates[f.Name] = s
		}
	}

	for k, v := range updates {
		o.SetField(k, v)
	}
	return nil
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	}
	return false
}

func stringify(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case *model.Object:
		b, err := t.MarshalJSON()
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}
		return string(b), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return string(b), nil
}
