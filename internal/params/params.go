package params

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/vedsharma/momentscli/internal/catalog"
	"github.com/vedsharma/momentscli/internal/model"
)

var (
	// ErrInvalidJSON is returned when a raw JSON edit cannot be parsed. The
	// overrides are left untouched.
	ErrInvalidJSON = errors.New("invalid json")

	// ErrUnknownField is returned when a field is not part of the endpoint schema
	ErrUnknownField = errors.New("unknown field")
)

// List names one of the dynamic parameter lists
type List string

const (
	Query   List = "query"
	Headers List = "headers"
	Body    List = "body"
)

// KeyValue is a user-added parameter. ID is local to the list and never sent.
type KeyValue struct {
	ID    string `json:"id"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Active reports whether the entry contributes to a request
func (kv KeyValue) Active() bool {
	return kv.Key != "" && kv.Value != ""
}

// Overrides holds the user's edits for the selected endpoint
type Overrides struct {
	FieldValues    map[string]string `json:"field_values"`
	DynamicQuery   []KeyValue        `json:"dynamic_query"`
	DynamicHeaders []KeyValue        `json:"dynamic_headers"`
	DynamicBody    []KeyValue        `json:"dynamic_body"`
	EnabledBody    map[string]bool   `json:"enabled_body"`
}

// New creates empty overrides
func New() *Overrides {
	return &Overrides{
		FieldValues: make(map[string]string),
		EnabledBody: make(map[string]bool),
	}
}

// Reset clears every edit
func (o *Overrides) Reset() {
	*o = *New()
}

// Clone returns a deep copy
func (o *Overrides) Clone() *Overrides {
	c := New()
	for k, v := range o.FieldValues {
		c.FieldValues[k] = v
	}
	for k, v := range o.EnabledBody {
		c.EnabledBody[k] = v
	}
	c.DynamicQuery = append([]KeyValue(nil), o.DynamicQuery...)
	c.DynamicHeaders = append([]KeyValue(nil), o.DynamicHeaders...)
	c.DynamicBody = append([]KeyValue(nil), o.DynamicBody...)
	return c
}

// SetField stores a field value. An empty string is a real value.
func (o *Overrides) SetField(key, value string) {
	if o.FieldValues == nil {
		o.FieldValues = make(map[string]string)
	}
	o.FieldValues[key] = value
}

// UnsetField removes a field value so the schema default applies again
func (o *Overrides) UnsetField(key string) {
	delete(o.FieldValues, key)
}

// Field returns the stored value for key
func (o *Overrides) Field(key string) (string, bool) {
	v, ok := o.FieldValues[key]
	return v, ok
}

// SetFieldFor stores a value after checking it against the endpoint schema.
// Object fields must be given a JSON object.
func (o *Overrides) SetFieldFor(ep catalog.Endpoint, key, value string) error {
	if f, ok := ep.BodyField(key); ok {
		if f.Kind == catalog.KindObject {
			if _, err := model.ParseObject([]byte(value)); err != nil {
				return fmt.Errorf("%w: field %s expects a JSON object", ErrInvalidJSON, key)
			}
		}
		o.SetField(key, value)
		return nil
	}
	if _, ok := ep.QueryParam(key); ok {
		o.SetField(key, value)
		return nil
	}
	return fmt.Errorf("%w: %s is not a parameter of %s", ErrUnknownField, key, ep.ID)
}

// SetEnabled toggles a body schema field
func (o *Overrides) SetEnabled(field string, enabled bool) {
	if o.EnabledBody == nil {
		o.EnabledBody = make(map[string]bool)
	}
	o.EnabledBody[field] = enabled
}

// Enabled reports whether a body field is sent. Fields are enabled unless
// explicitly switched off.
func (o *Overrides) Enabled(field string) bool {
	enabled, ok := o.EnabledBody[field]
	return !ok || enabled
}

// Entries returns the dynamic entries of a list in insertion order
func (o *Overrides) Entries(list List) []KeyValue {
	return append([]KeyValue(nil), *o.list(list)...)
}

// Add appends a dynamic entry and returns it with its generated id
func (o *Overrides) Add(list List, key, value string) KeyValue {
	kv := KeyValue{ID: uuid.New().String()[:8], Key: key, Value: value}
	l := o.list(list)
	*l = append(*l, kv)
	return kv
}

// Update changes the key and value of an existing entry
func (o *Overrides) Update(list List, id, key, value string) error {
	l := o.list(list)
	for i := range *l {
		if (*l)[i].ID == id {
			(*l)[i].Key = key
			(*l)[i].Value = value
			return nil
		}
	}
	return fmt.Errorf("no %s parameter with id %s", list, id)
}

// Remove deletes an entry by id, reporting whether it existed
func (o *Overrides) Remove(list List, id string) bool {
	l := o.list(list)
	for i, kv := range *l {
		if kv.ID == id {
			*l = append((*l)[:i], (*l)[i+1:]...)
			return true
		}
	}
	return false
}

func (o *Overrides) list(list List) *[]KeyValue {
	switch list {
	case Query:
		return &o.DynamicQuery
	case Headers:
		return &o.DynamicHeaders
	case Body:
		return &o.DynamicBody
	default:
		panic("params: unknown list " + string(list))
	}
}
