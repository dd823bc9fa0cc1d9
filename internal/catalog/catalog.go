package catalog

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/vedsharma/momentscli/internal/model"
	"gopkg.in/yaml.v3"
)

// ErrUnknownEndpoint is returned when an endpoint id is not in the catalog
var ErrUnknownEndpoint = errors.New("unknown endpoint")

// Kind is the declared primitive type of a body field, derived from the shape
// of its default value
type Kind string

const (
	KindString Kind = "string"
	KindObject Kind = "object"
)

// Header is a single static request header
type Header struct {
	Name  string `yaml:"name" json:"name"`
	Value string `yaml:"value" json:"value"`
}

// QueryParam is a default query parameter of an endpoint
type QueryParam struct {
	Name    string `yaml:"name" json:"name"`
	Default string `yaml:"default" json:"default"`
}

// BodyField is a default body field of an endpoint. Default is either a string
// or a *model.Object for nested objects such as the catalog filters.
type BodyField struct {
	Name    string `yaml:"name" json:"name"`
	Default any    `yaml:"default" json:"default"`
	Kind    Kind   `yaml:"kind,omitempty" json:"kind"`
}

// UnmarshalYAML keeps mapping defaults in the order they were written
func (f *BodyField) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Name    string    `yaml:"name"`
		Default yaml.Node `yaml:"default"`
		Kind    Kind      `yaml:"kind"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	f.Name, f.Kind, f.Default = raw.Name, raw.Kind, nil
	if raw.Default.Kind == 0 {
		return nil
	}
	v, err := yamlValue(&raw.Default)
	if err != nil {
		return fmt.Errorf("field %s: %w", raw.Name, err)
	}
	f.Default = v
	return nil
}

func yamlValue(n *yaml.Node) (any, error) {
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	if n.Kind != yaml.MappingNode {
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	}
	obj := model.NewObject()
	for i := 0; i+1 < len(n.Content); i += 2 {
		v, err := yamlValue(n.Content[i+1])
		if err != nil {
			return nil, err
		}
		obj.Set(n.Content[i].Value, v)
	}
	return obj, nil
}

// Endpoint is an immutable API operation exposed for testing
type Endpoint struct {
	ID           string       `yaml:"id" json:"id"`
	Name         string       `yaml:"name" json:"name"`
	Description  string       `yaml:"description" json:"description"`
	Method       string       `yaml:"method" json:"method"`
	BaseURL      string       `yaml:"url" json:"url"`
	DocsURL      string       `yaml:"docs_url,omitempty" json:"docs_url,omitempty"`
	Headers      []Header     `yaml:"headers" json:"headers"`
	QueryParams  []QueryParam `yaml:"query_params" json:"query_params"`
	Body         []BodyField  `yaml:"body" json:"body"`
	RequiresBody bool         `yaml:"requires_body" json:"requires_body"`
}

// BodyField looks up a body schema field by name
func (e Endpoint) BodyField(name string) (BodyField, bool) {
	for _, f := range e.Body {
		if f.Name == name {
			return f, true
		}
	}
	return BodyField{}, false
}

// QueryParam looks up a default query parameter by name
func (e Endpoint) QueryParam(name string) (QueryParam, bool) {
	for _, q := range e.QueryParams {
		if q.Name == name {
			return q, true
		}
	}
	return QueryParam{}, false
}

// Catalog is an ordered set of endpoints
type Catalog struct {
	endpoints []Endpoint
}

type catalogFile struct {
	Endpoints []Endpoint `yaml:"endpoints"`
}

// New builds a catalog from endpoints, normalizing field kinds and validating
// every definition
func New(endpoints []Endpoint) (*Catalog, error) {
	c := &Catalog{endpoints: make([]Endpoint, 0, len(endpoints))}
	for _, ep := range endpoints {
		c.endpoints = append(c.endpoints, normalize(ep))
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads a catalog from a YAML file
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}
	if len(file.Endpoints) == 0 {
		return nil, fmt.Errorf("catalog %s defines no endpoints", path)
	}

	return New(file.Endpoints)
}

// All returns the endpoints in declaration order
func (c *Catalog) All() []Endpoint {
	out := make([]Endpoint, len(c.endpoints))
	copy(out, c.endpoints)
	return out
}

// Get returns the endpoint with the given id
func (c *Catalog) Get(id string) (Endpoint, error) {
	for _, ep := range c.endpoints {
		if ep.ID == id {
			return ep, nil
		}
	}
	return Endpoint{}, fmt.Errorf("%w: %s", ErrUnknownEndpoint, id)
}

// Validate checks ids, methods and base URLs
func (c *Catalog) Validate() error {
	seen := make(map[string]bool)
	for _, ep := range c.endpoints {
		if ep.ID == "" {
			return fmt.Errorf("endpoint %q has no id", ep.Name)
		}
		if seen[ep.ID] {
			return fmt.Errorf("duplicate endpoint id: %s", ep.ID)
		}
		seen[ep.ID] = true

		if ep.Method != "GET" && ep.Method != "POST" {
			return fmt.Errorf("endpoint %s: unsupported method %q (only GET and POST)", ep.ID, ep.Method)
		}

		u, err := url.Parse(ep.BaseURL)
		if err != nil {
			return fmt.Errorf("endpoint %s: invalid url: %w", ep.ID, err)
		}
		if !u.IsAbs() || u.Host == "" {
			return fmt.Errorf("endpoint %s: url must be absolute", ep.ID)
		}
		if u.RawQuery != "" || strings.Contains(ep.BaseURL, "?") {
			return fmt.Errorf("endpoint %s: url must not carry a query string", ep.ID)
		}

		fields := make(map[string]bool)
		for _, f := range ep.Body {
			if fields[f.Name] {
				return fmt.Errorf("endpoint %s: duplicate body field %s", ep.ID, f.Name)
			}
			fields[f.Name] = true
		}
	}
	return nil
}

func normalize(ep Endpoint) Endpoint {
	ep.Method = strings.ToUpper(strings.TrimSpace(ep.Method))

	body := make([]BodyField, len(ep.Body))
	for i, f := range ep.Body {
		switch v := f.Default.(type) {
		case *model.Object:
			f.Kind = KindObject
		case map[string]any:
			f.Default = model.ObjectFromMap(v)
			f.Kind = KindObject
		case nil:
			f.Default = ""
			f.Kind = KindString
		case string:
			f.Kind = KindString
		default:
			f.Default = fmt.Sprint(v)
			f.Kind = KindString
		}
		body[i] = f
	}
	ep.Body = body
	return ep
}
