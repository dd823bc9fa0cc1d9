// Package session owns the explorer state: the selected endpoint, the API
// key, the parameter overrides and the most recent response.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/vedsharma/momentscli/internal/catalog"
	"github.com/vedsharma/momentscli/internal/logger"
	"github.com/vedsharma/momentscli/internal/model"
	"github.com/vedsharma/momentscli/internal/params"
	"github.com/vedsharma/momentscli/internal/request"
	"go.uber.org/zap"
)

var (
	ErrMissingAPIKey = errors.New("an API key is required")
	ErrNoEndpoint    = errors.New("no endpoint selected")
)

// Executor sends assembled requests
type Executor interface {
	Send(ctx context.Context, parts request.Parts) *model.Response
}

// Recorder observes completed executions
type Recorder interface {
	Record(ep catalog.Endpoint, parts request.Parts, resp *model.Response) error
}

// State is the explorer state. The in-flight flag is advisory; concurrent
// runs are allowed and the last one to finish owns the response slot.
type State struct {
	catalog  *catalog.Catalog
	executor Executor
	recorder Recorder

	mu        sync.Mutex
	selected  *catalog.Endpoint
	apiKey    string
	overrides *params.Overrides
	last      *model.Response

	inFlight atomic.Int32
}

// Option configures a State
type Option func(*State)

// WithRecorder records every completed execution
func WithRecorder(r Recorder) Option {
	return func(s *State) { s.recorder = r }
}

// New creates a state with nothing selected
func New(c *catalog.Catalog, exec Executor, opts ...Option) *State {
	s := &State{
		catalog:   c,
		executor:  exec,
		overrides: params.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog returns the endpoint catalog
func (s *State) Catalog() *catalog.Catalog {
	return s.catalog
}

// Select switches endpoints. Overrides and the last response never carry over.
func (s *State) Select(id string) (catalog.Endpoint, error) {
	ep, err := s.catalog.Get(id)
	if err != nil {
		return catalog.Endpoint{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = &ep
	s.overrides.Reset()
	s.last = nil
	return ep, nil
}

// Selected returns the current endpoint
func (s *State) Selected() (catalog.Endpoint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return catalog.Endpoint{}, false
	}
	return *s.selected, true
}

func (s *State) SetAPIKey(key string) {
	s.mu.Lock()
	s.apiKey = key
	s.mu.Unlock()
}

func (s *State) APIKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apiKey
}

// Update applies fn to the overrides of the selected endpoint
func (s *State) Update(fn func(ep catalog.Endpoint, o *params.Overrides) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return ErrNoEndpoint
	}
	return fn(*s.selected, s.overrides)
}

// Overrides returns a copy of the current overrides
func (s *State) Overrides() *params.Overrides {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overrides.Clone()
}

// Parts builds the request for the current selection
func (s *State) Parts() (request.Parts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return request.Parts{}, ErrNoEndpoint
	}
	return request.BuildParts(*s.selected, s.apiKey, s.overrides), nil
}

// CommandText renders the current selection as a curl command
func (s *State) CommandText() (string, error) {
	parts, err := s.Parts()
	if err != nil {
		return "", err
	}
	return parts.CommandText(), nil
}

// Payload renders the raw JSON editor view of the current selection
func (s *State) Payload() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return "", ErrNoEndpoint
	}
	return s.overrides.Payload(*s.selected)
}

// ApplyPayload merges a raw JSON edit. A malformed edit is discarded and the
// prior state kept.
func (s *State) ApplyPayload(raw string) error {
	err := s.Update(func(ep catalog.Endpoint, o *params.Overrides) error {
		return o.ApplyPayload(ep, raw)
	})
	if errors.Is(err, params.ErrInvalidJSON) {
		logger.Warn("discarding malformed payload edit", zap.Error(err))
	}
	return err
}

// InFlight reports whether an execution is running
func (s *State) InFlight() bool {
	return s.inFlight.Load() > 0
}

// Last returns the most recent response
func (s *State) Last() *model.Response {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Run executes the current selection. The key and the selection are checked
// before the executor is reached.
func (s *State) Run(ctx context.Context) (*model.Response, error) {
	s.mu.Lock()
	if s.apiKey == "" {
		s.mu.Unlock()
		return nil, ErrMissingAPIKey
	}
	if s.selected == nil {
		s.mu.Unlock()
		return nil, ErrNoEndpoint
	}
	ep := *s.selected
	parts := request.BuildParts(ep, s.apiKey, s.overrides)
	s.mu.Unlock()

	return s.execute(ctx, ep, parts), nil
}

// Request is a complete execution described by the caller
type Request struct {
	EndpointID string
	APIKey     string
	Overrides  *params.Overrides
}

// Execute loads req as the current state and runs it. Loading and building
// happen under one lock so concurrent callers never mix selections.
func (s *State) Execute(ctx context.Context, req Request) (*model.Response, error) {
	if req.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if req.EndpointID == "" {
		return nil, ErrNoEndpoint
	}
	ep, err := s.catalog.Get(req.EndpointID)
	if err != nil {
		return nil, err
	}
	o := params.New()
	if req.Overrides != nil {
		o = req.Overrides.Clone()
	}

	s.mu.Lock()
	s.selected = &ep
	s.apiKey = req.APIKey
	s.overrides = o
	parts := request.BuildParts(ep, s.apiKey, s.overrides)
	s.mu.Unlock()

	return s.execute(ctx, ep, parts), nil
}

func (s *State) execute(ctx context.Context, ep catalog.Endpoint, parts request.Parts) *model.Response {
	s.inFlight.Add(1)
	defer s.inFlight.Add(-1)

	resp := s.send(ctx, parts)

	s.mu.Lock()
	s.last = resp
	s.mu.Unlock()

	if s.recorder != nil {
		if err := s.recorder.Record(ep, parts, resp); err != nil {
			logger.Warn("failed to record execution", zap.String("endpoint", ep.ID), zap.Error(err))
		}
	}
	return resp
}

// send shields callers from executor panics
func (s *State) send(ctx context.Context, parts request.Parts) (resp *model.Response) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("executor panicked", zap.Any("panic", r))
			resp = &model.Response{
				Status:     0,
				StatusText: "Request failed",
				Headers:    map[string]string{},
				Data: model.Diagnostic{
					Error:   model.TagUnknown,
					Message: "The request failed unexpectedly.",
					Details: fmt.Sprint(r),
				},
			}
		}
	}()
	resp = s.executor.Send(ctx, parts)
	if resp == nil {
		resp = &model.Response{Headers: map[string]string{}, Data: model.Diagnostic{Error: model.TagUnknown, Message: "No response."}}
	}
	return resp
}
