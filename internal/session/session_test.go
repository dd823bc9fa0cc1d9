package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedsharma/momentscli/internal/catalog"
	apihttp "github.com/vedsharma/momentscli/internal/http"
	"github.com/vedsharma/momentscli/internal/model"
	"github.com/vedsharma/momentscli/internal/params"
	"github.com/vedsharma/momentscli/internal/request"
)

type fakeExecutor struct {
	mu     sync.Mutex
	calls  []request.Parts
	resp   *model.Response
	panics bool
	during func()
}

func (f *fakeExecutor) Send(_ context.Context, parts request.Parts) *model.Response {
	f.mu.Lock()
	f.calls = append(f.calls, parts)
	f.mu.Unlock()
	if f.during != nil {
		f.during()
	}
	if f.panics {
		panic("boom")
	}
	return f.resp
}

type fakeRecorder struct {
	endpoints []string
	err       error
}

func (f *fakeRecorder) Record(ep catalog.Endpoint, _ request.Parts, _ *model.Response) error {
	f.endpoints = append(f.endpoints, ep.ID)
	return f.err
}

func okResponse() *model.Response {
	return &model.Response{Status: 200, StatusText: "OK", Headers: map[string]string{}, Data: map[string]any{}}
}

func TestRunRequiresKeyAndSelection(t *testing.T) {
	exec := &fakeExecutor{resp: okResponse()}
	s := New(catalog.Default(), exec)

	_, err := s.Run(context.Background())
	assert.True(t, errors.Is(err, ErrMissingAPIKey))

	s.SetAPIKey("abc123")
	_, err = s.Run(context.Background())
	assert.True(t, errors.Is(err, ErrNoEndpoint))

	assert.Empty(t, exec.calls)
	assert.False(t, s.InFlight())
}

func TestRunStoresLastResponse(t *testing.T) {
	exec := &fakeExecutor{resp: okResponse()}
	rec := &fakeRecorder{}
	s := New(catalog.Default(), exec, WithRecorder(rec))
	s.SetAPIKey("abc123")
	_, err := s.Select("moments")
	require.NoError(t, err)

	exec.during = func() { assert.True(t, s.InFlight()) }
	resp, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Same(t, exec.resp, resp)
	assert.Same(t, resp, s.Last())
	assert.False(t, s.InFlight())
	assert.Equal(t, []string{"moments"}, rec.endpoints)

	require.Len(t, exec.calls, 1)
	assert.Equal(t, "https://api.adspostx.com/native/v2/offers.json?api_key=abc123", exec.calls[0].URL)

	cmd, err := s.CommandText()
	require.NoError(t, err)
	assert.Contains(t, cmd, exec.calls[0].URL)
}

func TestRecorderErrorDoesNotFailRun(t *testing.T) {
	s := New(catalog.Default(), &fakeExecutor{resp: okResponse()}, WithRecorder(&fakeRecorder{err: errors.New("disk full")}))
	s.SetAPIKey("k")
	_, _ = s.Select("reporting")

	resp, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)
}

func TestSelectResetsState(t *testing.T) {
	s := New(catalog.Default(), &fakeExecutor{resp: okResponse()})
	s.SetAPIKey("k")
	_, err := s.Select("moments")
	require.NoError(t, err)

	require.NoError(t, s.Update(func(ep catalog.Endpoint, o *params.Overrides) error {
		o.SetEnabled("country", false)
		o.Add(params.Query, "debug", "true")
		return o.SetFieldFor(ep, "placement", "checkout")
	}))
	_, err = s.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, s.Last())

	_, err = s.Select("moments")
	require.NoError(t, err)
	o := s.Overrides()
	assert.True(t, o.Enabled("country"))
	assert.Empty(t, o.Entries(params.Query))
	_, ok := o.Field("placement")
	assert.False(t, ok)
	assert.Nil(t, s.Last())

	_, err = s.Select("missing")
	assert.True(t, errors.Is(err, catalog.ErrUnknownEndpoint))
	ep, ok := s.Selected()
	require.True(t, ok)
	assert.Equal(t, "moments", ep.ID)
}

func TestOverridesReturnsCopy(t *testing.T) {
	s := New(catalog.Default(), &fakeExecutor{})
	_, _ = s.Select("moments")

	s.Overrides().SetField("country", "CA")
	_, ok := s.Overrides().Field("country")
	assert.False(t, ok)
}

func TestApplyPayloadKeepsStateOnBadJSON(t *testing.T) {
	s := New(catalog.Default(), &fakeExecutor{})
	assert.True(t, errors.Is(s.ApplyPayload(`{}`), ErrNoEndpoint))

	_, _ = s.Select("catalog")
	require.NoError(t, s.ApplyPayload(`{"category":"travel"}`))
	before, err := s.Payload()
	require.NoError(t, err)

	err = s.ApplyPayload(`{"category":`)
	assert.True(t, errors.Is(err, params.ErrInvalidJSON))
	after, _ := s.Payload()
	assert.Equal(t, before, after)
}

func TestExecutorPanicIsContained(t *testing.T) {
	s := New(catalog.Default(), &fakeExecutor{panics: true})
	s.SetAPIKey("k")
	_, _ = s.Select("moments")

	resp, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Status)
	d, ok := resp.Diagnostic()
	require.True(t, ok)
	assert.Equal(t, model.TagUnknown, d.Error)
	assert.False(t, s.InFlight())
}

func TestScenarioD_InFlightClearedOnTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := srv.URL
	srv.Close()

	ep := catalog.Endpoint{
		ID: "local", Method: "POST", BaseURL: base + "/offers.json",
		Body:         []catalog.BodyField{{Name: "dev", Default: "1", Kind: catalog.KindString}},
		RequiresBody: true,
	}
	c, err := catalog.New([]catalog.Endpoint{ep})
	require.NoError(t, err)

	s := New(c, apihttp.NewClient())
	s.SetAPIKey("k")
	_, err = s.Select("local")
	require.NoError(t, err)

	resp, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Status)
	d, ok := resp.Diagnostic()
	require.True(t, ok)
	assert.Equal(t, model.TagNetwork, d.Error)
	assert.False(t, s.InFlight())
	assert.Same(t, resp, s.Last())
}

func TestConcurrentRunsLastWriteWins(t *testing.T) {
	exec := &fakeExecutor{resp: okResponse()}
	s := New(catalog.Default(), exec)
	s.SetAPIKey("k")
	_, _ = s.Select("reporting")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Run(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.False(t, s.InFlight())
	assert.Len(t, exec.calls, 8)
	assert.Same(t, exec.resp, s.Last())
}

func TestExecuteLoadsRequest(t *testing.T) {
	exec := &fakeExecutor{resp: okResponse()}
	s := New(catalog.Default(), exec)

	_, err := s.Execute(context.Background(), Request{EndpointID: "moments"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	_, err = s.Execute(context.Background(), Request{APIKey: "k"})
	assert.ErrorIs(t, err, ErrNoEndpoint)
	_, err = s.Execute(context.Background(), Request{APIKey: "k", EndpointID: "nope"})
	assert.ErrorIs(t, err, catalog.ErrUnknownEndpoint)
	assert.Empty(t, exec.calls)

	o := params.New()
	o.SetField("limit", "3")
	resp, err := s.Execute(context.Background(), Request{EndpointID: "catalog", APIKey: "k", Overrides: o})
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)
	require.Len(t, exec.calls, 1)
	assert.Contains(t, exec.calls[0].URL, "api_key=k")

	ep, ok := s.Selected()
	require.True(t, ok)
	assert.Equal(t, "catalog", ep.ID)
	assert.Same(t, resp, s.Last())

	// the caller's overrides are not retained
	o.SetField("limit", "9")
	v, _ := s.Overrides().Field("limit")
	assert.Equal(t, "3", v)
}
