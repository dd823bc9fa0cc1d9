package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedsharma/momentscli/internal/catalog"
	"github.com/vedsharma/momentscli/internal/model"
	"github.com/vedsharma/momentscli/internal/request"
	"github.com/vedsharma/momentscli/internal/sdk"
	"github.com/vedsharma/momentscli/internal/session"
	"github.com/vedsharma/momentscli/internal/showcase"
)

type stubExecutor struct {
	mu    sync.Mutex
	calls []request.Parts
	resp  *model.Response
}

func (s *stubExecutor) Send(_ context.Context, parts request.Parts) *model.Response {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, parts)
	return s.resp
}

func newTestServer(t *testing.T, exec *stubExecutor) *Server {
	t.Helper()
	if exec == nil {
		exec = &stubExecutor{resp: &model.Response{Status: 200, StatusText: "OK", Headers: map[string]string{}, Data: map[string]any{"ok": true}}}
	}
	server, err := NewServer(session.New(catalog.Default(), exec), nil, showcase.WithPicker(showcase.FirstPicker))
	require.NoError(t, err)
	return server
}

func do(t *testing.T, server *Server, method, path string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(b))
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := server.App().Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, v), string(body))
}

func TestHealthCheck(t *testing.T) {
	server := newTestServer(t, nil)

	resp := do(t, server, "GET", "/health", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result map[string]any
	decode(t, resp, &result)
	assert.Equal(t, "healthy", result["status"])
	assert.Equal(t, false, result["inFlight"])
}

func TestListEndpoints(t *testing.T) {
	server := newTestServer(t, nil)

	resp := do(t, server, "GET", "/api/endpoints", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var endpoints []catalog.Endpoint
	decode(t, resp, &endpoints)
	require.Len(t, endpoints, 4)
	assert.Equal(t, "moments", endpoints[0].ID)
}

func TestGetEndpoint(t *testing.T) {
	server := newTestServer(t, nil)

	resp := do(t, server, "GET", "/api/endpoints/reporting", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	var ep EndpointResponse
	decode(t, resp, &ep)
	assert.Equal(t, "GET", ep.Method)
	assert.Equal(t, "Unauthorized - The request requires authentication", ep.StatusCodes[401])

	resp = do(t, server, "GET", "/api/endpoints/nope", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	var errResp ErrorResponse
	decode(t, resp, &errResp)
	assert.Equal(t, "error_404", errResp.Error)
}

func TestCommand(t *testing.T) {
	server := newTestServer(t, nil)

	resp := do(t, server, "POST", "/api/command", ExplorerRequest{Endpoint: "moments", APIKey: "abc123"})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result CommandResponse
	decode(t, resp, &result)
	assert.Equal(t, "https://api.adspostx.com/native/v2/offers.json?api_key=abc123", result.URL)
	assert.Equal(t, "POST", result.Method)
	assert.True(t, strings.HasPrefix(result.Command, `curl -X POST "https://api.adspostx.com/native/v2/offers.json?api_key=abc123"`))
	assert.Contains(t, result.Body, `"dev":"1"`)
	assert.Equal(t, "application/json", result.Headers["Content-Type"])
}

func TestCommandRequiresEndpoint(t *testing.T) {
	server := newTestServer(t, nil)

	resp := do(t, server, "POST", "/api/command", ExplorerRequest{APIKey: "abc123"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestApplyPayload(t *testing.T) {
	server := newTestServer(t, nil)

	resp := do(t, server, "POST", "/api/payload/apply", ExplorerRequest{
		Endpoint: "moments",
		Payload:  `{"body": {"dev": "0"}}`,
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result PayloadResponse
	decode(t, resp, &result)
	v, ok := result.Overrides.Field("dev")
	assert.True(t, ok)
	assert.Equal(t, "0", v)
	assert.Contains(t, result.Payload, `"dev": "0"`)
}

func TestApplyPayloadRejectsMalformedJSON(t *testing.T) {
	server := newTestServer(t, nil)

	resp := do(t, server, "POST", "/api/payload/apply", ExplorerRequest{
		Endpoint: "moments",
		Payload:  `{"body": `,
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var errResp ErrorResponse
	decode(t, resp, &errResp)
	assert.Equal(t, "invalid_request", errResp.Error)
	assert.Contains(t, errResp.Message, "invalid json")
}

func TestExecute(t *testing.T) {
	exec := &stubExecutor{resp: &model.Response{Status: 401, StatusText: "Unauthorized", Headers: map[string]string{}, Data: map[string]any{"error": "bad key"}}}
	server := newTestServer(t, exec)

	resp := do(t, server, "GET", "/api/response", nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp = do(t, server, "POST", "/api/execute", ExplorerRequest{Endpoint: "moments"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, exec.calls)

	resp = do(t, server, "POST", "/api/execute", ExplorerRequest{Endpoint: "moments", APIKey: "abc123"})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	var result model.Response
	decode(t, resp, &result)
	assert.Equal(t, 401, result.Status)
	assert.Equal(t, "Unauthorized", result.StatusText)
	require.Len(t, exec.calls, 1)
	assert.Equal(t, "https://api.adspostx.com/native/v2/offers.json?api_key=abc123", exec.calls[0].URL)

	resp = do(t, server, "GET", "/api/response", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	var last model.Response
	decode(t, resp, &last)
	assert.Equal(t, 401, last.Status)
}

func TestExecuteTransportFailureIsNotAnAPIError(t *testing.T) {
	exec := &stubExecutor{resp: &model.Response{
		Status:     0,
		StatusText: "Network error - possibly CORS blocked or server unreachable",
		Headers:    map[string]string{},
		Data:       model.Diagnostic{Error: model.TagNetwork, Message: "unreachable"},
	}}
	server := newTestServer(t, exec)

	resp := do(t, server, "POST", "/api/execute", ExplorerRequest{Endpoint: "reporting", APIKey: "k"})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result map[string]any
	decode(t, resp, &result)
	assert.Equal(t, float64(0), result["status"])
	data := result["data"].(map[string]any)
	assert.Equal(t, model.TagNetwork, data["error"])
}

func TestShowcasePageBootstrapsSDK(t *testing.T) {
	server := newTestServer(t, nil)

	resp := do(t, server, "GET", "/showcase", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	page := string(body)
	assert.Contains(t, page, "Premium Wireless Headphones")
	assert.Contains(t, page, sdk.ScriptID)
	assert.Contains(t, page, sdk.ConfigGlobal)
	assert.Contains(t, page, sdk.DefaultAcct)

	// ops were embedded in the page, not left pending
	resp = do(t, server, "GET", "/api/showcase", nil)
	var view ShowcaseView
	decode(t, resp, &view)
	assert.Empty(t, view.Ops)
	assert.Equal(t, showcase.StepBrowsing, view.Step)
}

func TestExplorerPage(t *testing.T) {
	server := newTestServer(t, nil)

	resp := do(t, server, "GET", "/", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Moments API")
}

func TestShowcaseFlowReportsConversion(t *testing.T) {
	server := newTestServer(t, nil)
	do(t, server, "GET", "/showcase", nil)

	resp := do(t, server, "POST", "/api/showcase/cart", map[string]string{"productId": "1"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var view ShowcaseView
	decode(t, resp, &view)
	assert.Equal(t, showcase.StepCart, view.Step)
	require.NotNil(t, view.Offer)
	assert.Len(t, view.Cart, 1)

	resp = do(t, server, "PUT", "/api/showcase/customer", showcase.Customer{Email: "a@b.test", FirstName: "Ada"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	for _, want := range []showcase.Step{showcase.StepCheckout, showcase.StepPayment, showcase.StepSuccess} {
		resp = do(t, server, "POST", "/api/showcase/next", nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		view = ShowcaseView{}
		decode(t, resp, &view)
		assert.Equal(t, want, view.Step)
	}

	require.NotNil(t, view.Order)
	assert.Equal(t, "USD", view.Order.Currency)
	assert.Len(t, view.Order.ID, 8)

	var user map[string]any
	var invoked bool
	for _, op := range view.Ops {
		switch {
		case op.Kind == sdk.OpGlobal && op.Name == sdk.UserGlobal:
			require.NoError(t, json.Unmarshal(op.Value, &user))
		case op.Kind == sdk.OpInvoke:
			invoked = op.Call.Function == sdk.InitFunction
		}
	}
	assert.True(t, invoked)
	assert.Equal(t, view.Order.ID, user["orderId"])
	assert.Equal(t, "a@b.test", user["email"])
	assert.Equal(t, "Ada", user["firstName"])

	resp = do(t, server, "POST", "/api/showcase/next", nil)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp = do(t, server, "POST", "/api/showcase/reset", nil)
	view = ShowcaseView{}
	decode(t, resp, &view)
	assert.Equal(t, showcase.StepBrowsing, view.Step)
	assert.Empty(t, view.Cart)
	assert.Nil(t, view.Order)
}

func TestShowcaseCartErrors(t *testing.T) {
	server := newTestServer(t, nil)

	resp := do(t, server, "POST", "/api/showcase/cart", map[string]string{"productId": "999"})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	do(t, server, "POST", "/api/showcase/cart", map[string]string{"productId": "2"})
	resp = do(t, server, "DELETE", "/api/showcase/cart/2", nil)
	var view ShowcaseView
	decode(t, resp, &view)
	assert.Empty(t, view.Cart)
	assert.Equal(t, 0.0, view.Total)
}

func TestReportConversionEndpoint(t *testing.T) {
	server := newTestServer(t, nil)

	resp := do(t, server, "POST", "/api/showcase/conversion", map[string]any{"orderId": "abc", "orderValue": 10})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var view ShowcaseView
	decode(t, resp, &view)
	require.NotEmpty(t, view.Ops)
	last := view.Ops[len(view.Ops)-1]
	assert.Equal(t, sdk.OpInvoke, last.Kind)
}
