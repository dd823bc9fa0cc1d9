package format

import (
	"bytes"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedsharma/momentscli/internal/catalog"
	"github.com/vedsharma/momentscli/internal/model"
	"github.com/vedsharma/momentscli/internal/showcase"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevNoColor := Out, color.NoColor
	Out, color.NoColor = &buf, true
	t.Cleanup(func() { Out, color.NoColor = prevOut, prevNoColor })
	return &buf
}

func TestStatusDescription(t *testing.T) {
	assert.Equal(t, "OK - The request was successful", StatusDescription(200))
	assert.Equal(t, "Unprocessable Entity - The request sent invalid inputs", StatusDescription(422))
	assert.Equal(t, "Unknown status code", StatusDescription(500))
	assert.Equal(t, "Unknown status code", StatusDescription(0))
}

func TestPrintResponse(t *testing.T) {
	buf := capture(t)
	PrintResponse(&model.Response{
		Status:     401,
		StatusText: "Unauthorized",
		Data:       map[string]any{"error": "bad key"},
		Headers:    map[string]string{"X-B": "2", "X-A": "1"},
		ElapsedMs:  12,
	}, true)

	out := buf.String()
	assert.Contains(t, out, "401 Unauthorized\n")
	assert.Contains(t, out, "Unauthorized - The request requires authentication")
	assert.Contains(t, out, "Time: 12ms")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("X-A")), bytes.Index(buf.Bytes(), []byte("X-B")))
	assert.Contains(t, out, "{\n  \"error\": \"bad key\"\n}")
}

func TestPrintTransportFailure(t *testing.T) {
	buf := capture(t)
	PrintResponse(&model.Response{
		Status:     0,
		StatusText: "Request timeout",
		Headers:    map[string]string{},
		Data: model.Diagnostic{
			Error:      model.TagTimeout,
			Message:    "The request took too long to complete.",
			Suggestion: "Check your internet connection and try again.",
		},
	}, true)

	out := buf.String()
	assert.Contains(t, out, "Request timeout\n")
	assert.Contains(t, out, "TIMEOUT\n")
	assert.Contains(t, out, "Check your internet connection")
	assert.NotContains(t, out, "Unknown status code")
}

func TestSanitizeOutput(t *testing.T) {
	assert.Equal(t, `a\x1b[31mb`, sanitizeOutput("a\x1b[31mb"))
	assert.Equal(t, "line\nnext\t", sanitizeOutput("line\nnext\t"))
	assert.Equal(t, `\x07\x7f`, sanitizeOutput("\x07\x7f"))
}

func TestRenderData(t *testing.T) {
	assert.Equal(t, "", renderData(nil))
	assert.Equal(t, "plain", renderData("plain"))
	assert.Equal(t, "{\n  \"a\": 1\n}", renderData(`{"a":1}`))
	assert.Equal(t, "[\n  \"<b>\"\n]", renderData([]any{"<b>"}))
}

func TestPrintEndpointDetail(t *testing.T) {
	buf := capture(t)
	ep, err := catalog.Default().Get("reporting")
	require.NoError(t, err)
	PrintEndpointDetail(ep)

	out := buf.String()
	assert.Contains(t, out, "GET https://api.adspostx.com/native/activity.json")
	assert.Contains(t, out, "Query parameters:")
	assert.Contains(t, out, `group_by = "date"`)
	assert.Contains(t, out, "docs.momentscience.com")
}

func TestPrintHistoryList(t *testing.T) {
	buf := capture(t)
	PrintHistoryList(nil, 10)
	assert.Contains(t, buf.String(), "No requests in history")

	buf.Reset()
	reqs := []model.Request{
		{ID: "a", Method: "GET", URL: "https://x.test/a", Timestamp: time.Now(), Response: &model.Response{Status: 200, ElapsedMs: 5}},
		{ID: "b", Method: "POST", URL: "https://x.test/b", Timestamp: time.Now(), Response: &model.Response{Status: 0}},
		{ID: "c", Method: "POST", URL: "https://x.test/c", Timestamp: time.Now()},
	}
	PrintHistoryList(reqs, 2)
	out := buf.String()
	assert.Contains(t, out, "[1] GET")
	assert.Contains(t, out, "200 (5ms)")
	assert.Contains(t, out, "ERR")
	assert.Contains(t, out, "... and 1 more requests")
}

func TestPrintFlowStep(t *testing.T) {
	buf := capture(t)
	f := showcase.New(showcase.WithPicker(showcase.FirstPicker))
	require.NoError(t, f.AddToCart("1"))
	PrintFlowStep(f)

	out := buf.String()
	assert.Contains(t, out, "[cart]")
	assert.Contains(t, out, "Premium Wireless Headphones")
	assert.Contains(t, out, "Discount (15%):")
	assert.Contains(t, out, "15% OFF")
}
