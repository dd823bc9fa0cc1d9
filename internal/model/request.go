package model

import (
	"time"
)

// Diagnostic tags carried in Response.Data when no HTTP response was received
const (
	TagNetwork        = "CORS_OR_NETWORK_ERROR"
	TagTimeout        = "TIMEOUT"
	TagInvalidRequest = "INVALID_REQUEST"
	TagUnknown        = "UNKNOWN_ERROR"
)

// Request is an executed request as kept in the history
type Request struct {
	ID         string            `json:"id"`
	Timestamp  time.Time         `json:"timestamp"`
	EndpointID string            `json:"endpoint_id"`
	Method     string            `json:"method"`
	URL        string            `json:"url"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
	Response   *Response         `json:"response,omitempty"`
}

// Response is the normalized outcome of an execution. Status is 0 when the
// request never reached the server, in which case Data holds a Diagnostic.
type Response struct {
	Status     int               `json:"status"`
	StatusText string            `json:"statusText"`
	Data       any               `json:"data"`
	Headers    map[string]string `json:"headers"`
	ElapsedMs  int64             `json:"elapsedMs"`
}

// Diagnostic describes a failure that produced no HTTP response
type Diagnostic struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
	Details    string `json:"details,omitempty"`
}

// TransportFailed reports whether the request never reached the server
func (r *Response) TransportFailed() bool {
	return r.Status == 0
}

// Diagnostic returns the diagnostic carried by a transport failure
func (r *Response) Diagnostic() (Diagnostic, bool) {
	switch d := r.Data.(type) {
	case Diagnostic:
		return d, true
	case *Diagnostic:
		if d != nil {
			return *d, true
		}
	}
	return Diagnostic{}, false
}
