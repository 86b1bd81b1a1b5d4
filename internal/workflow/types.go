package workflow

import (
	"context"
	"time"
)

// StatusTransportError is reported when no HTTP response arrived at all
// (timeout, refused connection, DNS failure).
const StatusTransportError = 0

// Request describes one call against the target service. Path is relative to
// the executor's base URL. Body, when set, is sent as JSON. A Request is a
// value; executors never modify it.
type Request struct {
	Method  string
	Path    string
	Body    any
	Headers map[string]string
}

// Response is what the executor observed for one Request.
type Response struct {
	StatusCode int
	Body       string
	Duration   time.Duration
	Err        error
}

// DurationMillis is the dispatch-to-full-body time in milliseconds.
func (r Response) DurationMillis() float64 {
	return float64(r.Duration.Microseconds()) / 1000.0
}

// TransportFailed reports whether the request never got an HTTP status.
func (r Response) TransportFailed() bool {
	return r.StatusCode == StatusTransportError
}

// Executor issues a single request and blocks until the response is fully
// read or the transport gives up. It never returns an error; failures are
// encoded in the Response.
type Executor interface {
	Execute(ctx context.Context, req Request) Response
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, req Request) Response

func (f ExecutorFunc) Execute(ctx context.Context, req Request) Response {
	return f(ctx, req)
}
