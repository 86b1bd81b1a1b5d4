package workflow

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPExecutor runs requests against BaseURL with a shared, pooled client.
// It performs no retries.
type HTTPExecutor struct {
	BaseURL string
	Client  *http.Client
	Headers map[string]string
}

// NewHTTPExecutor builds an executor whose transport is sized for many
// concurrent virtual users against a single host.
func NewHTTPExecutor(baseURL string, timeout time.Duration, headers map[string]string) *HTTPExecutor {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 2000
	t.MaxConnsPerHost = 2000
	t.MaxIdleConnsPerHost = 2000
	t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}

	return &HTTPExecutor{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: &http.Client{
			Timeout:   timeout,
			Transport: t,
		},
		Headers: headers,
	}
}

func (e *HTTPExecutor) Execute(ctx context.Context, req Request) Response {
	var body io.Reader
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return Response{Err: fmt.Errorf("encode body: %w", err)}
		}
		body = bytes.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, e.BaseURL+req.Path, body)
	if err != nil {
		return Response{Err: fmt.Errorf("build request: %w", err)}
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range e.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := e.Client.Do(httpReq)
	if err != nil {
		return Response{Duration: time.Since(start), Err: err}
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	res := Response{
		StatusCode: resp.StatusCode,
		Body:       string(b),
		Duration:   time.Since(start),
	}
	if err != nil {
		// status line arrived but the body did not; treat as transport failure
		res.StatusCode = StatusTransportError
		res.Err = fmt.Errorf("read body: %w", err)
	}
	return res
}
