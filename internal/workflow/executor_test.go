package workflow

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPExecutorSendsJSONAndReadsBody(t *testing.T) {
	var (
		gotPath   string
		gotMethod string
		gotCT     string
		gotAuth   string
		gotBody   map[string]string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		gotCT = r.Header.Get("Content-Type")
		gotAuth = r.Header.Get("Authorization")
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &gotBody)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"Question ID already exists."}`))
	}))
	defer srv.Close()

	exec := NewHTTPExecutor(srv.URL+"/", 5*time.Second, map[string]string{"Authorization": "Bearer x"})
	resp := exec.Execute(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/admin/questions/",
		Body:   map[string]string{"id": "Q1"},
	})

	require.NoError(t, resp.Err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, resp.Body, "already exists")
	assert.Equal(t, "/admin/questions/", gotPath)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "application/json", gotCT)
	assert.Equal(t, "Bearer x", gotAuth)
	assert.Equal(t, "Q1", gotBody["id"])
	assert.Greater(t, resp.Duration, time.Duration(0))
}

func TestHTTPExecutorRequestHeadersOverrideDefaults(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Run")
	}))
	defer srv.Close()

	exec := NewHTTPExecutor(srv.URL, time.Second, map[string]string{"X-Run": "default"})
	resp := exec.Execute(context.Background(), Request{
		Method:  http.MethodGet,
		Path:    "/",
		Headers: map[string]string{"X-Run": "override"},
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "override", got)
}

func TestHTTPExecutorTransportFailureIsSentinelStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	exec := NewHTTPExecutor(url, time.Second, nil)
	resp := exec.Execute(context.Background(), Request{Method: http.MethodGet, Path: "/admin/teams/"})

	assert.Equal(t, StatusTransportError, resp.StatusCode)
	assert.True(t, resp.TransportFailed())
	assert.Error(t, resp.Err)
}

func TestHTTPExecutorTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	exec := NewHTTPExecutor(srv.URL, 50*time.Millisecond, nil)
	resp := exec.Execute(context.Background(), Request{Method: http.MethodGet, Path: "/"})

	assert.True(t, resp.TransportFailed())
	assert.Less(t, resp.StatusCode, 200)
}

func TestHTTPExecutorUnencodableBody(t *testing.T) {
	exec := NewHTTPExecutor("http://127.0.0.1:1", time.Second, nil)
	resp := exec.Execute(context.Background(), Request{Method: http.MethodPost, Path: "/", Body: make(chan int)})

	assert.True(t, resp.TransportFailed())
	assert.Error(t, resp.Err)
}

func TestResponseDurationMillis(t *testing.T) {
	r := Response{Duration: 1500 * time.Microsecond}
	assert.InDelta(t, 1.5, r.DurationMillis(), 0.0001)
}
