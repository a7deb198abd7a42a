// Package testutil provides testing utilities for the NYT article loader.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"time"
)

// MockResponse defines one canned Article Search response.
type MockResponse struct {
	StatusCode int
	Body       string
	Delay      time.Duration
}

// MockSearchAPI is a configurable mock Article Search server. Responses can
// be scripted in order (Enqueue) or computed per request (SetHandler); with
// neither configured, every request gets a zero-hit page.
type MockSearchAPI struct {
	server *httptest.Server
	mu     sync.Mutex

	scripted []MockResponse
	handler  func(w http.ResponseWriter, r *http.Request)

	// Tracking
	RequestCount int
	Requests     []url.Values
}

// NewMockSearchAPI creates a new mock server.
func NewMockSearchAPI() *MockSearchAPI {
	mock := &MockSearchAPI{}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.Requests = append(mock.Requests, r.URL.Query())

		var next *MockResponse
		if len(mock.scripted) > 0 {
			next = &mock.scripted[0]
			mock.scripted = mock.scripted[1:]
		}
		handler := mock.handler
		mock.mu.Unlock()

		if next != nil {
			writeResponse(w, *next)
			return
		}

		if handler != nil {
			handler(w, r)
			return
		}

		writeResponse(w, NewEmptyResponse())
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockSearchAPI) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockSearchAPI) Close() {
	m.server.Close()
}

// Reset clears scripted responses, the handler, and tracking state.
func (m *MockSearchAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripted = nil
	m.handler = nil
	m.RequestCount = 0
	m.Requests = nil
}

// Enqueue appends responses to be served in order, one per request.
func (m *MockSearchAPI) Enqueue(responses ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripted = append(m.scripted, responses...)
}

// SetHandler installs a fallback handler used once scripted responses are
// exhausted.
func (m *MockSearchAPI) SetHandler(handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = handler
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockSearchAPI) GetRequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.RequestCount
}

// LastQuery returns the query parameters of the most recent request, or nil
// if no request was made.
func (m *MockSearchAPI) LastQuery() url.Values {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Requests) == 0 {
		return nil
	}
	return m.Requests[len(m.Requests)-1]
}

// writeResponse writes one canned response.
func writeResponse(w http.ResponseWriter, resp MockResponse) {
	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

// Doc builds a raw article document with the given id and publication date.
// Extra key/value pairs are merged in.
func Doc(id, pubDate string, extra map[string]any) map[string]any {
	doc := map[string]any{
		"_id":      id,
		"pub_date": pubDate,
	}
	for k, v := range extra {
		doc[k] = v
	}
	return doc
}

// NewDocsResponse creates a healthy page carrying the given documents. The
// reported hit count equals the number of documents unless hits is larger.
func NewDocsResponse(hits int, docs ...map[string]any) MockResponse {
	if hits < len(docs) {
		hits = len(docs)
	}

	body := map[string]any{
		"status": "OK",
		"response": map[string]any{
			"meta": map[string]any{"hits": hits},
			"docs": docs,
		},
	}

	data, err := json.Marshal(body)
	if err != nil {
		panic(fmt.Sprintf("marshal mock docs response: %v", err))
	}

	return MockResponse{StatusCode: http.StatusOK, Body: string(data)}
}

// NewEmptyResponse creates a zero-hit page, signalling query exhaustion.
func NewEmptyResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"status":"OK","response":{"meta":{"hits":0},"docs":[]}}`,
	}
}

// NewErrorResponse creates an explicit ERROR status page.
func NewErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"status":"ERROR","errors":["bad request"]}`,
	}
}

// NewFaultResponse creates a transient quota fault, as the gateway emits
// when the per-minute limit is exceeded.
func NewFaultResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body: `{"fault":{"faultstring":"Rate limit quota violation. Quota limit exceeded.",` +
			`"detail":{"errorcode":"policies.ratelimit.QuotaViolation"}}}`,
	}
}
