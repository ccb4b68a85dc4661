// Package testutil provides common test utilities for handler and integration tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Envelope mirrors the API response body with a typed data field.
type Envelope[T any] struct {
	Success bool            `json:"success"`
	Data    T               `json:"data"`
	Error   json.RawMessage `json:"error"`
}

// ErrorBody is the structured form of Envelope.Error.
type ErrorBody struct {
	Message string            `json:"message"`
	Details map[string]string `json:"details"`
}

// NewJSONRequest creates an HTTP request with body marshaled to JSON.
func NewJSONRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		require.NoError(t, err, "failed to marshal request body")
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req := httptest.NewRequest(method, path, bodyReader)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// NewRequestWithBody creates an HTTP request with a raw string body.
func NewRequestWithBody(t *testing.T, method, path string, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithBearer sets the Authorization header.
func WithBearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

// DoRequest executes a request against a handler and returns the recorder.
func DoRequest(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// DecodeEnvelope unmarshals the response body into an Envelope.
func DecodeEnvelope[T any](t *testing.T, rr *httptest.ResponseRecorder) Envelope[T] {
	t.Helper()
	var env Envelope[T]
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), "failed to unmarshal response: %s", rr.Body.String())
	return env
}

// DecodeError returns the structured error of a failure envelope.
func DecodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	env := DecodeEnvelope[json.RawMessage](t, rr)
	require.False(t, env.Success, "expected a failure envelope")
	var body ErrorBody
	require.NoError(t, json.Unmarshal(env.Error, &body), "error is not structured: %s", env.Error)
	return body
}

// AssertStatus asserts the response status code matches expected.
func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	assert.Equal(t, expected, rr.Code, "unexpected status code: %s", rr.Body.String())
}

// AssertErrorMessage asserts both status code and envelope error message.
func AssertErrorMessage(t *testing.T, rr *httptest.ResponseRecorder, expectedStatus int, message string) {
	t.Helper()
	AssertStatus(t, rr, expectedStatus)
	assert.Equal(t, message, DecodeError(t, rr).Message)
}

// AssertInternalError asserts a 500 with the opaque error string.
func AssertInternalError(t *testing.T, rr *httptest.ResponseRecorder) {
	t.Helper()
	AssertStatus(t, rr, http.StatusInternalServerError)
	assert.JSONEq(t, `{"success":false,"error":"Internal server error"}`, rr.Body.String())
}
