// Copyright 2026 The LogAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestRequestIDGenerated(t *testing.T) {
	t.Parallel()

	var seenID string
	handler := RequestID(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		seenID = RequestIDFromContext(request.Context())
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/classify", nil))

	if seenID == "" {
		t.Fatal("handler saw no request ID")
	}
	if _, err := uuid.Parse(seenID); err != nil {
		t.Errorf("request ID %q is not a UUID: %v", seenID, err)
	}
	if got := recorder.Header().Get("X-Request-ID"); got != seenID {
		t.Errorf("response X-Request-ID = %q, want %q", got, seenID)
	}
}

func TestRequestIDPassthrough(t *testing.T) {
	t.Parallel()

	var seenID string
	handler := RequestID(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		seenID = RequestIDFromContext(request.Context())
	}))

	request := httptest.NewRequest(http.MethodGet, "/classify", nil)
	request.Header.Set("X-Request-ID", "client-chosen-id")

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	if seenID != "client-chosen-id" {
		t.Errorf("request ID = %q, want client-chosen-id", seenID)
	}
	if got := recorder.Header().Get("X-Request-ID"); got != "client-chosen-id" {
		t.Errorf("response X-Request-ID = %q, want client-chosen-id", got)
	}
}

func TestRequestIDFromContextMissing(t *testing.T) {
	t.Parallel()

	if got := RequestIDFromContext(t.Context()); got != "" {
		t.Errorf("RequestIDFromContext = %q, want empty", got)
	}
}

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	var logOutput bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logOutput, nil))

	handler := RequestLogger(logger)(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusNotFound)
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/classify", nil))

	logged := logOutput.String()
	for _, want := range []string{"method=POST", "path=/classify", "status=404"} {
		if !strings.Contains(logged, want) {
			t.Errorf("log output missing %q: %s", want, logged)
		}
	}
}

func TestRequestLoggerPreservesFlusher(t *testing.T) {
	t.Parallel()

	// The streaming endpoint needs http.Flusher through the logging
	// wrapper.
	handler := RequestLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))(
		http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if _, ok := writer.(http.Flusher); !ok {
				t.Error("wrapped writer lost http.Flusher")
			}
		}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/classify/stream", nil))
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()

	nextCalled := false
	handler := CORS(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		nextCalled = true
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodOptions, "/classify", nil))

	if nextCalled {
		t.Error("preflight request reached the handler")
	}
	if recorder.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", recorder.Code)
	}
	if got := recorder.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

func TestCORSPassthrough(t *testing.T) {
	t.Parallel()

	handler := CORS(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusOK)
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/classify", nil))

	if recorder.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", recorder.Code)
	}
	if got := recorder.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}
