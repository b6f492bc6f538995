// Copyright 2026 The LogAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/rabiesofany/TheLogAnalyserApp/lib/analysis"
	"github.com/rabiesofany/TheLogAnalyserApp/lib/service"
	"github.com/rabiesofany/TheLogAnalyserApp/lib/version"
)

//go:embed playground.html
var playgroundHTML []byte

// AnalyzerService is the HTTP surface over the analysis pipeline.
type AnalyzerService struct {
	analyzer *analysis.Analyzer
	logger   *slog.Logger
}

// classifyRequest is the body of both classify endpoints.
type classifyRequest struct {
	ErrorLog string `json:"error_log"`
}

// detailResponse is the error body shape every endpoint uses.
type detailResponse struct {
	Detail string `json:"detail"`
}

// identityResponse describes the service to a client probing the
// root path.
type identityResponse struct {
	Name      string            `json:"name"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

// healthResponse answers liveness probes.
type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Handler returns the service's route tree wrapped in the shared
// middleware. RequestID wraps the logger so every log line carries
// the ID; CORS sits outermost so preflights get the headers too.
func (s *AnalyzerService) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIdentity)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/playground", s.handlePlayground)
	mux.HandleFunc("/classify", s.handleClassify)
	mux.HandleFunc("/classify/stream", s.handleClassifyStream)

	var handler http.Handler = mux
	handler = service.RequestLogger(s.logger)(handler)
	handler = service.RequestID(handler)
	handler = service.CORS(handler)
	return handler
}

func (s *AnalyzerService) handleIdentity(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, identityResponse{
		Name:    "LogAnalyser",
		Version: version.Info(),
		Endpoints: map[string]string{
			"classify":        "POST /classify - Classify error logs and get fix suggestions",
			"classify_stream": "POST /classify/stream - Stream classification progress as Server-Sent Events",
			"playground":      "GET /playground - Paste errors via the browser and inspect the JSON response",
			"health":          "GET /health - Liveness probe",
		},
	})
}

func (s *AnalyzerService) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: version.Info()})
}

func (s *AnalyzerService) handlePlayground(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(playgroundHTML)
}

// handleClassify runs the full pipeline and answers with one JSON
// report. A log with no recognizable errors is the client's problem
// (400); everything else unexpected is ours (500).
func (s *AnalyzerService) handleClassify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := service.ReadBody(r)
	if err != nil {
		writeBodyError(w, err)
		return
	}

	var request classifyRequest
	if err := json.Unmarshal(body, &request); err != nil {
		writeJSON(w, http.StatusBadRequest, detailResponse{Detail: analysis.InvalidLogDetail})
		return
	}

	report, err := s.analyzer.Analyze(r.Context(), request.ErrorLog)
	if errors.Is(err, analysis.ErrInvalidLog) {
		writeJSON(w, http.StatusBadRequest, detailResponse{Detail: analysis.InvalidLogDetail})
		return
	}
	if err != nil {
		s.logger.Error("classification failed",
			"error", err,
			"request_id", service.RequestIDFromContext(r.Context()),
		)
		writeJSON(w, http.StatusInternalServerError, detailResponse{
			Detail: fmt.Sprintf("Classification failed: %v", err),
		})
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// handleClassifyStream runs the pipeline and frames every event as
// SSE. Once the stream is open all failures travel in-band as a
// terminal error event; only body transport problems (unsupported
// encoding, oversized payload) are reported as HTTP statuses, since
// they preclude reading the log at all.
func (s *AnalyzerService) handleClassifyStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := service.ReadBody(r)
	if err != nil {
		writeBodyError(w, err)
		return
	}

	// A body that does not decode leaves ErrorLog empty, which the
	// stream reports in-band as an invalid-log error event.
	var request classifyRequest
	if err := json.Unmarshal(body, &request); err != nil {
		s.logger.Warn("undecodable stream request",
			"error", err,
			"request_id", service.RequestIDFromContext(r.Context()),
		)
	}

	sse, err := service.NewSSEWriter(w)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	err = s.analyzer.AnalyzeStream(r.Context(), request.ErrorLog, func(event analysis.Event) error {
		return sse.Send(event)
	})
	if err != nil {
		// The consumer went away mid-stream. Nothing to send.
		s.logger.Info("classify stream interrupted",
			"error", err,
			"request_id", service.RequestIDFromContext(r.Context()),
		)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeBodyError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUnsupportedEncoding):
		writeJSON(w, http.StatusUnsupportedMediaType, detailResponse{Detail: err.Error()})
	case errors.Is(err, service.ErrBodyTooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, detailResponse{Detail: err.Error()})
	default:
		writeJSON(w, http.StatusBadRequest, detailResponse{
			Detail: fmt.Sprintf("reading request body: %v", err),
		})
	}
}
