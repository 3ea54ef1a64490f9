package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/alan-christopher/qkdsim/bb84"
	"github.com/alan-christopher/qkdsim/bb84/analysis"
	"github.com/alan-christopher/qkdsim/bb84/batch"
	"github.com/alan-christopher/qkdsim/bb84/eve"
	"github.com/alan-christopher/qkdsim/internal/config"
	"github.com/google/uuid"
)

var thresholdExamples = []float64{0, 0.2, 0.4, 0.5, 1}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "expected GET")
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: s.now().UTC(),
		Version:   apiVersion,
	})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "expected GET")
		return
	}
	d := s.cfg.Defaults
	writeJSON(w, http.StatusOK, InfoResponse{
		Name:        "BB84",
		Description: "Simulated BB84 quantum key distribution with an optional intercept-resend eavesdropper",
		Version:     apiVersion,
		Features: []string{
			"basis sifting",
			"sampled QBER estimation",
			"intercept-resend eavesdropper",
			"channel noise floor",
			"reproducible seeded sessions",
			"parallel batches",
			"live batch streaming",
		},
		Parameters: map[string]Parameter{
			"key_length": {
				Type: "integer", Min: 64, Max: 1024, Default: d.KeyLength,
				Description: "Final key length in bits",
			},
			"eavesdropper_intercept_rate": {
				Type: "float", Min: 0, Max: 1, Default: d.InterceptRate,
				Description: "Fraction of qubits Eve intercepts",
			},
			"transmission_multiplier": {
				Type: "integer", Min: config.MinMultiplier, Max: config.MaxMultiplier, Default: d.TransmissionMultiplier,
				Description: "Qubits sent per final key bit",
			},
			"channel_noise": {
				Type: "float", Min: 0, Max: 0.5, Default: 0.0,
				Description: "Probability the channel flips a bit",
			},
		},
		SecurityThreshold: analysis.SecurityThreshold,
	})
}

func (s *Server) handleThreshold(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "expected GET")
		return
	}
	examples, err := analysis.Sweep(thresholdExamples)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ThresholdResponse{
		QBERThreshold:      analysis.SecurityThreshold,
		DetectionThreshold: analysis.DetectionThreshold,
		Explanation: fmt.Sprintf("A QBER of %.0f%% or more means the key may be compromised and must be discarded. "+
			"An intercept-resend attack on a fraction p of qubits induces a QBER of about 25p%%, "+
			"so it is detected once p reaches %.2f.", analysis.SecurityThreshold, analysis.DetectionThreshold),
		Examples: examples,
	})
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "expected POST")
		return
	}
	var req ExecuteRequest
	if err := s.decode(w, r, schemaExecute, &req); err != nil {
		s.fail(w, err)
		return
	}
	eff := s.effective(req)
	dig, err := digest(eff)
	if err != nil {
		s.fail(w, err)
		return
	}
	start := time.Now()
	res, err := bb84.Execute(eff.engineConfig())
	if err != nil {
		s.fail(w, err)
		return
	}
	resp := newExecuteResponse(res, eff.Seed, dig)
	resp.ID = uuid.NewString()
	resp.ExecutionTimeMS = millis(time.Since(start))
	resp.Timestamp = s.now().UTC()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "expected POST")
		return
	}
	var req BatchRequest
	if err := s.decode(w, r, schemaBatch, &req); err != nil {
		s.fail(w, err)
		return
	}
	resp, err := s.runBatch(r.Context(), req, nil)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "expected POST")
		return
	}
	var req AnalyzeRequest
	if err := s.decode(w, r, schemaAnalyze, &req); err != nil {
		s.fail(w, err)
		return
	}
	rates := req.InterceptRates
	if len(rates) == 0 {
		for i := 0; i <= 10; i++ {
			rates = append(rates, float64(i)/10)
		}
	}
	points, err := analysis.Sweep(rates)
	if err != nil {
		s.fail(w, &requestError{msg: err.Error()})
		return
	}
	rows := make([]AnalysisRow, len(points))
	for i, p := range points {
		rows[i] = AnalysisRow{Point: p, IsSecure: !p.Detectable, Status: "Secure"}
		if p.Detectable {
			rows[i].Status = "Detected"
		}
	}
	writeJSON(w, http.StatusOK, AnalyzeResponse{
		Analysis:           rows,
		DetectionThreshold: analysis.DetectionThreshold,
		Summary: fmt.Sprintf("Analyzed %d intercept rates. Eavesdropping is detectable once the intercept rate "+
			"reaches %.0f%%, where the expected QBER reaches %.0f%%.",
			len(rows), analysis.DetectionThreshold*100, analysis.SecurityThreshold),
	})
}

// runBatch executes req, reporting each run to onRun, if non-nil, as it
// completes.
func (s *Server) runBatch(ctx context.Context, req BatchRequest, onRun func(effectiveConfig, batch.RunResult)) (*BatchResponse, error) {
	if req.Runs > s.cfg.Batch.MaxRuns {
		return nil, &requestError{msg: fmt.Sprintf("runs must be at most %d, got %d", s.cfg.Batch.MaxRuns, req.Runs)}
	}
	eff := s.effective(req.Config)
	eff.Runs = req.Runs
	dig, err := digest(eff)
	if err != nil {
		return nil, err
	}
	opts := batch.Options{
		Runs:        req.Runs,
		Config:      eff.engineConfig(),
		Seed:        eff.Seed,
		Concurrency: s.cfg.Batch.Concurrency,
	}
	if onRun != nil {
		opts.OnRun = func(run batch.RunResult) { onRun(eff, run) }
	}
	start := time.Now()
	out, err := batch.Run(ctx, opts)
	if err != nil {
		return nil, err
	}
	resp := &BatchResponse{
		ID:             uuid.NewString(),
		TotalRuns:      req.Runs,
		SuccessfulRuns: out.Successful,
		FailedRuns:     out.Failed,
		Results:        make([]ExecuteResponse, 0, out.Successful),
		Failures:       []RunFailure{},
		Summary:        BatchSummary{Comparison: out.Comparison, Trend: out.Trend},
		ConfigDigest:   dig,
	}
	now := s.now().UTC()
	for _, run := range out.Runs {
		if run.Err != nil {
			code, _ := classify(run.Err)
			resp.Failures = append(resp.Failures, RunFailure{
				Index: run.Index, Seed: run.Seed, Error: code, Message: run.Err.Error(),
			})
			continue
		}
		one, err := s.runResponse(eff, run)
		if err != nil {
			return nil, err
		}
		one.Timestamp = now
		resp.Results = append(resp.Results, one)
	}
	resp.ExecutionTimeMS = millis(time.Since(start))
	s.log.Info("batch",
		"runs", req.Runs,
		"successful", out.Successful,
		"failed", out.Failed,
		"mean_qber", out.Comparison.MeanQBER,
		"digest", dig)
	return resp, nil
}

// runResponse reports a single successful batch run. Its digest matches what
// /api/protocol/execute would report for the same seed.
func (s *Server) runResponse(eff effectiveConfig, run batch.RunResult) (ExecuteResponse, error) {
	eff.Runs = 0
	eff.Seed = run.Seed
	dig, err := digest(eff)
	if err != nil {
		return ExecuteResponse{}, err
	}
	one := newExecuteResponse(run.Result, run.Seed, dig)
	one.ID = uuid.NewString()
	return one, nil
}

func (s *Server) effective(req ExecuteRequest) effectiveConfig {
	d := s.cfg.Defaults
	eff := effectiveConfig{
		KeyLength:              d.KeyLength,
		WithEavesdropper:       req.WithEavesdropper,
		TransmissionMultiplier: d.TransmissionMultiplier,
		ChannelNoise:           req.ChannelNoise,
		CheckFraction:          d.CheckFraction,
		MaxAttempts:            d.MaxAttempts,
	}
	if req.KeyLength != nil {
		eff.KeyLength = *req.KeyLength
	}
	if req.TransmissionMultiplier != nil {
		eff.TransmissionMultiplier = *req.TransmissionMultiplier
	}
	if eff.WithEavesdropper {
		eff.InterceptRate = d.InterceptRate
		if req.InterceptRate != nil {
			eff.InterceptRate = *req.InterceptRate
		}
	}
	if req.Seed != nil {
		eff.Seed = *req.Seed
	} else {
		eff.Seed = s.seed()
	}
	return eff
}

func (e effectiveConfig) engineConfig() bb84.Config {
	cfg := bb84.Config{
		KeyLength:              e.KeyLength,
		TransmissionMultiplier: e.TransmissionMultiplier,
		ChannelNoise:           e.ChannelNoise,
		CheckFraction:          e.CheckFraction,
		MaxAttempts:            e.MaxAttempts,
		Seed:                   e.Seed,
	}
	if e.WithEavesdropper {
		cfg.Eavesdropper = &eve.Config{InterceptRate: e.InterceptRate}
	}
	return cfg
}

// decode validates the request body against the named schema, then decodes
// it into v. An empty body is an empty object.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, schema string, v any) error {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return &requestError{msg: fmt.Sprintf("read body: %v", err)}
	}
	return s.decodeBytes(raw, schema, v)
}

func (s *Server) decodeBytes(raw []byte, schema string, v any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	if !json.Valid(raw) {
		return &requestError{msg: "request body is not valid JSON"}
	}
	if err := validateJSON(s.schemas[schema], raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return &requestError{msg: fmt.Sprintf("decode request: %v", err)}
	}
	return nil
}

// classify maps an error to its response code and HTTP status.
func classify(err error) (string, int) {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		return "invalid_request", http.StatusBadRequest
	case errors.Is(err, bb84.ErrInvalidConfig):
		return "invalid_config", http.StatusBadRequest
	case errors.Is(err, bb84.ErrInsufficientMaterial):
		return "insufficient_material", http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled", http.StatusServiceUnavailable
	default:
		return "internal", http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	code, status := classify(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "err", err)
	}
	writeError(w, status, code, err.Error())
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: strings.TrimSpace(message),
	})
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	encoded, err := json.Marshal(value)
	if err != nil {
		http.Error(w, `{"error":"internal","message":"encode response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(encoded, '\n'))
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
