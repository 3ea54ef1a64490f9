package server

import (
	"math"
	"time"

	"github.com/alan-christopher/qkdsim/bb84"
	"github.com/alan-christopher/qkdsim/bb84/analysis"
	"github.com/alan-christopher/qkdsim/bb84/eve"
)

const (
	apiVersion      = "1.0.0"
	protocolVersion = "BB84-Go"
)

// ExecuteRequest configures one session. Absent or null fields take the
// configured defaults.
type ExecuteRequest struct {
	KeyLength              *int     `json:"key_length,omitempty"`
	WithEavesdropper       bool     `json:"with_eavesdropper"`
	InterceptRate          *float64 `json:"eavesdropper_intercept_rate,omitempty"`
	TransmissionMultiplier *int     `json:"transmission_multiplier,omitempty"`
	ChannelNoise           float64  `json:"channel_noise"`
	Seed                   *int64   `json:"seed,omitempty"`
}

// BatchRequest repeats one configuration. Run i uses seed config.seed+i.
type BatchRequest struct {
	Runs   int            `json:"runs"`
	Config ExecuteRequest `json:"config"`
}

// AnalyzeRequest lists the intercept rates to predict. KeyLength is accepted
// for compatibility; the prediction does not depend on it.
type AnalyzeRequest struct {
	InterceptRates []float64 `json:"intercept_rates,omitempty"`
	KeyLength      *int      `json:"key_length,omitempty"`
}

type KeyData struct {
	Binary  string           `json:"binary"`
	Hex     string           `json:"hex"`
	Base64  string           `json:"base64"`
	Length  int              `json:"length"`
	Quality analysis.Quality `json:"quality"`
}

type TransmissionStats struct {
	TotalQubits       int     `json:"total_qubits"`
	SiftedBits        int     `json:"sifted_bits"`
	FinalKeyBits      int     `json:"final_key_bits"`
	SiftingEfficiency float64 `json:"sifting_efficiency"`
	KeyGenerationRate float64 `json:"key_generation_rate"`
}

type SecurityStats struct {
	QBER                 float64 `json:"qber"`
	ErrorsFound          int     `json:"errors_found"`
	BitsChecked          int     `json:"bits_checked"`
	IsSecure             bool    `json:"is_secure"`
	SecurityThreshold    float64 `json:"security_threshold"`
	EavesdropperDetected bool    `json:"eavesdropper_detected"`
	UndetectedErrors     int     `json:"undetected_errors"`
}

type InformationStats struct {
	MutualInformation float64 `json:"mutual_information"`
	SecureKeyRate     float64 `json:"secure_key_rate"`
	ExpectedFinalBits int     `json:"expected_final_bits"`
}

type PerformanceStats struct {
	EfficiencyScore float64         `json:"efficiency_score"`
	Rating          analysis.Rating `json:"rating"`
}

// ExecuteResponse reports one session.
type ExecuteResponse struct {
	ID                string            `json:"id"`
	Success           bool              `json:"success"`
	Key               KeyData           `json:"key"`
	Transmission      TransmissionStats `json:"transmission"`
	Security          SecurityStats     `json:"security"`
	InformationTheory InformationStats  `json:"information_theory"`
	Performance       PerformanceStats  `json:"performance"`
	Eavesdropper      *eve.Stats        `json:"eavesdropper"`
	Classical         bb84.Traffic      `json:"classical"`
	Attempts          int               `json:"attempts"`
	Seed              int64             `json:"seed,omitempty"`
	ConfigDigest      string            `json:"config_digest"`
	ExecutionTimeMS   float64           `json:"execution_time_ms"`
	Timestamp         time.Time         `json:"timestamp"`
	ProtocolVersion   string            `json:"protocol_version"`
}

// RunFailure reports a batch run that produced no key.
type RunFailure struct {
	Index   int    `json:"index"`
	Seed    int64  `json:"seed,omitempty"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

type BatchSummary struct {
	Comparison analysis.Comparison   `json:"comparison"`
	Trend      analysis.TrendSummary `json:"trend"`
}

// BatchResponse reports a batch. Results holds successful runs in index
// order.
type BatchResponse struct {
	ID              string            `json:"id"`
	TotalRuns       int               `json:"total_runs"`
	SuccessfulRuns  int               `json:"successful_runs"`
	FailedRuns      int               `json:"failed_runs"`
	Results         []ExecuteResponse `json:"results"`
	Failures        []RunFailure      `json:"failures"`
	Summary         BatchSummary      `json:"summary"`
	ConfigDigest    string            `json:"config_digest"`
	ExecutionTimeMS float64           `json:"execution_time_ms"`
}

type AnalysisRow struct {
	analysis.Point
	IsSecure bool   `json:"is_secure"`
	Status   string `json:"status"`
}

type AnalyzeResponse struct {
	Analysis           []AnalysisRow `json:"analysis"`
	DetectionThreshold float64       `json:"detection_threshold"`
	Summary            string        `json:"summary"`
}

type Parameter struct {
	Type        string  `json:"type"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Default     any     `json:"default"`
	Description string  `json:"description"`
}

type InfoResponse struct {
	Name              string               `json:"name"`
	Description       string               `json:"description"`
	Version           string               `json:"version"`
	Features          []string             `json:"features"`
	Parameters        map[string]Parameter `json:"parameters"`
	SecurityThreshold float64              `json:"security_threshold"`
}

type ThresholdResponse struct {
	QBERThreshold      float64          `json:"qber_threshold"`
	DetectionThreshold float64          `json:"detection_threshold"`
	Explanation        string           `json:"explanation"`
	Examples           []analysis.Point `json:"intercept_rate_examples"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func newExecuteResponse(res *bb84.Result, seed int64, digest string) ExecuteResponse {
	r := res.Report
	return ExecuteResponse{
		Success: true,
		Key: KeyData{
			Binary:  res.Key.String(),
			Hex:     res.Key.Hex(),
			Base64:  res.Key.Base64(),
			Length:  res.Key.Size(),
			Quality: r.Quality,
		},
		Transmission: TransmissionStats{
			TotalQubits:       r.Total,
			SiftedBits:        r.Sifted,
			FinalKeyBits:      r.FinalBits,
			SiftingEfficiency: round(r.SiftingEfficiency, 2),
			KeyGenerationRate: round(r.KeyGenerationRate, 2),
		},
		Security: SecurityStats{
			QBER:                 round(r.QBER, 4),
			ErrorsFound:          r.Errors,
			BitsChecked:          r.Checked,
			IsSecure:             r.Secure,
			SecurityThreshold:    r.Threshold,
			EavesdropperDetected: r.EavesdropperDetected,
			UndetectedErrors:     res.UndetectedErrors,
		},
		InformationTheory: InformationStats{
			MutualInformation: round(r.MutualInformation, 4),
			SecureKeyRate:     round(r.SecureKeyRate, 2),
			ExpectedFinalBits: r.ExpectedFinalBits,
		},
		Performance: PerformanceStats{
			EfficiencyScore: round(r.EfficiencyScore, 2),
			Rating:          r.Rating,
		},
		Eavesdropper:    res.Eavesdropper,
		Classical:       res.Classical,
		Attempts:        res.Attempts,
		Seed:            seed,
		ConfigDigest:    digest,
		ProtocolVersion: protocolVersion,
	}
}

// round rounds only what is displayed; Reports keep full precision.
func round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}
