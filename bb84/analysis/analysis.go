// Package analysis derives the security and quality figures reported for a
// BB84 run: the quantum bit error rate and its verdict, the information
// theoretic key rate, an overall efficiency score, and the balance of the
// final key. It also summarizes collections of runs.
//
// Every rate in a Report is a percentage. The functions that work on single
// probabilities (BinaryEntropy, MutualInformation) take fractions in [0, 1].
package analysis

import (
	"math"

	"github.com/alan-christopher/qkdsim/bb84/bitmap"
	"gonum.org/v1/gonum/stat"
)

const (
	// SecurityThreshold is the QBER, in percent, at or above which a run is
	// deemed compromised.
	SecurityThreshold = 11.0

	// BalanceTolerance is how far the fraction of ones in a key may stray from
	// one half before the key is reported as unbalanced.
	BalanceTolerance = 0.1

	// Score weights. They sum to 100.
	siftWeight = 40.0
	qberWeight = 30.0
	rateWeight = 30.0
)

// A Rating buckets an efficiency score.
type Rating string

const (
	Excellent Rating = "Excellent"
	Good      Rating = "Good"
	Fair      Rating = "Fair"
	Poor      Rating = "Poor"
	Critical  Rating = "Critical"
)

// RatingFor returns the rating of an efficiency score in [0, 100].
func RatingFor(score float64) Rating {
	switch {
	case score >= 80:
		return Excellent
	case score >= 60:
		return Good
	case score >= 40:
		return Fair
	case score >= 20:
		return Poor
	default:
		return Critical
	}
}

// An Input carries the raw counts of a single run.
type Input struct {
	Total   int
	Sifted  int
	Checked int
	Errors  int
	Key     bitmap.Dense

	// EavesdropperPresent records whether the run was attacked. It only
	// feeds EavesdropperDetected; nothing else in a Report depends on it.
	EavesdropperPresent bool
}

// Quality describes the bit balance of a key.
type Quality struct {
	Length   int     `json:"length"`
	Ones     int     `json:"ones"`
	Zeros    int     `json:"zeros"`
	Balance  float64 `json:"balance"`
	Balanced bool    `json:"is_balanced"`
}

// KeyQuality measures the balance of key. An empty key has balance 0 and is
// never balanced.
func KeyQuality(key bitmap.Dense) Quality {
	q := Quality{Length: key.Size(), Ones: bitmap.CountOnes(key)}
	q.Zeros = q.Length - q.Ones
	if q.Length > 0 {
		q.Balance = float64(q.Ones) / float64(q.Length)
		q.Balanced = math.Abs(q.Balance-0.5) <= BalanceTolerance
	}
	return q
}

// A Report holds every derived statistic of a single run.
type Report struct {
	Total     int `json:"total_qubits"`
	Sifted    int `json:"sifted_bits"`
	FinalBits int `json:"final_key_bits"`
	Checked   int `json:"bits_checked"`
	Errors    int `json:"errors_found"`

	SiftingEfficiency float64 `json:"sifting_efficiency"`
	KeyGenerationRate float64 `json:"key_generation_rate"`

	QBER                 float64 `json:"qber"`
	Secure               bool    `json:"is_secure"`
	Threshold            float64 `json:"security_threshold"`
	EavesdropperDetected bool    `json:"eavesdropper_detected"`

	MutualInformation float64 `json:"mutual_information"`
	SecureKeyRate     float64 `json:"secure_key_rate"`
	ExpectedFinalBits int     `json:"expected_final_bits"`

	EfficiencyScore float64 `json:"efficiency_score"`
	Rating          Rating  `json:"rating"`

	Quality Quality `json:"quality"`
}

// Summarize derives a Report from the counts in in.
func Summarize(in Input) Report {
	r := Report{
		Total:     in.Total,
		Sifted:    in.Sifted,
		FinalBits: in.Key.Size(),
		Checked:   in.Checked,
		Errors:    in.Errors,
		Threshold: SecurityThreshold,
		Quality:   KeyQuality(in.Key),
	}
	siftFrac := fraction(in.Sifted, in.Total)
	rateFrac := fraction(in.Key.Size(), in.Total)
	q := fraction(in.Errors, in.Checked)

	r.SiftingEfficiency = siftFrac * 100
	r.KeyGenerationRate = rateFrac * 100
	r.QBER = q * 100
	r.Secure = IsSecure(r.QBER)
	r.EavesdropperDetected = in.EavesdropperPresent && !r.Secure

	r.MutualInformation = MutualInformation(q)
	if r.Secure {
		r.SecureKeyRate = siftFrac * r.MutualInformation * 100
	}
	r.ExpectedFinalBits = int(math.Floor(float64(in.Total) * r.SecureKeyRate / 100))

	r.EfficiencyScore = EfficiencyScore(siftFrac, q, rateFrac)
	r.Rating = RatingFor(r.EfficiencyScore)
	return r
}

// IsSecure reports whether a QBER, in percent, is strictly below
// SecurityThreshold.
func IsSecure(qber float64) bool {
	return qber < SecurityThreshold
}

// BinaryEntropy returns H2(p) in bits. p outside [0, 1] is clamped.
func BinaryEntropy(p float64) float64 {
	p = math.Min(math.Max(p, 0), 1)
	return stat.Entropy([]float64{p, 1 - p}) / math.Ln2
}

// MutualInformation returns 1 - H2(q), the information per sifted bit that
// Alice and Bob share when their bits disagree with probability q. q is
// clamped to [0, 0.5], so the result falls monotonically from 1 to 0 as the
// error rate rises.
func MutualInformation(q float64) float64 {
	q = math.Min(math.Max(q, 0), 0.5)
	return math.Min(math.Max(1-BinaryEntropy(q), 0), 1)
}

// EfficiencyScore combines sifting efficiency, error rate and key rate, each
// a fraction, into a score in [0, 100].
func EfficiencyScore(siftFrac, q, rateFrac float64) float64 {
	errScore := 1 - math.Min(q/(SecurityThreshold/100), 1)
	return siftWeight*siftFrac + qberWeight*errScore + rateWeight*rateFrac
}

func fraction(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
