package analysis

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// StabilityThreshold is the QBER standard deviation, in percentage points,
// below which a series of runs is called stable.
const StabilityThreshold = 2.0

// A Comparison aggregates the reports of several runs.
type Comparison struct {
	Runs                  int     `json:"total_runs"`
	MeanSiftingEfficiency float64 `json:"avg_sifting_efficiency"`
	MeanQBER              float64 `json:"avg_qber"`
	MeanKeyRate           float64 `json:"avg_key_generation_rate"`
	SecureRuns            int     `json:"secure_runs"`
	InsecureRuns          int     `json:"insecure_runs"`
	SuccessRate           float64 `json:"success_rate"`

	// Best and Worst index the reports with the highest and lowest
	// efficiency score, the first such on ties. Both are -1 when there are
	// no reports.
	Best  int `json:"best_run"`
	Worst int `json:"worst_run"`
}

// Compare aggregates reports.
func Compare(reports []Report) Comparison {
	c := Comparison{Runs: len(reports), Best: -1, Worst: -1}
	if len(reports) == 0 {
		return c
	}
	sift := make([]float64, len(reports))
	qber := make([]float64, len(reports))
	rate := make([]float64, len(reports))
	for i, r := range reports {
		sift[i] = r.SiftingEfficiency
		qber[i] = r.QBER
		rate[i] = r.KeyGenerationRate
		if r.Secure {
			c.SecureRuns++
		}
		if c.Best < 0 || r.EfficiencyScore > reports[c.Best].EfficiencyScore {
			c.Best = i
		}
		if c.Worst < 0 || r.EfficiencyScore < reports[c.Worst].EfficiencyScore {
			c.Worst = i
		}
	}
	c.MeanSiftingEfficiency = stat.Mean(sift, nil)
	c.MeanQBER = stat.Mean(qber, nil)
	c.MeanKeyRate = stat.Mean(rate, nil)
	c.InsecureRuns = c.Runs - c.SecureRuns
	c.SuccessRate = float64(c.SecureRuns) / float64(c.Runs) * 100
	return c
}

// A TrendSummary describes how QBER varied across a series of runs.
type TrendSummary struct {
	Count         int     `json:"count"`
	Mean          float64 `json:"average_qber"`
	Min           float64 `json:"min_qber"`
	Max           float64 `json:"max_qber"`
	StdDev        float64 `json:"std_deviation"`
	SecureCount   int     `json:"secure_count"`
	InsecureCount int     `json:"insecure_count"`
	Stable        bool    `json:"stable"`
}

// Trend summarizes a series of QBERs, each in percent. The standard
// deviation is the population one.
func Trend(qbers []float64) TrendSummary {
	t := TrendSummary{Count: len(qbers)}
	if len(qbers) == 0 {
		return t
	}
	t.Mean, t.StdDev = stat.PopMeanStdDev(qbers, nil)
	t.Min = floats.Min(qbers)
	t.Max = floats.Max(qbers)
	for _, q := range qbers {
		if IsSecure(q) {
			t.SecureCount++
		}
	}
	t.InsecureCount = t.Count - t.SecureCount
	t.Stable = t.StdDev < StabilityThreshold
	return t
}
