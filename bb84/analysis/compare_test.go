package analysis

import (
	"math"
	"testing"
)

func TestCompare(t *testing.T) {
	reports := []Report{
		{SiftingEfficiency: 50, QBER: 0, KeyGenerationRate: 25, Secure: true, EfficiencyScore: 57.5},
		{SiftingEfficiency: 48, QBER: 20, KeyGenerationRate: 25, Secure: false, EfficiencyScore: 26.7},
		{SiftingEfficiency: 52, QBER: 4, KeyGenerationRate: 25, Secure: true, EfficiencyScore: 57.5},
		{SiftingEfficiency: 50, QBER: 12, KeyGenerationRate: 25, Secure: false, EfficiencyScore: 26.7},
	}
	c := Compare(reports)
	if c.Runs != 4 || c.SecureRuns != 2 || c.InsecureRuns != 2 {
		t.Errorf("counts == %+v, want 4 runs, 2 secure, 2 insecure", c)
	}
	if math.Abs(c.SuccessRate-50) > tol {
		t.Errorf("SuccessRate == %v, want 50", c.SuccessRate)
	}
	if math.Abs(c.MeanSiftingEfficiency-50) > tol || math.Abs(c.MeanQBER-9) > tol || math.Abs(c.MeanKeyRate-25) > tol {
		t.Errorf("means == %v, %v, %v, want 50, 9, 25", c.MeanSiftingEfficiency, c.MeanQBER, c.MeanKeyRate)
	}
	if c.Best != 0 {
		t.Errorf("Best == %d, want 0 (first of tied maxima)", c.Best)
	}
	if c.Worst != 1 {
		t.Errorf("Worst == %d, want 1 (first of tied minima)", c.Worst)
	}
}

func TestCompareEmpty(t *testing.T) {
	c := Compare(nil)
	if c.Runs != 0 || c.Best != -1 || c.Worst != -1 || c.SuccessRate != 0 {
		t.Errorf("Compare(nil) == %+v, want zero runs and no best/worst", c)
	}
}

func TestTrend(t *testing.T) {
	tcs := []struct {
		name      string
		qbers     []float64
		eMean     float64
		eStdDev   float64
		eMin      float64
		eMax      float64
		eSecure   int
		eInsecure int
		eStable   bool
	}{
		{
			name:    "steady",
			qbers:   []float64{1, 2, 3},
			eMean:   2,
			eStdDev: math.Sqrt(2.0 / 3),
			eMin:    1,
			eMax:    3,
			eSecure: 3,
			eStable: true,
		},
		{
			name:      "erratic",
			qbers:     []float64{0, 25},
			eMean:     12.5,
			eStdDev:   12.5,
			eMin:      0,
			eMax:      25,
			eSecure:   1,
			eInsecure: 1,
		},
		{
			name:      "threshold is insecure",
			qbers:     []float64{11},
			eMean:     11,
			eMin:      11,
			eMax:      11,
			eInsecure: 1,
			eStable:   true,
		},
		{
			name: "empty",
		},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			tr := Trend(tc.qbers)
			if tr.Count != len(tc.qbers) {
				t.Errorf("Count == %d, want %d", tr.Count, len(tc.qbers))
			}
			if math.Abs(tr.Mean-tc.eMean) > tol || math.Abs(tr.StdDev-tc.eStdDev) > tol {
				t.Errorf("mean, std-dev == %v, %v, want %v, %v", tr.Mean, tr.StdDev, tc.eMean, tc.eStdDev)
			}
			if tr.Min != tc.eMin || tr.Max != tc.eMax {
				t.Errorf("min, max == %v, %v, want %v, %v", tr.Min, tr.Max, tc.eMin, tc.eMax)
			}
			if tr.SecureCount != tc.eSecure || tr.InsecureCount != tc.eInsecure {
				t.Errorf("secure, insecure == %d, %d, want %d, %d", tr.SecureCount, tr.InsecureCount, tc.eSecure, tc.eInsecure)
			}
			if tr.Stable != tc.eStable {
				t.Errorf("Stable == %v, want %v", tr.Stable, tc.eStable)
			}
		})
	}
}
