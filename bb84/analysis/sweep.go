package analysis

import (
	"fmt"
	"math"

	"github.com/alan-christopher/qkdsim/bb84/eve"
)

// DetectionThreshold is the intercept rate at which the expected QBER of an
// intercept-resend attack reaches SecurityThreshold.
const DetectionThreshold = SecurityThreshold / 100 / eve.DisturbancePerIntercept

// A Point is the predicted effect of one intercept rate.
type Point struct {
	Rate         float64 `json:"intercept_rate"`
	ExpectedQBER float64 `json:"expected_qber"`
	Detectable   bool    `json:"detectable"`
}

// Sweep predicts, without simulating anything, the QBER each intercept rate
// would induce. ExpectedQBER is rounded to two decimal places and a point is
// Detectable once it reaches SecurityThreshold.
func Sweep(rates []float64) ([]Point, error) {
	pts := make([]Point, 0, len(rates))
	for i, rate := range rates {
		if math.IsNaN(rate) || rate < 0 || rate > 1 {
			return nil, fmt.Errorf("intercept rate %d must be in [0, 1], got %v", i, rate)
		}
		q := math.Round(eve.ExpectedQBER(rate)*100) / 100
		pts = append(pts, Point{
			Rate:         rate,
			ExpectedQBER: q,
			Detectable:   q >= SecurityThreshold,
		})
	}
	return pts, nil
}
