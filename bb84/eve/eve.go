// Package eve simulates an intercept-resend eavesdropper on the quantum
// channel.
//
// Eve measures each intercepted qubit in a basis of her own choosing and
// forwards a freshly prepared qubit carrying what she saw. Half the time she
// guesses the sender's basis and the relay is undisturbed. Otherwise the relay
// carries a random bit in the wrong basis, and a receiver who then measures in
// the sender's basis sees an error half the time. Intercepting a fraction p of
// the traffic therefore produces an expected error rate of p/4 on sifted bits.
package eve

import (
	"fmt"
	"math"

	"github.com/alan-christopher/qkdsim/bb84/bitmap"
	"github.com/alan-christopher/qkdsim/bb84/photon"
)

// DisturbancePerIntercept is the probability that an intercepted qubit shows
// up as an error after sifting: P(wrong basis) * P(wrong bit | wrong basis).
const DisturbancePerIntercept = 0.25

// ExpectedQBER returns the expected quantum bit error rate, as a percentage,
// caused by intercepting a fraction rate of all qubits.
func ExpectedQBER(rate float64) float64 {
	return rate * DisturbancePerIntercept * 100
}

// Config parameterizes an Eavesdropper.
type Config struct {
	// InterceptRate is the probability with which each qubit is intercepted,
	// independently of all others. Must be in [0, 1].
	InterceptRate float64
}

// Validate reports whether c is usable.
func (c Config) Validate() error {
	if math.IsNaN(c.InterceptRate) || c.InterceptRate < 0 || c.InterceptRate > 1 {
		return fmt.Errorf("intercept rate must be in [0, 1], got %v", c.InterceptRate)
	}
	return nil
}

// An Eavesdropper performs intercept-resend attacks.
type Eavesdropper struct {
	rate float64
}

// New returns an Eavesdropper configured by cfg.
func New(cfg Config) (*Eavesdropper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Eavesdropper{rate: cfg.InterceptRate}, nil
}

// Rate returns the configured intercept probability.
func (e *Eavesdropper) Rate() float64 {
	return e.rate
}

// A Record describes what happened during one call to Intercept.
type Record struct {
	// Touched has a bit set for every intercepted position.
	Touched bitmap.Dense
	// Indices lists the intercepted positions in increasing order, and
	// Outcomes holds Eve's measurement at each of them.
	Indices  []int
	Outcomes []photon.Outcome
}

// Intercept runs qs past the eavesdropper. It returns the qubits as relayed
// onward, which share no state with qs, along with a record of the attack.
func (e *Eavesdropper) Intercept(qs []photon.Qubit, r photon.Rand) ([]photon.Qubit, Record) {
	relayed := make([]photon.Qubit, len(qs))
	rec := Record{Touched: bitmap.NewDense(nil, len(qs))}
	for i, q := range qs {
		if r.Float64() >= e.rate {
			relayed[i] = q
			continue
		}
		o := photon.Measure(q, photon.RandomBasis(r), r)
		relayed[i] = o.Resend()
		rec.Touched.Set(i, true)
		rec.Indices = append(rec.Indices, i)
		rec.Outcomes = append(rec.Outcomes, o)
	}
	return relayed, rec
}

// Outcome returns Eve's measurement at position i, if she made one.
func (rec Record) Outcome(i int) (photon.Outcome, bool) {
	if !rec.Touched.Get(i) {
		return photon.Outcome{}, false
	}
	lo, hi := 0, len(rec.Indices)
	for lo < hi {
		mid := (lo + hi) / 2
		if rec.Indices[mid] < i {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return rec.Outcomes[lo], true
}

// BasisCounts tallies measurement bases.
type BasisCounts struct {
	Rectilinear int `json:"rectilinear"`
	Diagonal    int `json:"diagonal"`
}

// BitCounts tallies measured bit values.
type BitCounts struct {
	Zeros int `json:"zeros"`
	Ones  int `json:"ones"`
}

// Stats summarizes an attack for reporting.
type Stats struct {
	TotalIntercepted int         `json:"total_intercepted"`
	InterceptRate    float64     `json:"intercept_rate"`
	ObservedRate     float64     `json:"observed_rate"`
	BasesUsed        BasisCounts `json:"bases_used"`
	BitsMeasured     BitCounts   `json:"bits_measured"`
	Indices          []int       `json:"interception_indices"`
}

// Stats summarizes rec, given the rate Eve was configured with.
func (rec Record) Stats(rate float64) Stats {
	s := Stats{
		TotalIntercepted: len(rec.Indices),
		InterceptRate:    rate,
		Indices:          append([]int(nil), rec.Indices...),
	}
	if n := rec.Touched.Size(); n > 0 {
		s.ObservedRate = float64(len(rec.Indices)) / float64(n)
	}
	for _, o := range rec.Outcomes {
		if o.Basis == photon.Diagonal {
			s.BasesUsed.Diagonal++
		} else {
			s.BasesUsed.Rectilinear++
		}
		if o.Bit {
			s.BitsMeasured.Ones++
		} else {
			s.BitsMeasured.Zeros++
		}
	}
	return s
}
