package photon

import (
	"fmt"

	"github.com/alan-christopher/qkdsim/bb84/bitmap"
)

// A Channel delivers qubits from sender to receiver. With probability Noise
// it flips a qubit's bit while leaving its basis alone, which models the
// intrinsic error floor of real optics.
type Channel struct {
	Noise float64
}

// Deliver passes qs through c, returning the delivered qubits and a mask of
// which positions were flipped. A noiseless channel draws no randomness.
func (c Channel) Deliver(qs []Qubit, r Rand) ([]Qubit, bitmap.Dense, error) {
	if c.Noise < 0 || c.Noise > 0.5 || c.Noise != c.Noise {
		return nil, bitmap.Empty(), fmt.Errorf("channel noise must be in [0, 0.5], got %v", c.Noise)
	}
	flips := bitmap.NewDense(nil, len(qs))
	if c.Noise == 0 {
		return qs, flips, nil
	}
	out := make([]Qubit, len(qs))
	for i, q := range qs {
		out[i] = q
		if r.Float64() < c.Noise {
			out[i] = Prepare(!q.bit, q.basis)
			flips.Set(i, true)
		}
	}
	return out, flips, nil
}
