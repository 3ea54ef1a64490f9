// Package photon models qubits encoded as polarized photons. A qubit is
// prepared in one of two conjugate bases, and measuring it in the other basis
// yields a uniformly random bit.
package photon

// A Basis selects one of the two conjugate polarization bases.
type Basis uint8

const (
	// Rectilinear is the computational (Z) basis: |0>, |1>.
	Rectilinear Basis = iota
	// Diagonal is the Hadamard (X) basis: |+>, |->.
	Diagonal
)

// String returns the conventional single-character symbol for b.
func (b Basis) String() string {
	if b == Diagonal {
		return "x"
	}
	return "+"
}

// Name returns a human-readable name for b.
func (b Basis) Name() string {
	if b == Diagonal {
		return "diagonal"
	}
	return "rectilinear"
}

// Rand is the source of randomness behind every non-deterministic choice in
// a simulation. *math/rand.Rand satisfies it; seed one for reproducible runs.
type Rand interface {
	Intn(n int) int
	Float64() float64
	Int63() int64
}

// RandomBasis draws a basis uniformly at random.
func RandomBasis(r Rand) Basis {
	return Basis(r.Intn(2))
}

// RandomBit draws a bit uniformly at random.
func RandomBit(r Rand) bool {
	return r.Intn(2) == 1
}

// A Qubit is a prepared (bit, basis) pair. Qubits are immutable; anything
// that disturbs one produces a new Qubit instead.
type Qubit struct {
	bit   bool
	basis Basis
}

// Prepare encodes bit in basis.
func Prepare(bit bool, basis Basis) Qubit {
	return Qubit{bit: bit, basis: basis}
}

// Bit returns the value q was prepared with.
func (q Qubit) Bit() bool { return q.bit }

// Basis returns the basis q was prepared in.
func (q Qubit) Basis() Basis { return q.basis }

// State renders q in ket notation, e.g. "|0>" or "|->".
func (q Qubit) State() string {
	switch {
	case q.basis == Rectilinear && !q.bit:
		return "|0>"
	case q.basis == Rectilinear:
		return "|1>"
	case !q.bit:
		return "|+>"
	default:
		return "|->"
	}
}

// An Outcome is the result of measuring a qubit: the basis the measuring
// party chose and the bit they observed.
type Outcome struct {
	Bit   bool
	Basis Basis
}

// Resend re-prepares a fresh qubit from o. A measured photon is destroyed, so
// anyone relaying it can only forward their own observation.
func (o Outcome) Resend() Qubit {
	return Prepare(o.Bit, o.Basis)
}

// Measure measures q in basis. A matching basis reproduces q's bit exactly;
// a mismatched one yields a uniformly random bit drawn from r.
func Measure(q Qubit, basis Basis, r Rand) Outcome {
	if q.basis == basis {
		return Outcome{Bit: q.bit, Basis: basis}
	}
	return Outcome{Bit: RandomBit(r), Basis: basis}
}
