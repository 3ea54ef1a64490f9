package bb84

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/alan-christopher/qkdsim/bb84/analysis"
	"github.com/alan-christopher/qkdsim/bb84/bitmap"
	"github.com/alan-christopher/qkdsim/bb84/eve"
	"github.com/alan-christopher/qkdsim/bb84/photon"
	"google.golang.org/protobuf/types/known/structpb"
)

// An alice represents the sending BB84 participant.
type alice struct {
	rand        photon.Rand
	sideChannel *protoFramer
	checkFrac   float64

	qubits    []photon.Qubit
	bits      bitmap.Dense
	bases     bitmap.Dense
	sifted    bitmap.Dense
	positions []int
	checked   []int
}

// A bob represents the receiving BB84 participant.
type bob struct {
	rand        photon.Rand
	sideChannel *protoFramer
	checkFrac   float64

	outcomes  []photon.Outcome
	bits      bitmap.Dense
	bases     bitmap.Dense
	sifted    bitmap.Dense
	positions []int
	checked   []int
}

// A session is one attempt at negotiating a key. Alice and Bob share the
// calling goroutine and the random source, so draws happen in a fixed order:
// Alice's bits and bases, Eve, channel noise, Bob's bases and measurements,
// then Alice's sampling seed.
type session struct {
	cfg   Config
	eve   *eve.Eavesdropper
	rand  photon.Rand
	alice *alice
	bob   *bob
}

func newSession(cfg Config, e *eve.Eavesdropper, r photon.Rand) *session {
	aChan, bChan := publicChannel()
	return &session{
		cfg:   cfg,
		eve:   e,
		rand:  r,
		alice: &alice{rand: r, sideChannel: aChan, checkFrac: cfg.CheckFraction},
		bob:   &bob{rand: r, sideChannel: bChan, checkFrac: cfg.CheckFraction},
	}
}

func (s *session) run() (*Result, error) {
	n := s.cfg.KeyLength * s.cfg.TransmissionMultiplier
	a, b := s.alice, s.bob

	qs := a.sendQBits(n)
	var tap eve.Record
	if s.eve != nil {
		qs, tap = s.eve.Intercept(qs, s.rand)
	}
	qs, flips, err := photon.Channel{Noise: s.cfg.ChannelNoise}.Deliver(qs, s.rand)
	if err != nil {
		return nil, fmt.Errorf("transmitting qubits: %w", err)
	}
	b.receiveQBits(qs)

	if err := b.announceBases(); err != nil {
		return nil, err
	}
	if err := a.sift(); err != nil {
		return nil, err
	}
	if err := b.sift(); err != nil {
		return nil, err
	}
	if err := a.announceSample(); err != nil {
		return nil, err
	}
	errs, err := b.checkSample()
	if err != nil {
		return nil, err
	}
	checked, aErrs, err := a.receiveErrors()
	if err != nil {
		return nil, err
	}
	if aErrs != errs || checked != len(b.checked) {
		return nil, fmt.Errorf("error announcement mismatch: alice saw %d/%d, bob sent %d/%d",
			aErrs, checked, errs, len(b.checked))
	}

	aKey, available := extract(a.sifted, a.checked, s.cfg.KeyLength)
	if available < s.cfg.KeyLength {
		return nil, &InsufficientMaterialError{Needed: s.cfg.KeyLength, Available: available}
	}
	bKey, _ := extract(b.sifted, b.checked, s.cfg.KeyLength)
	undetected, err := bitmap.Hamming(aKey, bKey)
	if err != nil {
		return nil, err
	}

	res := &Result{
		TotalQubits:      n,
		SiftedBits:       len(a.positions),
		CheckedBits:      checked,
		Errors:           errs,
		Key:              aKey,
		UndetectedErrors: undetected,
		Classical:        *a.sideChannel.t,
	}
	if checked > 0 {
		res.QBER = float64(errs) / float64(checked) * 100
	}
	if s.eve != nil {
		st := tap.Stats(s.eve.Rate())
		res.Eavesdropper = &st
	}
	if s.cfg.KeepRecord {
		res.Record = s.record(tap, flips)
	}
	res.Report = analysis.Summarize(analysis.Input{
		Total:               res.TotalQubits,
		Sifted:              res.SiftedBits,
		Checked:             res.CheckedBits,
		Errors:              res.Errors,
		Key:                 res.Key,
		EavesdropperPresent: s.eve != nil,
	})
	return res, nil
}

func (s *session) record(tap eve.Record, flips bitmap.Dense) *Record {
	rec := &Record{
		Slots: make([]Slot, len(s.alice.qubits)),
		SiftedKey: SiftedKey{
			Positions: append([]int(nil), s.alice.positions...),
			Alice:     s.alice.sifted,
			Bob:       s.bob.sifted,
		},
	}
	for i := range rec.Slots {
		slot := Slot{
			Alice:   s.alice.qubits[i],
			Flipped: flips.Get(i),
			Bob:     s.bob.outcomes[i],
		}
		if o, ok := tap.Outcome(i); ok {
			slot.Eve = &o
		}
		rec.Slots[i] = slot
	}
	return rec
}

func (a *alice) sendQBits(n int) []photon.Qubit {
	a.bits = bitmap.NewDense(nil, n)
	a.bases = bitmap.NewDense(nil, n)
	for i := 0; i < n; i++ {
		a.bits.Set(i, photon.RandomBit(a.rand))
	}
	for i := 0; i < n; i++ {
		a.bases.Set(i, photon.RandomBasis(a.rand) == photon.Diagonal)
	}
	a.qubits = make([]photon.Qubit, n)
	for i := range a.qubits {
		a.qubits[i] = photon.Prepare(a.bits.Get(i), basisAt(a.bases, i))
	}
	return a.qubits
}

func (b *bob) receiveQBits(qs []photon.Qubit) {
	n := len(qs)
	b.bases = bitmap.NewDense(nil, n)
	for i := 0; i < n; i++ {
		b.bases.Set(i, photon.RandomBasis(b.rand) == photon.Diagonal)
	}
	b.bits = bitmap.NewDense(nil, n)
	b.outcomes = make([]photon.Outcome, n)
	for i, q := range qs {
		o := photon.Measure(q, basisAt(b.bases, i), b.rand)
		b.outcomes[i] = o
		b.bits.Set(i, o.Bit)
	}
}

func (b *bob) announceBases() error {
	m, err := structpb.NewStruct(map[string]any{fieldBases: bitsValue(b.bases)})
	if err != nil {
		return err
	}
	if err := b.sideChannel.Write(m); err != nil {
		return fmt.Errorf("sending basis announcement: %w", err)
	}
	return nil
}

func (a *alice) sift() error {
	bba := new(structpb.Struct)
	if err := a.sideChannel.Read(bba); err != nil {
		return fmt.Errorf("receiving basis announcement: %w", err)
	}
	bBases, err := denseField(bba, fieldBases)
	if err != nil {
		return fmt.Errorf("receiving basis announcement: %w", err)
	}
	aba, err := structpb.NewStruct(map[string]any{fieldBases: bitsValue(a.bases)})
	if err != nil {
		return err
	}
	if err := a.sideChannel.Write(aba); err != nil {
		return fmt.Errorf("announcing bases: %w", err)
	}
	a.sifted, a.positions, err = sift(a.bits, a.bases, bBases)
	return err
}

func (b *bob) sift() error {
	aba := new(structpb.Struct)
	if err := b.sideChannel.Read(aba); err != nil {
		return fmt.Errorf("receiving bases: %w", err)
	}
	aBases, err := denseField(aba, fieldBases)
	if err != nil {
		return fmt.Errorf("receiving bases: %w", err)
	}
	b.sifted, b.positions, err = sift(b.bits, b.bases, aBases)
	return err
}

func (a *alice) announceSample() error {
	seed := a.rand.Int63()
	a.checked = sample(a.sifted.Size(), a.checkFrac, seed)
	m, err := structpb.NewStruct(map[string]any{
		fieldSeed:   seedValue(seed),
		fieldSample: bitsValue(bitmap.Gather(a.sifted, a.checked)),
	})
	if err != nil {
		return err
	}
	if err := a.sideChannel.Write(m); err != nil {
		return fmt.Errorf("announcing sampled bits: %w", err)
	}
	return nil
}

func (b *bob) checkSample() (errs int, err error) {
	ba := new(structpb.Struct)
	if err := b.sideChannel.Read(ba); err != nil {
		return 0, fmt.Errorf("receiving sampled bits: %w", err)
	}
	seed, err := seedField(ba)
	if err != nil {
		return 0, fmt.Errorf("receiving sampled bits: %w", err)
	}
	aSampled, err := denseField(ba, fieldSample)
	if err != nil {
		return 0, fmt.Errorf("receiving sampled bits: %w", err)
	}
	b.checked = sample(b.sifted.Size(), b.checkFrac, seed)
	errs, err = countErrors(aSampled, bitmap.Gather(b.sifted, b.checked))
	if err != nil {
		return 0, fmt.Errorf("comparing sampled bits: %w", err)
	}
	qa, err := structpb.NewStruct(map[string]any{
		fieldErrors:  errs,
		fieldChecked: len(b.checked),
	})
	if err != nil {
		return 0, err
	}
	if err := b.sideChannel.Write(qa); err != nil {
		return 0, fmt.Errorf("sending QBER announcement: %w", err)
	}
	return errs, nil
}

func (a *alice) receiveErrors() (checked, errs int, err error) {
	qa := new(structpb.Struct)
	if err := a.sideChannel.Read(qa); err != nil {
		return 0, 0, fmt.Errorf("receiving QBER announcement: %w", err)
	}
	if errs, err = intField(qa, fieldErrors); err != nil {
		return 0, 0, fmt.Errorf("receiving QBER announcement: %w", err)
	}
	if checked, err = intField(qa, fieldChecked); err != nil {
		return 0, 0, fmt.Errorf("receiving QBER announcement: %w", err)
	}
	return checked, errs, nil
}

func basisAt(bases bitmap.Dense, i int) photon.Basis {
	if bases.Get(i) {
		return photon.Diagonal
	}
	return photon.Rectilinear
}

// sift keeps the bits at positions where both parties chose the same basis,
// returning them along with those positions.
func sift(bits, ownBases, otherBases bitmap.Dense) (bitmap.Dense, []int, error) {
	if ownBases.Size() != otherBases.Size() {
		return bitmap.Empty(), nil, fmt.Errorf("sifting %d bases against %d", ownBases.Size(), otherBases.Size())
	}
	mask := bitmap.XNor(ownBases, otherBases)
	return bitmap.Select(bits, mask), bitmap.Positions(mask), nil
}

// checkSize returns how many of n sifted bits are revealed when checking a
// fraction f of them: at least one, and never more than half. Nothing can be
// checked out of nothing.
func checkSize(n int, f float64) int {
	if n == 0 {
		return 0
	}
	return max(1, min(int(float64(n)*f), n/2))
}

// sample returns the sorted indices, into n sifted bits, that are revealed for
// error estimation. Both parties derive the same indices from the announced
// seed.
func sample(n int, f float64, seed int64) []int {
	k := checkSize(n, f)
	idx := rand.New(rand.NewSource(seed)).Perm(n)[:k]
	sort.Ints(idx)
	return idx
}

func countErrors(a, b bitmap.Dense) (int, error) {
	return bitmap.Hamming(a, b)
}

// extract returns the first length unchecked bits of sifted, along with the
// total number of unchecked bits available. The key is short iff available is
// less than length.
func extract(sifted bitmap.Dense, checked []int, length int) (key bitmap.Dense, available int) {
	mask := bitmap.Not(bitmap.NewDense(nil, sifted.Size()))
	for _, i := range checked {
		mask.Set(i, false)
	}
	unchecked := bitmap.Select(sifted, mask)
	available = unchecked.Size()
	if available < length {
		return unchecked, available
	}
	key, _ = bitmap.Slice(unchecked, 0, length)
	return key, available
}
