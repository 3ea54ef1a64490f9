// Package bb84 simulates a BB84 quantum key distribution session between two
// legitimate parties, Alice and Bob, optionally attacked by an
// intercept-resend eavesdropper.
//
// A session prepares L*M qubits, carries them across a possibly noisy and
// possibly tapped quantum channel, sifts out positions where the two parties'
// bases disagree, sacrifices a random sample of the sifted bits to estimate
// the quantum bit error rate, and keeps the first L unchecked bits as key.
// All post-processing runs over a framed public channel, so each party only
// ever sees what the other announced.
package bb84

import (
	"errors"
	"math"
	"math/rand"

	"github.com/alan-christopher/qkdsim/bb84/analysis"
	"github.com/alan-christopher/qkdsim/bb84/bitmap"
	"github.com/alan-christopher/qkdsim/bb84/eve"
	"github.com/alan-christopher/qkdsim/bb84/photon"
)

var (
	DefaultTransmissionMultiplier = 4
	DefaultCheckFraction          = 0.1
	DefaultMaxAttempts            = 3
)

// MaxKeyLength bounds Config.KeyLength.
const MaxKeyLength = 1 << 20

// A Config packages together the parameters of a simulated session. Zero
// values select the documented defaults.
type Config struct {
	// KeyLength is the number of final key bits to produce. Must be in
	// [1, MaxKeyLength].
	KeyLength int

	// TransmissionMultiplier scales KeyLength to the number of qubits sent.
	// Defaults to DefaultTransmissionMultiplier. Together with CheckFraction
	// it must promise at least KeyLength unchecked bits in expectation.
	TransmissionMultiplier int

	// Eavesdropper enables an intercept-resend attack. Nil disables it.
	Eavesdropper *eve.Config

	// ChannelNoise is the probability that the channel flips any given bit.
	// Must be in [0, 0.5].
	ChannelNoise float64

	// CheckFraction is the proportion of sifted bits revealed for error
	// estimation. Must be in (0, 0.5]. Defaults to DefaultCheckFraction.
	CheckFraction float64

	// MaxAttempts bounds how many times a session is retried, with fresh
	// randomness, when it yields too few bits. Defaults to
	// DefaultMaxAttempts.
	MaxAttempts int

	// KeepRecord retains a per-position transcript in Result.Record.
	KeepRecord bool

	// Rand provides every random draw of the session. If nil, a source
	// seeded with Seed is used.
	Rand photon.Rand
	Seed int64
}

func (c Config) withDefaults() Config {
	if c.TransmissionMultiplier == 0 {
		c.TransmissionMultiplier = DefaultTransmissionMultiplier
	}
	if c.CheckFraction == 0 {
		c.CheckFraction = DefaultCheckFraction
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	return c
}

// Validate returns a *ConfigError describing the first problem with c, after
// defaults are applied, or nil.
func (c Config) Validate() error {
	c = c.withDefaults()
	if c.KeyLength < 1 || c.KeyLength > MaxKeyLength {
		return &ConfigError{"KeyLength", c.KeyLength, "must be in [1, 1<<20]"}
	}
	if c.TransmissionMultiplier < 2 {
		return &ConfigError{"TransmissionMultiplier", c.TransmissionMultiplier, "must be at least 2"}
	}
	if f := c.CheckFraction; math.IsNaN(f) || f <= 0 || f > 0.5 {
		return &ConfigError{"CheckFraction", f, "must be in (0, 0.5]"}
	}
	// Half the qubits survive sifting on average, and a CheckFraction of
	// those is spent on error estimation.
	if float64(c.TransmissionMultiplier)*0.5*(1-c.CheckFraction) < 1 {
		return &ConfigError{"TransmissionMultiplier", c.TransmissionMultiplier,
			"too small to yield KeyLength unchecked bits in expectation"}
	}
	if c.Eavesdropper != nil {
		if err := c.Eavesdropper.Validate(); err != nil {
			return &ConfigError{"Eavesdropper.InterceptRate", c.Eavesdropper.InterceptRate, err.Error()}
		}
	}
	if n := c.ChannelNoise; math.IsNaN(n) || n < 0 || n > 0.5 {
		return &ConfigError{"ChannelNoise", n, "must be in [0, 0.5]"}
	}
	if c.MaxAttempts < 0 {
		return &ConfigError{"MaxAttempts", c.MaxAttempts, "must not be negative"}
	}
	return nil
}

// A Result describes a successful session.
type Result struct {
	TotalQubits int
	SiftedBits  int
	CheckedBits int
	Errors      int
	// QBER is the observed error rate on the checked bits, in percent.
	QBER float64

	// Key is Alice's final key. Bob's copy differs from it in exactly
	// UndetectedErrors positions.
	Key              bitmap.Dense
	UndetectedErrors int

	// Attempts is the number of sessions run, including the successful one.
	Attempts int

	// Eavesdropper is non-nil iff the session was attacked.
	Eavesdropper *eve.Stats

	// Classical is Alice's view of the public channel.
	Classical Traffic

	// Record is non-nil iff Config.KeepRecord was set.
	Record *Record

	Report analysis.Report
}

// A Record is a full transcript of a session, one Slot per qubit.
type Record struct {
	Slots     []Slot
	SiftedKey SiftedKey
}

// A Slot is everything that happened to a single qubit.
type Slot struct {
	Alice photon.Qubit
	// Eve is nil unless the qubit was intercepted.
	Eve     *photon.Outcome
	Flipped bool
	Bob     photon.Outcome
}

// A SiftedKey holds both parties' bits at the positions where their bases
// agreed.
type SiftedKey struct {
	Positions []int
	Alice     bitmap.Dense
	Bob       bitmap.Dense
}

// Execute runs a session as configured by cfg, retrying up to
// cfg.MaxAttempts times if the random draws leave too few bits for a key.
// Each retry continues drawing from the same source. A compromised session is
// not an error; see Result.Report.Secure.
func Execute(cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	r := cfg.Rand
	if r == nil {
		r = rand.New(rand.NewSource(cfg.Seed))
	}
	var e *eve.Eavesdropper
	if cfg.Eavesdropper != nil {
		var err error
		if e, err = eve.New(*cfg.Eavesdropper); err != nil {
			return nil, &ConfigError{"Eavesdropper.InterceptRate", cfg.Eavesdropper.InterceptRate, err.Error()}
		}
	}

	var available int
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		res, err := newSession(cfg, e, r).run()
		var short *InsufficientMaterialError
		if errors.As(err, &short) {
			available = short.Available
			continue
		}
		if err != nil {
			return nil, err
		}
		res.Attempts = attempt
		return res, nil
	}
	return nil, &InsufficientMaterialError{
		Needed:    cfg.KeyLength,
		Available: available,
		Attempts:  cfg.MaxAttempts,
	}
}
