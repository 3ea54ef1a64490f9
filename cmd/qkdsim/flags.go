package main

import (
	"fmt"
	"os"
	"time"

	"github.com/alan-christopher/qkdsim/bb84"
	"github.com/alan-christopher/qkdsim/bb84/eve"
	"github.com/alan-christopher/qkdsim/internal/config"
	"github.com/alan-christopher/qkdsim/internal/logging"
	"github.com/charmbracelet/log"
	flag "github.com/spf13/pflag"
)

// sessionFlags are the protocol parameters shared by run and batch. Unset
// flags fall back to the config file's defaults.
type sessionFlags struct {
	fs *flag.FlagSet

	configPath  string
	logLevel    string
	keyLength   int
	multiplier  int
	eavesdrop   bool
	rate        float64
	noise       float64
	checkFrac   float64
	maxAttempts int
	seed        int64
}

func newSessionFlags(name string) *sessionFlags {
	f := &sessionFlags{fs: flag.NewFlagSet(name, flag.ExitOnError)}
	f.fs.StringVar(&f.configPath, "config", "", "TOML config file supplying defaults.")
	f.fs.StringVar(&f.logLevel, "log-level", "", "Log level; overrides the config file.")
	f.fs.IntVarP(&f.keyLength, "key-length", "l", 0, "Final key length in bits.")
	f.fs.IntVarP(&f.multiplier, "multiplier", "m", 0, "Qubits transmitted per final key bit.")
	f.fs.BoolVarP(&f.eavesdrop, "eve", "e", false, "Route qubits through an intercept-resend eavesdropper.")
	f.fs.Float64Var(&f.rate, "intercept-rate", 0, "Fraction of qubits the eavesdropper intercepts.")
	f.fs.Float64Var(&f.noise, "noise", 0, "Probability the channel flips a bit.")
	f.fs.Float64Var(&f.checkFrac, "check-fraction", 0, "Fraction of sifted bits disclosed to estimate the QBER.")
	f.fs.IntVar(&f.maxAttempts, "max-attempts", 0, "Sessions to try before giving up on a short key.")
	f.fs.Int64VarP(&f.seed, "seed", "s", 0, "Random seed. Defaults to the current time.")
	return f
}

// load reads the config file, if any, and builds the logger.
func (f *sessionFlags) load() (*config.Config, *log.Logger, error) {
	return loadConfig(f.configPath, f.logLevel)
}

func loadConfig(path, level string) (*config.Config, *log.Logger, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, nil, err
		}
	}
	if level != "" {
		cfg.Log.Level = level
	}
	logger, err := logging.New(os.Stderr, cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// engineConfig merges the flags that were set over cfg's defaults.
func (f *sessionFlags) engineConfig(cfg *config.Config) bb84.Config {
	d := cfg.Defaults
	c := bb84.Config{
		KeyLength:              d.KeyLength,
		TransmissionMultiplier: d.TransmissionMultiplier,
		ChannelNoise:           f.noise,
		CheckFraction:          d.CheckFraction,
		MaxAttempts:            d.MaxAttempts,
		Seed:                   f.seed,
	}
	if f.fs.Changed("key-length") {
		c.KeyLength = f.keyLength
	}
	if f.fs.Changed("multiplier") {
		c.TransmissionMultiplier = f.multiplier
	}
	if f.fs.Changed("check-fraction") {
		c.CheckFraction = f.checkFrac
	}
	if f.fs.Changed("max-attempts") {
		c.MaxAttempts = f.maxAttempts
	}
	if f.eavesdrop || f.fs.Changed("intercept-rate") {
		rate := d.InterceptRate
		if f.fs.Changed("intercept-rate") {
			rate = f.rate
		}
		c.Eavesdropper = &eve.Config{InterceptRate: rate}
	}
	if !f.fs.Changed("seed") {
		c.Seed = time.Now().UnixNano()
	}
	return c
}

func (f *sessionFlags) describe(c bb84.Config) string {
	rate := "off"
	if c.Eavesdropper != nil {
		rate = fmt.Sprintf("%.2f", c.Eavesdropper.InterceptRate)
	}
	return fmt.Sprintf("L=%d M=%d eve=%s noise=%.3f seed=%d",
		c.KeyLength, c.TransmissionMultiplier, rate, c.ChannelNoise, c.Seed)
}
