package main

import (
	"testing"

	"github.com/alan-christopher/qkdsim/internal/config"
)

func TestEngineConfigMergesFlags(t *testing.T) {
	tcs := []struct {
		name      string
		args      []string
		keyLength int
		mult      int
		eveRate   float64 // negative means no eavesdropper
		seed      int64
	}{
		{"defaults", []string{"--seed", "3"}, 256, 4, -1, 3},
		{"overrides", []string{"-l", "512", "-m", "6", "-s", "9"}, 512, 6, -1, 9},
		{"eve at default rate", []string{"--eve", "-s", "1"}, 256, 4, 0.5, 1},
		{"rate implies eve", []string{"--intercept-rate", "0.2", "-s", "1"}, 256, 4, 0.2, 1},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			f := newSessionFlags("test")
			if err := f.fs.Parse(tc.args); err != nil {
				t.Fatalf("Parse(%v): %v", tc.args, err)
			}
			c := f.engineConfig(config.Default())
			if c.KeyLength != tc.keyLength || c.TransmissionMultiplier != tc.mult || c.Seed != tc.seed {
				t.Errorf("got L=%d M=%d seed=%d, want L=%d M=%d seed=%d",
					c.KeyLength, c.TransmissionMultiplier, c.Seed, tc.keyLength, tc.mult, tc.seed)
			}
			switch {
			case tc.eveRate < 0 && c.Eavesdropper != nil:
				t.Errorf("got eavesdropper %+v, want none", *c.Eavesdropper)
			case tc.eveRate >= 0 && (c.Eavesdropper == nil || c.Eavesdropper.InterceptRate != tc.eveRate):
				t.Errorf("got eavesdropper %v, want rate %v", c.Eavesdropper, tc.eveRate)
			}
			if err := c.Validate(); err != nil {
				t.Errorf("merged config invalid: %v", err)
			}
		})
	}
}
