package server

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/gowebpki/jcs"
)

// effectiveConfig is a request after defaults are applied. Its digest
// identifies a reproducible session: equal digests mean equal results.
type effectiveConfig struct {
	KeyLength              int     `json:"key_length"`
	WithEavesdropper       bool    `json:"with_eavesdropper"`
	InterceptRate          float64 `json:"eavesdropper_intercept_rate"`
	TransmissionMultiplier int     `json:"transmission_multiplier"`
	ChannelNoise           float64 `json:"channel_noise"`
	CheckFraction          float64 `json:"check_fraction"`
	MaxAttempts            int     `json:"max_attempts"`
	Seed                   int64   `json:"seed"`
	Runs                   int     `json:"runs,omitempty"`
}

// digest returns the sha256 of the RFC 8785 canonical JSON form of v.
func digest(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
