package bitmap

import (
	"encoding/base64"
	"fmt"
	"strings"
)

const hexDigits = "0123456789ABCDEF"

// String renders d as a string of '0's and '1's, first bit first.
func (d Dense) String() string {
	var sb strings.Builder
	sb.Grow(d.len)
	for i := 0; i < d.len; i++ {
		if d.Get(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// Hex renders d as upper-case hexadecimal, reading each run of four bits
// most-significant first. A trailing partial nibble is padded with zeros.
func (d Dense) Hex() string {
	var sb strings.Builder
	sb.Grow(BytesFor(d.len) * 2)
	for i := 0; i < d.len; i += 4 {
		var v int
		for j := 0; j < 4; j++ {
			v <<= 1
			if d.Get(i + j) {
				v |= 1
			}
		}
		sb.WriteByte(hexDigits[v])
	}
	return sb.String()
}

// MSBBytes packs d into bytes with the first bit as the most significant bit
// of the first byte. This is the usual wire order for key material, and the
// reverse of the order Data uses.
func (d Dense) MSBBytes() []byte {
	r := make([]byte, BytesFor(d.len))
	for i := 0; i < d.len; i++ {
		if d.Get(i) {
			r[i/byteSize] |= 0x80 >> (i % byteSize)
		}
	}
	return r
}

// Base64 renders MSBBytes() in standard, padded base64.
func (d Dense) Base64() string {
	if d.len == 0 {
		return ""
	}
	return base64.StdEncoding.EncodeToString(d.MSBBytes())
}

// Format names one of the textual key renderings.
type Format string

const (
	FormatBinary Format = "binary"
	FormatHex    Format = "hex"
	FormatBase64 Format = "base64"
)

// Grouped renders d in format f, splitting it into space separated groups of
// group characters. A non-positive group disables grouping.
func Grouped(d Dense, f Format, group int) (string, error) {
	var raw string
	switch f {
	case FormatBinary:
		raw = d.String()
	case FormatHex:
		raw = d.Hex()
	case FormatBase64:
		raw = d.Base64()
	default:
		return "", fmt.Errorf("unknown key format %q", f)
	}
	if group <= 0 || len(raw) <= group {
		return raw, nil
	}
	parts := make([]string, 0, len(raw)/group+1)
	for i := 0; i < len(raw); i += group {
		parts = append(parts, raw[i:min(i+group, len(raw))])
	}
	return strings.Join(parts, " "), nil
}
