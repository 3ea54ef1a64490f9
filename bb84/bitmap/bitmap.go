// Package bitmap provides utilities for operating on densely-packed arrays of
// booleans, and for rendering them as shareable key material.
package bitmap

import (
	"fmt"
	"math/bits"
)

const byteSize = 8

// Select selects a subset of bits from data, according to which bits are set in
// mask.
func Select(data, mask Dense) Dense {
	var d Dense
	for i := 0; i < data.Size(); i++ {
		if !mask.Get(i) {
			continue
		}
		d.AppendBit(data.Get(i))
	}
	return d
}

// Positions returns the indices of the set bits of mask, in increasing order.
func Positions(mask Dense) []int {
	r := make([]int, 0, CountOnes(mask))
	for i := 0; i < mask.Size(); i++ {
		if mask.Get(i) {
			r = append(r, i)
		}
	}
	return r
}

// Gather returns the bits of data at the given indices, in the order given.
func Gather(data Dense, idx []int) Dense {
	r := NewDense(nil, len(idx))
	for i, j := range idx {
		if data.Get(j) {
			r.Set(i, true)
		}
	}
	return r
}

// Empty returns an empty, dense bit array.
func Empty() Dense {
	return Dense{}
}

// FromString converts a string of '1's and '0's to a Dense. Spaces are
// ignored.
func FromString(s string) (Dense, error) {
	d := Dense{}
	for _, c := range s {
		switch c {
		case '1':
			d.AppendBit(true)
		case '0':
			d.AppendBit(false)
		case ' ':
			continue
		default:
			return Dense{}, fmt.Errorf("invalid bitmap string rep: %s", s)
		}
	}
	return d, nil
}

// CountOnes returns the total number of bits set in d, i.e. its Hamming
// weight.
func CountOnes(d Dense) int {
	var sum int
	for _, b := range d.bits {
		sum += bits.OnesCount8(b)
	}
	return sum
}

// Hamming returns the number of positions at which a and b differ. Bitmaps of
// different lengths are an error.
func Hamming(a, b Dense) (int, error) {
	if a.Size() != b.Size() {
		return 0, fmt.Errorf("hamming distance of bitmaps with different lengths: %d != %d", a.Size(), b.Size())
	}
	return CountOnes(XOr(a, b)), nil
}

// BytesFor returns the number of bytes necessary to hold the provided number of
// bits.
func BytesFor(bits int) int {
	return (bits + byteSize - 1) / byteSize
}
