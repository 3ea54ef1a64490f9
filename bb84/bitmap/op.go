package bitmap

import "fmt"

// XOr returns the bitwise XOR of two bitmaps. The shorter operand is padded
// with implicit zeros.
func XOr(a, b Dense) Dense {
	return combine(a, b, func(x, y byte) byte { return x ^ y })
}

// XNor returns the bitwise equality of two bitmaps. The shorter operand is
// padded with implicit zeros.
func XNor(a, b Dense) Dense {
	return combine(a, b, func(x, y byte) byte { return ^(x ^ y) })
}

// Not returns the bitwise negation of a bitmap.
func Not(d Dense) Dense {
	r := NewDense(nil, d.len)
	for i, b := range d.bits {
		r.bits[i] = ^b
	}
	r.clearTail()
	return r
}

// Slice returns a copy of bits [start, end) of d.
func Slice(d Dense, start, end int) (Dense, error) {
	if start < 0 {
		return Dense{}, fmt.Errorf("slicing bitmap with negative start: %d", start)
	}
	if end < start {
		return Dense{}, fmt.Errorf("slicing bitmap to negative length: %d", end-start)
	}
	if end > d.len {
		return Dense{}, fmt.Errorf("slicing bitmap of len %d up to %d", d.len, end)
	}
	if start%byteSize == 0 {
		return NewDense(d.bits[start/byteSize:BytesFor(end)], end-start), nil
	}
	r := NewDense(nil, end-start)
	for i := start; i < end; i++ {
		if d.Get(i) {
			r.Set(i-start, true)
		}
	}
	return r, nil
}

func order(a, b Dense) (short, long Dense) {
	if b.len < a.len {
		return b, a
	}
	return a, b
}

func combine(a, b Dense, f func(x, y byte) byte) Dense {
	short, long := order(a, b)
	r := NewDense(nil, long.len)
	for i := range r.bits {
		var x byte
		if i < len(short.bits) {
			x = short.bits[i]
		}
		r.bits[i] = f(x, long.bits[i])
	}
	r.clearTail()
	return r
}
