package bitmap

// A Dense is a bitmap where every bit is explicitly represented. Bit i lives
// in byte i/8 at position i%8. Bits past Size() are always zero.
type Dense struct {
	bits []byte
	len  int
}

// NewDense returns a new dense bitmap whose contents are a copy of data, and
// whose length is bitLen. If bitLen is longer than data, then trailing zeros
// are added. If bitLen is negative, then it is inferred from data.
func NewDense(data []byte, bitLen int) Dense {
	if bitLen < 0 {
		bitLen = len(data) * byteSize
	}
	r := Dense{
		bits: make([]byte, BytesFor(bitLen)),
		len:  bitLen,
	}
	copy(r.bits, data)
	r.clearTail()
	return r
}

// Get returns the i-th bit in this bitmap. Out of range bits read as zero.
func (d Dense) Get(i int) bool {
	if i < 0 || i >= d.len {
		return false
	}
	return d.bits[i/byteSize]&(1<<(i%byteSize)) != 0
}

// Set assigns the i-th bit. It panics if i is out of range.
func (d *Dense) Set(i int, v bool) {
	if i < 0 || i >= d.len {
		panic("bitmap: index out of range")
	}
	j, pos := i/byteSize, i%byteSize
	if v {
		d.bits[j] |= 1 << pos
	} else {
		d.bits[j] &^= 1 << pos
	}
}

// Size returns the number of bits in this bitmap.
func (d Dense) Size() int {
	return d.len
}

// Data returns a copy of the bytes underlying this bitmap.
func (d Dense) Data() []byte {
	r := make([]byte, len(d.bits))
	copy(r, d.bits)
	return r
}

// AppendBit adds a single bit to the end of d.
func (d *Dense) AppendBit(bit bool) {
	if d.len%byteSize == 0 {
		d.bits = append(d.bits, 0)
	}
	d.len++
	if bit {
		d.bits[(d.len-1)/byteSize] |= 1 << ((d.len - 1) % byteSize)
	}
}

// clearTail zeroes the unused high bits of the last byte.
func (d *Dense) clearTail() {
	if off := d.len % byteSize; off != 0 {
		d.bits[len(d.bits)-1] &= 0xFF >> (byteSize - off)
	}
}
