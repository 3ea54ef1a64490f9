package bitmap

import (
	"testing"
)

func TestBinaryOperators(t *testing.T) {
	tcs := []struct {
		name string
		a, b Dense
		eout Dense
		op   func(a, b Dense) Dense
	}{
		{
			name: "XOR short b",
			b:    mustDense(t, "01111000"),
			a:    mustDense(t, "101"),
			eout: mustDense(t, "11011000"),
			op:   XOr,
		}, {
			name: "XOR multibyte",
			b:    mustDense(t, "0111 1000 1011 1011"),
			a:    mustDense(t, "1010 1010 1100 0110"),
			eout: mustDense(t, "1101 0010 0111 1101"),
			op:   XOr,
		}, {
			name: "XNOR aligned",
			a:    mustDense(t, "10100000"),
			b:    mustDense(t, "01100000"),
			eout: mustDense(t, "00111111"),
			op:   XNor,
		}, {
			name: "XNOR short a",
			a:    mustDense(t, "101"),
			b:    mustDense(t, "01111000"),
			eout: mustDense(t, "00100111"),
			op:   XNor,
		}, {
			name: "XNOR unaligned",
			a:    mustDense(t, "1010 1010 11"),
			b:    mustDense(t, "1010 1010 10"),
			eout: mustDense(t, "1111 1111 10"),
			op:   XNor,
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			out := tc.op(tc.a, tc.b)
			if out.Size() != tc.eout.Size() {
				t.Fatalf("got bitmap of len %d, want %d", out.Size(), tc.eout.Size())
			}
			if out.String() != tc.eout.String() {
				t.Errorf("got %v, want %v", out, tc.eout)
			}
		})
	}
}

func TestNot(t *testing.T) {
	tcs := []struct {
		name string
		a    Dense
		eout Dense
	}{
		{
			name: "one byte",
			a:    mustDense(t, "10100000"),
			eout: mustDense(t, "01011111"),
		}, {
			name: "multi-bytes",
			a:    mustDense(t, "1010 1101 0000 0101"),
			eout: mustDense(t, "0101 0010 1111 1010"),
		}, {
			name: "unaligned",
			a:    mustDense(t, "101"),
			eout: mustDense(t, "010"),
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			out := Not(tc.a)
			if out.String() != tc.eout.String() {
				t.Errorf("Not(%v) == %v, want %v", tc.a, out, tc.eout)
			}
			if CountOnes(out)+CountOnes(tc.a) != tc.a.Size() {
				t.Errorf("Not(%v) leaked bits past its length", tc.a)
			}
		})
	}
}

func TestSlice(t *testing.T) {
	tcs := []struct {
		name  string
		start int
		end   int
		bits  Dense
		eout  Dense
	}{
		{
			name:  "full slice",
			bits:  mustDense(t, "11101101"),
			start: 0,
			end:   8,
			eout:  mustDense(t, "11101101"),
		}, {
			name: "empty slice",
			bits: mustDense(t, "11101101"),
			eout: mustDense(t, ""),
		}, {
			name:  "aligned",
			bits:  mustDense(t, "10000010 11101101 01000001"),
			start: 8,
			end:   16,
			eout:  mustDense(t, "11101101"),
		}, {
			name:  "unaligned start",
			bits:  mustDense(t, "10000010 11101101 01000001"),
			start: 1,
			end:   16,
			eout:  mustDense(t, "0000010 11101101"),
		}, {
			name:  "unaligned end",
			bits:  mustDense(t, "11111111 00000000 1000 0000"),
			start: 8,
			end:   17,
			eout:  mustDense(t, "00000000 1"),
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			out, err := Slice(tc.bits, tc.start, tc.end)
			if err != nil {
				t.Fatalf("slice(%d, %d) = %v, want nil error", tc.start, tc.end, err)
			}
			if out.String() != tc.eout.String() {
				t.Errorf("Slice(%v, %d, %d) == %v, want %v", tc.bits, tc.start, tc.end, out, tc.eout)
			}
		})
	}
}

func TestSliceBounds(t *testing.T) {
	d := mustDense(t, "1010")
	for _, r := range [][2]int{{-1, 2}, {3, 2}, {0, 5}} {
		if _, err := Slice(d, r[0], r[1]); err == nil {
			t.Errorf("Slice(%v, %d, %d) succeeded, want error", d, r[0], r[1])
		}
	}
}
