package bitmap

import (
	"reflect"
	"testing"
)

func mustDense(t *testing.T, s string) Dense {
	d, err := FromString(s)
	if err != nil {
		t.Fatalf("bugged test setup: %v", err)
	}
	return d
}

func TestSelect(t *testing.T) {
	tcs := []struct {
		name string
		data Dense
		mask Dense
		eout Dense
	}{
		{
			name: "all",
			data: mustDense(t, "101"),
			mask: mustDense(t, "111"),
			eout: mustDense(t, "101"),
		}, {
			name: "some",
			data: mustDense(t, "10100011"),
			mask: mustDense(t, "11111100"),
			eout: mustDense(t, "101000"),
		}, {
			name: "short mask",
			data: mustDense(t, "10100011 111"),
			mask: mustDense(t, "1"),
			eout: mustDense(t, "1"),
		}, {
			name: "none",
			data: mustDense(t, "10100011 111"),
			mask: mustDense(t, "00000000 000"),
			eout: mustDense(t, ""),
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			out := Select(tc.data, tc.mask)
			if out.String() != tc.eout.String() {
				t.Errorf("Select(%v, %v) == %v, want %v", tc.data, tc.mask, out, tc.eout)
			}
		})
	}
}

func TestPositionsAndGather(t *testing.T) {
	data := mustDense(t, "0110 1001 1")
	mask := mustDense(t, "1100 0011 1")

	pos := Positions(mask)
	if want := []int{0, 1, 6, 7, 8}; !reflect.DeepEqual(pos, want) {
		t.Fatalf("Positions(%v) == %v, want %v", mask, pos, want)
	}
	got := Gather(data, pos)
	if want := Select(data, mask); got.String() != want.String() {
		t.Errorf("Gather(%v, %v) == %v, want %v", data, pos, got, want)
	}
	rev := Gather(data, []int{8, 7, 1})
	if want := mustDense(t, "111"); rev.String() != want.String() {
		t.Errorf("Gather out of order == %v, want %v", rev, want)
	}
}

func TestCountOnes(t *testing.T) {
	tcs := []struct {
		name string
		data Dense
		eout int
	}{
		{"short", mustDense(t, "101"), 2},
		{"empty", mustDense(t, ""), 0},
		{"multibyte one", mustDense(t, "1111 1111 11"), 10},
		{"multibyte two", mustDense(t, "1011 1011 10"), 7},
		{"dirty source bytes", NewDense([]byte{0xFF}, 3), 3},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			out := CountOnes(tc.data)
			if out != tc.eout {
				t.Errorf("CountOnes(%v) == %v, want %v", tc.data, out, tc.eout)
			}
		})
	}
}

func TestHamming(t *testing.T) {
	a := mustDense(t, "1010 1101 0000 1111")
	b := mustDense(t, "1010 0101 0000 1110")
	d, err := Hamming(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != 2 {
		t.Errorf("Hamming(%v, %v) == %d, want 2", a, b, d)
	}
	if _, err := Hamming(a, mustDense(t, "1")); err == nil {
		t.Errorf("expected error for mismatched lengths")
	}
}
