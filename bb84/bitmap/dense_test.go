package bitmap

import (
	"testing"
)

func TestDenseGet(t *testing.T) {
	tcs := []struct {
		name  string
		data  Dense
		edata string
	}{
		{"implicit zeros", NewDense(nil, 3), "000"},
		{"aligned", mustDense(t, "10101010"), "10101010"},
		{"multibyte", mustDense(t, "00000000 101"), "00000000101"},
		{"dirty source byte", NewDense([]byte{0xFF}, 3), "111"},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.data.String(); got != tc.edata {
				t.Errorf("got %s, want %s", got, tc.edata)
			}
			if tc.data.Get(tc.data.Size()) || tc.data.Get(-1) {
				t.Errorf("out of range Get returned true")
			}
		})
	}
}

func TestDenseAppendBit(t *testing.T) {
	tcs := []struct {
		name string
		a    Dense
		bits string
		eout string
	}{
		{"empty", Empty(), "10", "10"},
		{"no alloc", mustDense(t, "101"), "111", "101111"},
		{"aligned", mustDense(t, "10101010"), "01", "1010101001"},
		{"crosses byte", mustDense(t, "1010101"), "011", "1010101011"},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			for _, c := range tc.bits {
				tc.a.AppendBit(c == '1')
			}
			if tc.a.Size() != len(tc.eout) {
				t.Errorf("got bitmap of len %d, want %d", tc.a.Size(), len(tc.eout))
			}
			if got := tc.a.String(); got != tc.eout {
				t.Errorf("got %s, want %s", got, tc.eout)
			}
		})
	}
}

func TestDenseSet(t *testing.T) {
	d := NewDense(nil, 10)
	d.Set(9, true)
	d.Set(0, true)
	d.Set(3, true)
	d.Set(3, false)
	if got, want := d.String(), "1000000001"; got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
	d.Set(9, false)
	if got, want := d.String(), "1000000000"; got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
	defer func() {
		if recover() == nil {
			t.Errorf("Set past the end did not panic")
		}
	}()
	d.Set(10, true)
}

func TestNewDenseCopies(t *testing.T) {
	src := []byte{0b1}
	d := NewDense(src, 8)
	src[0] = 0
	if !d.Get(0) {
		t.Errorf("NewDense aliases its input")
	}
	data := d.Data()
	data[0] = 0
	if !d.Get(0) {
		t.Errorf("Data aliases the bitmap")
	}
}
