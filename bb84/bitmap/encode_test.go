package bitmap

import "testing"

func TestEncodings(t *testing.T) {
	tcs := []struct {
		name   string
		bits   string
		binary string
		hex    string
		b64    string
	}{
		{"empty", "", "", "", ""},
		{"one byte", "1010 1101", "10101101", "AD", "rQ=="},
		{"two bytes", "1010 1101 1100 0011", "1010110111000011", "ADC3", "rcM="},
		{"partial nibble", "101", "101", "A", "oA=="},
		{"partial byte", "1111 0000 1", "111100001", "F08", "8IA="},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			d := mustDense(t, tc.bits)
			if got := d.String(); got != tc.binary {
				t.Errorf("String() == %q, want %q", got, tc.binary)
			}
			if got := d.Hex(); got != tc.hex {
				t.Errorf("Hex() == %q, want %q", got, tc.hex)
			}
			if got := d.Base64(); got != tc.b64 {
				t.Errorf("Base64() == %q, want %q", got, tc.b64)
			}
		})
	}
}

func TestGrouped(t *testing.T) {
	d := mustDense(t, "1010 1101 1100 0011")
	tcs := []struct {
		f     Format
		group int
		want  string
	}{
		{FormatHex, 2, "AD C3"},
		{FormatBinary, 4, "1010 1101 1100 0011"},
		{FormatBinary, 0, "1010110111000011"},
		{FormatBase64, 8, "rcM="},
	}
	for _, tc := range tcs {
		t.Run(string(tc.f), func(t *testing.T) {
			got, err := Grouped(d, tc.f, tc.group)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("Grouped(%v, %s, %d) == %q, want %q", d, tc.f, tc.group, got, tc.want)
			}
		})
	}
	if _, err := Grouped(d, "octal", 2); err == nil {
		t.Errorf("expected error for unknown format")
	}
}
