package utils

import "testing"

func TestAtoiDefault(t *testing.T) {
	cases := []struct {
		s    string
		def  int
		want int
	}{
		{"", 10, 10},
		{"42", 0, 42},
		{"-13", 1, -13},
		{" 42 ", 7, 42},
		{"x", 5, 5},
		{"4.2", 3, 3},
		{"999999999999999999999999", -1, -1},
	}
	for _, tc := range cases {
		if got := AtoiDefault(tc.s, tc.def); got != tc.want {
			t.Fatalf("AtoiDefault(%q, %d) = %d; want %d", tc.s, tc.def, got, tc.want)
		}
	}
}

func TestParsePage(t *testing.T) {
	cases := []struct {
		page, size         string
		wantPage, wantSize int
	}{
		{"", "", 1, 50},
		{"3", "20", 3, 20},
		{"0", "0", 1, 1},
		{"-2", "-5", 1, 1},
		{"x", "1000", 1, 200},
		{"7", "200", 7, 200},
	}
	for _, tc := range cases {
		p, s := ParsePage(tc.page, tc.size, 50, 200)
		if p != tc.wantPage || s != tc.wantSize {
			t.Fatalf("ParsePage(%q, %q) = %d, %d; want %d, %d", tc.page, tc.size, p, s, tc.wantPage, tc.wantSize)
		}
	}
}
