package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in    string
		cents int64
		ok    bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"42.50", 4250, true},
		{"999999.99", 99_999_999, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"12.34abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"   ", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.cents {
				t.Fatalf("%q expected %d cents, got %d (err=%v)", tc.in, tc.cents, got.Cents, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestParseAmountTooLarge(t *testing.T) {
	for _, in := range []string{"1000000", "1000000.00", "999999.995", "99999999999"} {
		if _, err := ParseAmount(in); err == nil {
			t.Fatalf("%q expected error", in)
		}
	}
	// The boundary itself is accepted.
	if m, err := ParseAmount("999999.99"); err != nil || m.Cents != MaxAmountCents {
		t.Fatalf("boundary: got %d, err=%v", m.Cents, err)
	}
}

func TestMoneyString(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "0.00"},
		{1, "0.01"},
		{100, "1.00"},
		{4250, "42.50"},
		{15000, "150.00"},
		{-250, "-2.50"},
	}
	for _, tc := range cases {
		if got := (Money{Cents: tc.cents}).String(); got != tc.want {
			t.Fatalf("%d cents: expected %q, got %q", tc.cents, tc.want, got)
		}
	}
}

func TestMoneyAdd(t *testing.T) {
	sum := Money{Cents: 10000}.Add(Money{Cents: 5000})
	if sum.Cents != 15000 {
		t.Fatalf("expected 15000, got %d", sum.Cents)
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := (Money{Cents: 4250}).MarshalJSON()
	if err != nil || string(b) != "42.50" {
		t.Fatalf("marshal: got %q, err=%v", b, err)
	}

	var m Money
	if err := m.UnmarshalJSON([]byte("42.50")); err != nil || m.Cents != 4250 {
		t.Fatalf("unmarshal: got %d, err=%v", m.Cents, err)
	}
}
