package core

import (
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.2", 120, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{".5", 50, true},
		{"1.005", 101, true}, // half-up rounding
		{"1.004", 100, true},
		{" 2.50 ", 250, true},
		{"-5", 0, false},
		{"+5", 0, false},
		{"0", 0, false},
		{"0.004", 0, false},
		{"abc", 0, false},
		{"1e3", 0, false},
		{"1.2.3", 0, false},
		{".", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestAverageOf(t *testing.T) {
	cases := []struct {
		total Money
		count int64
		want  string
	}{
		{Money{Cents: 7000}, 3, "23.33"},
		{Money{Cents: 6500}, 2, "32.50"},
		{Money{Cents: 500}, 1, "5.00"},
		{Money{}, 0, "0.00"},
		{Money{Cents: 1234}, 0, "0.00"},
	}
	for _, tc := range cases {
		got := AverageOf(tc.total, tc.count).StringFixed(2)
		if got != tc.want {
			t.Fatalf("AverageOf(%d, %d) = %s, want %s", tc.total.Cents, tc.count, got, tc.want)
		}
	}
}

func TestMoneyString(t *testing.T) {
	if got := (Money{Cents: 1250}).String(); got != "12.50" {
		t.Fatalf("got %q", got)
	}
	if got := (Money{Cents: 7}).Units(); got != 0.07 {
		t.Fatalf("got %v", got)
	}
}
