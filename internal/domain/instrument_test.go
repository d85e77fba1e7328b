package domain

import "testing"

func TestIsValidPrice(t *testing.T) {
	in := Instrument{Symbol: "TEST", TickSize: 1}

	cases := []struct {
		price Price
		want  bool
	}{
		{100, true},
		{0, false},
		{-5, false},
	}
	for _, c := range cases {
		if got := in.IsValidPrice(c.price); got != c.want {
			t.Errorf("IsValidPrice(%d) = %v, want %v", c.price, got, c.want)
		}
	}

	tick5 := Instrument{Symbol: "TEST", TickSize: 5}
	if tick5.IsValidPrice(12) {
		t.Errorf("expected 12 to be invalid for tick size 5")
	}
	if !tick5.IsValidPrice(15) {
		t.Errorf("expected 15 to be valid for tick size 5")
	}
}
