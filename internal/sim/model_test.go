package sim

import "testing"

func TestApplyBps(t *testing.T) {
	cases := []struct {
		v, bps, want int64
	}{
		{Rupees(100), 1_000, Rupees(10)},
		{5, 1_000, 1},
		{-5, 1_000, -1},
		{4, 1_000, 0},
		{-Rupees(100), 250, -Rupees(2) - 50},
		// v * bps is well past int64 here.
		{Rupees(100_000_000_000_000), 1_000, Rupees(10_000_000_000_000)},
		{Rupees(50_000_000_000_000), 40, Rupees(200_000_000_000)},
	}
	for _, tc := range cases {
		if got := applyBps(tc.v, tc.bps); got != tc.want {
			t.Fatalf("applyBps(%d, %d)=%d want %d", tc.v, tc.bps, got, tc.want)
		}
	}
}
