package main

import (
	"testing"

	"finsim/internal/sim"
)

func TestFormatPaise(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "Rs 0.00"},
		{5, "Rs 0.05"},
		{sim.Rupees(1_234_567) + 89, "Rs 1,234,567.89"},
		{-sim.Rupees(1_000), "-Rs 1,000.00"},
	}
	for _, tc := range tests {
		if got := formatPaise(tc.in); got != tc.want {
			t.Fatalf("formatPaise(%d)=%q want %q", tc.in, got, tc.want)
		}
	}
	if got := signedPaise(sim.Rupees(1)); got != "+Rs 1.00" {
		t.Fatalf("signedPaise=%q", got)
	}
}

func TestArgParsing(t *testing.T) {
	if v, err := rupeesArg("12.5"); err != nil || v != 1250 {
		t.Fatalf("rupeesArg=%d err=%v", v, err)
	}
	for _, bad := range []string{"0", "-1", "abc"} {
		if _, err := rupeesArg(bad); err == nil {
			t.Fatalf("rupeesArg(%q) should fail", bad)
		}
	}
	if on, err := onOff("ON"); err != nil || !on {
		t.Fatalf("onOff(ON)=%v err=%v", on, err)
	}
	if _, err := onOff("maybe"); err == nil {
		t.Fatalf("onOff(maybe) should fail")
	}
	if _, err := positiveInt("0", "days"); err == nil {
		t.Fatalf("positiveInt(0) should fail")
	}
}

func TestPlayReportDedupe(t *testing.T) {
	m := newPlayModel(t.Context(), nil, "http://localhost:8080", "s1")
	r := sim.AdvanceReport{Days: 1, To: sim.Clock{TotalDays: 2}, Events: []sim.Event{{Day: 2, Kind: sim.EventEMIPaid}}}
	m.pushReport(r)
	m.pushReport(r)
	if len(m.events) != 1 {
		t.Fatalf("events=%d want 1", len(m.events))
	}
	for i := 0; i < maxPlayEvents+3; i++ {
		m.pushReport(sim.AdvanceReport{Days: 1, To: sim.Clock{TotalDays: uint32(3 + i)}, Events: []sim.Event{{Day: uint32(3 + i)}}})
	}
	if len(m.events) != maxPlayEvents {
		t.Fatalf("events=%d want %d", len(m.events), maxPlayEvents)
	}
}
