package sim

import (
	"errors"
	"testing"
)

func TestInvestInSectorRevenue(t *testing.T) {
	e := newTestEngine(t, Params{StartingCash: Rupees(1_000_000)}, quietTuning())

	steps := []struct {
		category ModifierCategory
		modifier string
		revenue  int64
	}{
		{ModifierCity, "pune", Rupees(18_000)},
		{ModifierMenu, "street_menu", Rupees(19_800)},
		{ModifierPricing, "combo_pricing", Rupees(21_384)},
		{ModifierCity, "bengaluru", Rupees(42_768)},
	}
	for _, st := range steps {
		inv, err := e.InvestInSector("food", st.category, st.modifier)
		if err != nil {
			t.Fatalf("invest %s: %v", st.modifier, err)
		}
		if inv.MonthlyRevenue != st.revenue {
			t.Fatalf("after %s revenue=%d want %d", st.modifier, inv.MonthlyRevenue, st.revenue)
		}
		if got := e.LedgerSnapshot().SideIncome[IncomeBusiness]; got != st.revenue {
			t.Fatalf("business line=%d want %d", got, st.revenue)
		}
		checkNetWorth(t, e)
	}

	inv := e.SectorsSnapshot()[0]
	if inv.TotalInvested != Rupees(150_000+40_000+25_000+250_000) {
		t.Fatalf("total invested=%d", inv.TotalInvested)
	}
	if e.LedgerSnapshot().Cash != Rupees(1_000_000)-inv.TotalInvested {
		t.Fatalf("cash=%d", e.LedgerSnapshot().Cash)
	}
}

func TestRevenueRecomputeIsIdempotent(t *testing.T) {
	e := newTestEngine(t, Params{StartingCash: Rupees(1_000_000)}, quietTuning())
	if _, err := e.InvestInSector("retail", ModifierCity, "jaipur"); err != nil {
		t.Fatalf("invest: %v", err)
	}
	if _, err := e.InvestInSector("retail", ModifierLogistics, "hub_spoke"); err != nil {
		t.Fatalf("invest: %v", err)
	}
	first := e.business.recompute(e.ledger)
	side := e.ledger.SideIncome()
	second := e.business.recompute(e.ledger)
	if first != second || side != e.ledger.SideIncome() {
		t.Fatalf("recompute not idempotent: %d/%d side %d/%d", first, second, side, e.ledger.SideIncome())
	}
}

func TestInvestInSectorRejections(t *testing.T) {
	e := newTestEngine(t, Params{StartingCash: Rupees(200_000)}, quietTuning())
	tests := []struct {
		sector   string
		category ModifierCategory
		modifier string
		want     error
	}{
		{"space", ModifierCity, "mars", ErrInvalidAmount},
		{"food", ModifierCity, "paris", ErrInvalidAmount},
		{"food", ModifierMenu, "pune", ErrInvalidAmount},
		{"food", ModifierMenu, "street_menu", ErrConstraintViolation},
		{"food", ModifierCity, "mumbai", ErrInsufficientFunds},
	}
	for _, tc := range tests {
		if _, err := e.InvestInSector(tc.sector, tc.category, tc.modifier); !errors.Is(err, tc.want) {
			t.Fatalf("%s/%s err=%v want %v", tc.sector, tc.modifier, err, tc.want)
		}
	}
	if len(e.SectorsSnapshot()) != 0 || e.LedgerSnapshot().Cash != Rupees(200_000) {
		t.Fatalf("rejections changed state")
	}

	if _, err := e.InvestInSector("food", ModifierCity, "pune"); err != nil {
		t.Fatalf("invest: %v", err)
	}
	if _, err := e.InvestInSector("food", ModifierCity, "pune"); !errors.Is(err, ErrConstraintViolation) {
		t.Fatalf("duplicate err=%v", err)
	}
}

func TestBusinessIncomeArrivesMonthly(t *testing.T) {
	e := newTestEngine(t, Params{StartingCash: Rupees(500_000)}, quietTuning())
	if _, err := e.InvestInSector("saas", ModifierCity, "hyderabad"); err != nil {
		t.Fatalf("invest: %v", err)
	}
	cash := e.LedgerSnapshot().Cash
	if _, err := e.Advance(DaysPerMonth); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if got := e.LedgerSnapshot().Cash; got != cash+Rupees(25_000) {
		t.Fatalf("cash=%d want %d", got, cash+Rupees(25_000))
	}
}
