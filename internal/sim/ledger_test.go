package sim

import "testing"

func TestApplyCashDeltaFloorsAtZero(t *testing.T) {
	log := NewTxLog(10)
	led := NewLedger(Rupees(100), log)

	if got := led.applyCashDelta(1, -Rupees(250), CategoryExpense, "rent"); got != -Rupees(100) {
		t.Fatalf("applied=%d want %d", got, -Rupees(100))
	}
	if led.Cash() != 0 {
		t.Fatalf("cash=%d want 0", led.Cash())
	}
	if got := led.applyCashDelta(2, -Rupees(5), CategoryExpense, "nothing left"); got != 0 {
		t.Fatalf("applied=%d want 0", got)
	}
	if log.Len() != 1 {
		t.Fatalf("log len=%d want 1 (zero deltas are not logged)", log.Len())
	}
}

func TestApplyPenaltyDeltaGoesNegative(t *testing.T) {
	log := NewTxLog(10)
	led := NewLedger(Rupees(10), log)
	led.applyPenaltyDelta(3, -Rupees(50), CategoryPenalty, "fee")
	if led.Cash() != -Rupees(40) {
		t.Fatalf("cash=%d want %d", led.Cash(), -Rupees(40))
	}
	// Income while negative still lands in full.
	led.applyCashDelta(4, Rupees(15), CategoryIncome, "salary")
	if led.Cash() != -Rupees(25) {
		t.Fatalf("cash=%d want %d", led.Cash(), -Rupees(25))
	}
	// Spending while negative is absorbed by the floor.
	led.applyCashDelta(5, -Rupees(5), CategoryExpense, "snack")
	if led.Cash() != -Rupees(25) {
		t.Fatalf("cash=%d want %d", led.Cash(), -Rupees(25))
	}
}

func TestMonthlyNettingAndAggregates(t *testing.T) {
	log := NewTxLog(10)
	led := NewLedger(Rupees(1_000), log)
	led.setMainIncome(Rupees(500))
	led.setSideIncomeLine(IncomeManual, Rupees(100))
	led.setExpenseLine(ExpenseLiving, Rupees(300))
	led.setExpenseLine(ExpenseAssets, Rupees(50))

	led.applyMonthlyNetting(29)
	if want := Rupees(1_000 + 500 + 100 - 300 - 50); led.Cash() != want {
		t.Fatalf("cash=%d want %d", led.Cash(), want)
	}
	if log.Len() != 2 {
		t.Fatalf("log len=%d want 2", log.Len())
	}

	led.recomputeAggregates(Rupees(200), Rupees(700))
	st := led.state()
	if st.NetWorth != st.Cash+Rupees(200)-Rupees(700) {
		t.Fatalf("net worth=%d", st.NetWorth)
	}
	if st.Cashflow != Rupees(500+100-300-50) {
		t.Fatalf("cashflow=%d", st.Cashflow)
	}
}

func TestSideIncomeLineReplaces(t *testing.T) {
	led := NewLedger(0, NewTxLog(1))
	led.setSideIncomeLine(IncomeBusiness, Rupees(10))
	led.setSideIncomeLine(IncomeBusiness, Rupees(10))
	if led.SideIncome() != Rupees(10) {
		t.Fatalf("side income=%d want %d", led.SideIncome(), Rupees(10))
	}
	led.setSideIncomeLine(IncomeBusiness, 0)
	if _, ok := led.state().SideIncome[IncomeBusiness]; ok {
		t.Fatalf("expected zero line to be removed")
	}
}

func TestTxLogWindow(t *testing.T) {
	log := NewTxLog(3)
	for i := 1; i <= 5; i++ {
		log.Append(uint32(i), int64(i), CategoryIncome, "tick")
	}
	if log.Len() != 3 {
		t.Fatalf("len=%d want 3", log.Len())
	}
	recent := log.Recent(0)
	if recent[0].Day != 5 || recent[2].Day != 3 {
		t.Fatalf("unexpected order: first day=%d last day=%d", recent[0].Day, recent[2].Day)
	}
	if got := log.Recent(1); len(got) != 1 || got[0].Amount != 5 {
		t.Fatalf("recent(1)=%v", got)
	}
}

func TestClockRollover(t *testing.T) {
	c := NewClock()
	var months, years int
	for i := uint32(0); i < DaysPerYear; i++ {
		r := c.tick()
		if r.Month {
			months++
		}
		if r.Year {
			years++
		}
	}
	if months != int(MonthsPerYear) || years != 1 {
		t.Fatalf("months=%d years=%d", months, years)
	}
	if c.Day != 1 || c.Month != 1 || c.Year != 2 || c.TotalDays != DaysPerYear+1 {
		t.Fatalf("clock=%+v", c)
	}
	if err := c.valid(); err != nil {
		t.Fatalf("valid: %v", err)
	}
}
