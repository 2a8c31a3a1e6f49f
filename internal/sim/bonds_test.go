package sim

import (
	"errors"
	"math/rand/v2"
	"testing"
)

func TestJunkBondDefaultRate(t *testing.T) {
	const n = 10_000
	book := newBook(0)
	led := NewLedger(Rupees(n), NewTxLog(n+10))
	for i := 0; i < n; i++ {
		if _, err := book.purchaseBond(led, 1, BondJunk, Rupees(1), 1_200, 1); err != nil {
			t.Fatalf("purchase %d: %v", i, err)
		}
	}

	rng := rand.New(rand.NewPCG(20240601, 99))
	events := book.maturityPass(led, 29, rng, DefaultTuning().JunkDefaultChanceBps)
	if len(events) != n {
		t.Fatalf("settled %d bonds, want %d", len(events), n)
	}
	defaulted := 0
	for _, b := range book.Bonds {
		switch b.Status {
		case BondDefaulted:
			defaulted++
		case BondMatured:
		default:
			t.Fatalf("bond %s still %s", b.ID, b.Status)
		}
	}
	// 10% expected; the band is a little over three standard deviations.
	if defaulted < 900 || defaulted > 1_100 {
		t.Fatalf("defaulted %d of %d", defaulted, n)
	}
	want := int64(n-defaulted) * (Rupees(1) + applyBps(Rupees(1), 1_200))
	if led.Cash() != want {
		t.Fatalf("cash=%d want %d", led.Cash(), want)
	}
}

func TestSafeBondsNeverDefault(t *testing.T) {
	book := newBook(0)
	led := NewLedger(Rupees(1_000), NewTxLog(100))
	for _, kind := range []BondKind{BondGovernment, BondCorporate} {
		for i := 0; i < 20; i++ {
			if _, err := book.purchaseBond(led, 1, kind, Rupees(10), 500, 2); err != nil {
				t.Fatalf("purchase: %v", err)
			}
		}
	}
	// Certain default must still spare non-junk bonds.
	rng := rand.New(rand.NewPCG(1, 2))
	if events := book.maturityPass(led, 29, rng, BpsScale); len(events) != 0 {
		t.Fatalf("bonds settled after one of two turns")
	}
	book.maturityPass(led, 57, rng, BpsScale)
	for _, b := range book.Bonds {
		if b.Status != BondMatured {
			t.Fatalf("bond %s status=%s", b.ID, b.Status)
		}
	}
	if want := Rupees(1_000) - 40*Rupees(10) + 40*Rupees(10)*105/100; led.Cash() != want {
		t.Fatalf("cash=%d want %d", led.Cash(), want)
	}
}

func TestJunkDefaultsEdges(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	for i := 0; i < 100; i++ {
		if junkDefaults(rng, 0) {
			t.Fatalf("zero chance defaulted")
		}
		if !junkDefaults(rng, BpsScale) {
			t.Fatalf("certain chance did not default")
		}
	}
}

func TestAssetsAndCreditLine(t *testing.T) {
	e := newTestEngine(t, Params{StartingCash: Rupees(500_000)}, quietTuning())

	if _, err := e.BuyAsset(AssetRequest{Name: "Flat", Price: 0}); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero price err=%v", err)
	}
	if _, err := e.BuyAsset(AssetRequest{Name: "Villa", Price: Rupees(900_000)}); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("unaffordable err=%v", err)
	}
	asset, err := e.BuyAsset(AssetRequest{
		Name:                    "Flat",
		Price:                   Rupees(200_000),
		MonthlyIncome:           Rupees(5_000),
		AppreciationBpsPerMonth: 100,
		MaintenanceCost:         Rupees(1_000),
	})
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	ls := e.LedgerSnapshot()
	if ls.SideIncome[IncomeAssets] != Rupees(5_000) || ls.Expenses[ExpenseAssets] != Rupees(1_000) {
		t.Fatalf("asset lines=%+v %+v", ls.SideIncome, ls.Expenses)
	}

	if _, err := e.Advance(DaysPerMonth); err != nil {
		t.Fatalf("advance: %v", err)
	}
	got := e.InstrumentsSnapshot().Assets[0]
	if got.Value != Rupees(202_000) {
		t.Fatalf("value=%d want %d", got.Value, Rupees(202_000))
	}
	if cash := e.LedgerSnapshot().Cash; cash != Rupees(300_000+5_000-1_000) {
		t.Fatalf("cash=%d", cash)
	}
	checkNetWorth(t, e)

	limit := e.InstrumentsSnapshot().CreditLine.Limit
	if limit != CreditLimit(e.CreditScore(), e.Tuning()) || limit <= 0 {
		t.Fatalf("limit=%d", limit)
	}
	if err := e.ChargeCreditLine(limit + 1); !errors.Is(err, ErrCreditLimitExceeded) {
		t.Fatalf("over limit err=%v", err)
	}
	if err := e.ChargeCreditLine(Rupees(10_000)); err != nil {
		t.Fatalf("charge: %v", err)
	}
	checkNetWorth(t, e)
	if _, err := e.Advance(DaysPerMonth); err != nil {
		t.Fatalf("advance: %v", err)
	}
	balance := e.InstrumentsSnapshot().CreditLine.Balance
	if want := Rupees(10_000) + monthlyInterest(Rupees(10_000), e.Tuning().CreditLineRateBps); balance != want {
		t.Fatalf("balance=%d want %d", balance, want)
	}
	repaid, err := e.RepayCreditLine(Rupees(1_000_000))
	if err != nil || repaid != balance {
		t.Fatalf("repaid=%d err=%v", repaid, err)
	}

	proceeds, err := e.SellAsset(asset.ID)
	if err != nil {
		t.Fatalf("sell: %v", err)
	}
	if proceeds <= asset.Value {
		t.Fatalf("proceeds=%d should include appreciation", proceeds)
	}
	ls = e.LedgerSnapshot()
	if ls.SideIncome[IncomeAssets] != 0 || ls.Expenses[ExpenseAssets] != 0 {
		t.Fatalf("asset lines not cleared")
	}
	if _, err := e.SellAsset(asset.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double sell err=%v", err)
	}
	checkNetWorth(t, e)
}
