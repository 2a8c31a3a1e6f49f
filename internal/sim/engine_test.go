package sim

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"reflect"
	"testing"
)

// quietTuning removes the daily wellbeing drift so money tests see only the
// cash movements they cause.
func quietTuning() Tuning {
	t := DefaultTuning()
	t.DailyStress = 0
	t.OverworkStress = 0
	t.ConsistencyBonus = 0
	t.LoanProcessingDays = 0
	return t
}

func newTestEngine(t *testing.T, p Params, tuning Tuning) *Engine {
	t.Helper()
	e, err := NewEngine(p, tuning, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return e
}

// checkNetWorth recomputes the balance sheet from the instrument view.
func checkNetWorth(t *testing.T, e *Engine) {
	t.Helper()
	ls := e.LedgerSnapshot()
	iv := e.InstrumentsSnapshot()
	var assets, liabilities int64
	for _, a := range iv.Assets {
		assets += a.Value
	}
	for _, b := range iv.Bonds {
		if b.Status == BondActive {
			assets += b.Principal
		}
	}
	for _, l := range iv.Loans {
		if l.Status == LoanApproved || l.Status == LoanActive {
			liabilities += l.Outstanding
		}
	}
	liabilities += iv.CreditLine.Balance
	if want := ls.Cash + assets - liabilities; ls.NetWorth != want {
		t.Fatalf("net worth=%d want cash %d + assets %d - liabilities %d = %d", ls.NetWorth, ls.Cash, assets, liabilities, want)
	}
	if ls.Cashflow != ls.MainIncome+e.ledger.SideIncome()-e.ledger.MonthlyExpenses() {
		t.Fatalf("cashflow=%d out of sync", ls.Cashflow)
	}
}

func TestGovernmentBondEndToEnd(t *testing.T) {
	e := newTestEngine(t, Params{
		StartingCash:   Rupees(500_000),
		MainIncome:     Rupees(30_000),
		LivingExpenses: Rupees(10_000),
		Seed:           1,
	}, quietTuning())

	bond, err := e.PurchaseBond(BondGovernment, Rupees(100_000), 400, 12)
	if err != nil {
		t.Fatalf("purchase bond: %v", err)
	}
	checkNetWorth(t, e)
	if e.LedgerSnapshot().Cash != Rupees(400_000) {
		t.Fatalf("cash after purchase=%d", e.LedgerSnapshot().Cash)
	}

	for month := 1; month <= 12; month++ {
		if _, err := e.Advance(DaysPerMonth); err != nil {
			t.Fatalf("advance month %d: %v", month, err)
		}
		checkNetWorth(t, e)
		got := e.InstrumentsSnapshot().Bonds[0]
		if month < 12 && got.Status != BondActive {
			t.Fatalf("month %d: bond status=%s", month, got.Status)
		}
	}

	got := e.InstrumentsSnapshot().Bonds[0]
	if got.ID != bond.ID || got.Status != BondMatured {
		t.Fatalf("bond=%+v", got)
	}
	netting := 12 * Rupees(30_000-10_000)
	want := Rupees(500_000) - Rupees(100_000) + Rupees(104_000) + netting
	if cash := e.LedgerSnapshot().Cash; cash != want {
		t.Fatalf("cash=%d want %d", cash, want)
	}
}

func TestBondMaturityMatchesRunningBalance(t *testing.T) {
	e := newTestEngine(t, Params{StartingCash: Rupees(500_000), Seed: 9}, DefaultTuning())
	if _, err := e.PurchaseBond(BondGovernment, Rupees(100_000), 400, 12); err != nil {
		t.Fatalf("purchase bond: %v", err)
	}
	if _, err := e.Advance(12 * DaysPerMonth); err != nil {
		t.Fatalf("advance: %v", err)
	}

	var sum, bondFlow int64
	for _, tx := range e.Transactions(0) {
		sum += tx.Amount
		if tx.Category == CategoryBond {
			bondFlow += tx.Amount
		}
	}
	if e.LedgerSnapshot().Cash != Rupees(500_000)+sum {
		t.Fatalf("cash %d does not match starting cash plus log %d", e.LedgerSnapshot().Cash, sum)
	}
	if bondFlow != Rupees(4_000) {
		t.Fatalf("bond flow=%d want %d", bondFlow, Rupees(4_000))
	}
}

func TestPurchaseBondRejections(t *testing.T) {
	e := newTestEngine(t, Params{StartingCash: Rupees(1_000)}, quietTuning())
	tests := []struct {
		kind   BondKind
		amount int64
		rate   int32
		turns  uint32
		want   error
	}{
		{BondGovernment, 0, 400, 12, ErrInvalidAmount},
		{BondGovernment, Rupees(10), -1, 12, ErrInvalidAmount},
		{BondGovernment, Rupees(10), 400, 0, ErrInvalidAmount},
		{BondKind("meme"), Rupees(10), 400, 12, ErrInvalidAmount},
		{BondCorporate, Rupees(5_000), 400, 12, ErrInsufficientFunds},
	}
	before := e.LedgerSnapshot()
	for _, tc := range tests {
		_, err := e.PurchaseBond(tc.kind, tc.amount, tc.rate, tc.turns)
		if !errors.Is(err, tc.want) {
			t.Fatalf("purchase %+v: err=%v want %v", tc, err, tc.want)
		}
	}
	if !reflect.DeepEqual(before, e.LedgerSnapshot()) {
		t.Fatalf("rejected purchases changed the ledger")
	}
	if len(e.InstrumentsSnapshot().Bonds) != 0 {
		t.Fatalf("rejected purchases created bonds")
	}
}

func TestWellbeingStaysInBounds(t *testing.T) {
	e := newTestEngine(t, Params{StartingCash: Rupees(50_000), Seed: 3}, DefaultTuning())
	rng := rand.New(rand.NewPCG(11, 12))
	for i := 0; i < 300; i++ {
		e.AdjustWellbeing(Delta{
			Stress:     rng.IntN(301) - 150,
			Emotion:    rng.IntN(301) - 150,
			Karma:      rng.IntN(301) - 150,
			Logic:      rng.IntN(301) - 150,
			Reputation: rng.IntN(301) - 150,
			Energy:     rng.IntN(301) - 150,
		})
		if i%7 == 0 {
			e.Rest()
		}
		if _, err := e.Advance(uint32(rng.IntN(5) + 1)); err != nil {
			t.Fatalf("advance: %v", err)
		}
		w := e.WellbeingSnapshot()
		for _, v := range []int{w.Stress, w.Emotion, w.Karma, w.Logic, w.Reputation, w.Energy} {
			if v < StatMin || v > StatMax {
				t.Fatalf("step %d: stat out of bounds: %+v", i, w)
			}
		}
		checkNetWorth(t, e)
	}
}

func TestExtremeDeltasKeepDirection(t *testing.T) {
	e := newTestEngine(t, Params{StartingCash: Rupees(1_000)}, quietTuning())
	w := e.AdjustWellbeing(Delta{Stress: math.MaxInt, Emotion: math.MinInt, Karma: math.MaxInt})
	if w.Stress != StatMax || w.Emotion != StatMin || w.Karma != StatMax {
		t.Fatalf("wellbeing after extreme deltas=%+v", w)
	}
	w = e.AdjustWellbeing(Delta{Stress: math.MinInt})
	if w.Stress != StatMin {
		t.Fatalf("stress=%d want %d", w.Stress, StatMin)
	}
}

func TestHospitalizationFiresOnce(t *testing.T) {
	e := newTestEngine(t, Params{StartingCash: Rupees(500_000)}, quietTuning())
	hospitalized := 0
	for i := 0; i < 10; i++ {
		e.AdjustWellbeing(Delta{Stress: StatMax})
		if e.WellbeingSnapshot().Stress != StatMax {
			t.Fatalf("stress not held at max")
		}
		report, err := e.Advance(1)
		if err != nil {
			t.Fatalf("advance: %v", err)
		}
		hospitalized += report.Count(EventHospitalized)
	}
	if hospitalized != 1 {
		t.Fatalf("hospitalized %d times, want 1", hospitalized)
	}
}

func TestHospitalizationRearmsAfterRecovery(t *testing.T) {
	tuning := quietTuning()
	e := newTestEngine(t, Params{StartingCash: Rupees(500_000)}, tuning)

	e.AdjustWellbeing(Delta{Stress: StatMax})
	report, _ := e.Advance(1)
	if report.Count(EventHospitalized) != 1 {
		t.Fatalf("expected hospitalization")
	}
	w := e.WellbeingSnapshot()
	if w.Stress != tuning.HospitalStress || w.Energy != tuning.HospitalEnergy || !w.Frozen() {
		t.Fatalf("wellbeing after hospitalization=%+v", w)
	}
	if _, err := e.PurchaseBond(BondGovernment, Rupees(10), 100, 1); !errors.Is(err, ErrCrisisFreeze) {
		t.Fatalf("expected crisis freeze, got %v", err)
	}

	report, _ = e.Advance(uint32(tuning.HospitalTurns))
	if report.Count(EventHospitalized) != 0 || e.WellbeingSnapshot().Frozen() {
		t.Fatalf("expected recovery without a second crisis")
	}
	if _, err := e.PurchaseBond(BondGovernment, Rupees(10), 100, 1); err != nil {
		t.Fatalf("purchase after recovery: %v", err)
	}

	e.AdjustWellbeing(Delta{Stress: StatMax})
	report, _ = e.Advance(1)
	if report.Count(EventHospitalized) != 1 {
		t.Fatalf("expected the crisis to re-arm after stress cleared")
	}
}

func TestBreakdownAndBlackout(t *testing.T) {
	tuning := quietTuning()
	e := newTestEngine(t, Params{StartingCash: Rupees(500_000)}, tuning)

	e.AdjustWellbeing(Delta{Stress: 75, Emotion: -StatMax})
	report, _ := e.Advance(1)
	if report.Count(EventBreakdown) != 1 {
		t.Fatalf("expected breakdown, events=%+v", report.Events)
	}
	if got := e.WellbeingSnapshot().Emotion; got != tuning.BreakdownEmotionFloor {
		t.Fatalf("emotion=%d want %d", got, tuning.BreakdownEmotionFloor)
	}
	if report.Count(EventBlackout) != 0 {
		t.Fatalf("breakdown reset emotion above the blackout threshold")
	}

	cash := e.LedgerSnapshot().Cash
	e.AdjustWellbeing(Delta{Emotion: -(tuning.BreakdownEmotionFloor - 5)})
	report, _ = e.Advance(1)
	if report.Count(EventBlackout) != 1 {
		t.Fatalf("expected blackout, wellbeing=%+v", e.WellbeingSnapshot())
	}
	if got := e.LedgerSnapshot().Cash; got != cash-tuning.BlackoutFee {
		t.Fatalf("cash=%d want %d", got, cash-tuning.BlackoutFee)
	}
}

func TestRestRelievesStress(t *testing.T) {
	tuning := DefaultTuning()
	e := newTestEngine(t, Params{StartingCash: Rupees(10_000)}, tuning)
	e.AdjustWellbeing(Delta{Stress: 30})
	before := e.WellbeingSnapshot()
	after := e.Rest()
	if after.Stress != before.Stress-tuning.RestStressRelief {
		t.Fatalf("stress=%d want %d", after.Stress, before.Stress-tuning.RestStressRelief)
	}
	if after.TurnsWithoutRest != 0 {
		t.Fatalf("turns without rest=%d", after.TurnsWithoutRest)
	}
}

func TestAdvanceRejectsBadDays(t *testing.T) {
	e := newTestEngine(t, Params{}, quietTuning())
	if _, err := e.Advance(0); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("advance(0) err=%v", err)
	}
	if _, err := e.Advance(MaxAdvanceDays + 1); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("advance(max+1) err=%v", err)
	}
}

func TestYearReviewNeverEndsGame(t *testing.T) {
	e := newTestEngine(t, Params{StartingCash: 0, LivingExpenses: Rupees(5_000)}, quietTuning())
	report, err := e.Advance(2 * DaysPerYear)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if len(report.Reviews) != 2 || len(e.Reviews()) != 2 {
		t.Fatalf("reviews=%d", len(report.Reviews))
	}
	if report.Reviews[0].Year != 1 || report.Reviews[0].WealthBand != WealthStruggling {
		t.Fatalf("review=%+v", report.Reviews[0])
	}
	if _, err := e.Advance(1); err != nil {
		t.Fatalf("game should continue: %v", err)
	}
}

func TestSnapshotRestoreIsDeterministic(t *testing.T) {
	tuning := DefaultTuning()
	tuning.LoanProcessingDays = 2
	a := newTestEngine(t, Params{
		StartingCash:   Rupees(800_000),
		MainIncome:     Rupees(40_000),
		LivingExpenses: Rupees(15_000),
		Seed:           2024,
	}, tuning)

	for i := 0; i < 8; i++ {
		if _, err := a.PurchaseBond(BondJunk, Rupees(5_000), 1_500, uint32(3+i)); err != nil {
			t.Fatalf("junk bond %d: %v", i, err)
		}
	}
	if _, err := a.ApplyForLoan(LoanRequest{Kind: LoanPersonal, Amount: Rupees(100_000), RateBps: 1_400, Months: 24, AutoPay: true}); err != nil {
		t.Fatalf("apply loan: %v", err)
	}
	if _, err := a.BuyAsset(AssetRequest{Name: "Flat", Price: Rupees(200_000), MonthlyIncome: Rupees(6_000), AppreciationBpsPerMonth: 40, MaintenanceCost: Rupees(1_000)}); err != nil {
		t.Fatalf("buy asset: %v", err)
	}
	if _, err := a.Advance(100); err != nil {
		t.Fatalf("advance: %v", err)
	}

	snap, err := a.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded Snapshot
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	b, err := FromSnapshot(decoded, nil)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}

	for i := 0; i < 4; i++ {
		// Either both engines are frozen by a crisis or neither is.
		_, errA := a.PurchaseBond(BondJunk, Rupees(1_000), 2_000, 1)
		_, errB := b.PurchaseBond(BondJunk, Rupees(1_000), 2_000, 1)
		if (errA == nil) != (errB == nil) {
			t.Fatalf("purchase diverged: %v vs %v", errA, errB)
		}
		if _, err := a.Advance(90); err != nil {
			t.Fatalf("a advance: %v", err)
		}
		if _, err := b.Advance(90); err != nil {
			t.Fatalf("b advance: %v", err)
		}
	}

	if !reflect.DeepEqual(a.LedgerSnapshot(), b.LedgerSnapshot()) {
		t.Fatalf("ledger diverged:\n%+v\n%+v", a.LedgerSnapshot(), b.LedgerSnapshot())
	}
	if !reflect.DeepEqual(a.InstrumentsSnapshot(), b.InstrumentsSnapshot()) {
		t.Fatalf("instruments diverged")
	}
	if a.WellbeingSnapshot() != b.WellbeingSnapshot() || a.ClockSnapshot() != b.ClockSnapshot() {
		t.Fatalf("wellbeing or clock diverged")
	}
	if len(a.Reviews()) != len(b.Reviews()) {
		t.Fatalf("reviews diverged")
	}
}

func TestRestoreRejectsBadSnapshotWithoutChanges(t *testing.T) {
	e := newTestEngine(t, Params{StartingCash: Rupees(1_000)}, quietTuning())
	snap, err := e.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	snap.Wellbeing.Stress = 140
	if err := e.Restore(snap); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("restore err=%v", err)
	}
	if e.WellbeingSnapshot().Stress > StatMax {
		t.Fatalf("failed restore leaked state")
	}

	snap.Wellbeing.Stress = 10
	snap.Ledger.Cash = Rupees(42)
	if err := e.Restore(snap); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if e.LedgerSnapshot().Cash != Rupees(42) {
		t.Fatalf("cash=%d", e.LedgerSnapshot().Cash)
	}
	checkNetWorth(t, e)
}

func TestRestoreCatchesUpStaleIDCounters(t *testing.T) {
	e := newTestEngine(t, Params{StartingCash: Rupees(1_000_000)}, quietTuning())
	if _, err := e.PurchaseBond(BondGovernment, Rupees(10_000), 400, 12); err != nil {
		t.Fatalf("bond: %v", err)
	}
	if _, err := e.BuyAsset(AssetRequest{Name: "Shop", Price: Rupees(50_000)}); err != nil {
		t.Fatalf("asset: %v", err)
	}
	snap, err := e.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	snap.Instruments.NextBondID = 0
	snap.Instruments.NextLoanID = 0
	snap.Instruments.NextAssetID = 0

	r, err := FromSnapshot(snap, nil)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	bond, err := r.PurchaseBond(BondGovernment, Rupees(10_000), 400, 12)
	if err != nil {
		t.Fatalf("second bond: %v", err)
	}
	if bond.ID != "B2" {
		t.Fatalf("second bond id=%s want B2", bond.ID)
	}
	asset, err := r.BuyAsset(AssetRequest{Name: "Van", Price: Rupees(20_000)})
	if err != nil {
		t.Fatalf("second asset: %v", err)
	}
	if asset.ID != "A2" {
		t.Fatalf("second asset id=%s want A2", asset.ID)
	}

	again, err := r.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if _, err := FromSnapshot(again, nil); err != nil {
		t.Fatalf("reload after purchases: %v", err)
	}
}
