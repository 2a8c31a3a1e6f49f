package sim

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
)

// Params are the inputs of a new game.
type Params struct {
	StartingCash   int64  `json:"starting_cash"`
	MainIncome     int64  `json:"main_income"`
	LivingExpenses int64  `json:"living_expenses"`
	Seed           uint64 `json:"seed"`
}

type LoanRequest struct {
	Kind    LoanKind `json:"kind"`
	Amount  int64    `json:"amount"`
	RateBps int32    `json:"rate_bps"`
	Months  uint32   `json:"months"`
	AutoPay bool     `json:"auto_pay"`
}

type AssetRequest struct {
	Name                    string `json:"name"`
	Price                   int64  `json:"price"`
	MonthlyIncome           int64  `json:"monthly_income"`
	AppreciationBpsPerMonth int32  `json:"appreciation_bps_per_month"`
	MaintenanceCost         int64  `json:"maintenance_cost"`
}

// InstrumentsView is a detached copy of the instrument book.
type InstrumentsView struct {
	Bonds           []Bond     `json:"bonds"`
	Loans           []Loan     `json:"loans"`
	Assets          []Asset    `json:"assets"`
	CreditLine      CreditLine `json:"credit_line"`
	TotalAssetValue int64      `json:"total_asset_value"`
	TotalLiability  int64      `json:"total_liability"`
}

// Engine is one game. It is not safe for concurrent use; callers serialize
// access per game.
type Engine struct {
	tuning Tuning
	log    *slog.Logger

	pcg *rand.PCG
	rng *rand.Rand

	clock     Clock
	txlog     *TxLog
	ledger    *Ledger
	book      *Book
	wellbeing *Wellbeing
	business  *Business
	reviews   []YearReview
}

func NewEngine(p Params, t Tuning, logger *slog.Logger) (*Engine, error) {
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("%w: tuning: %v", ErrInvalidAmount, err)
	}
	if p.StartingCash < 0 || p.MainIncome < 0 || p.LivingExpenses < 0 {
		return nil, fmt.Errorf("%w: starting cash, income and expenses must be >= 0", ErrInvalidAmount)
	}
	e := newEngine(t, logger, p.Seed)
	e.ledger = NewLedger(p.StartingCash, e.txlog)
	e.ledger.setMainIncome(p.MainIncome)
	e.ledger.setExpenseLine(ExpenseLiving, p.LivingExpenses)
	e.recompute()
	return e, nil
}

func newEngine(t Tuning, logger *slog.Logger, seed uint64) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	pcg := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	txlog := NewTxLog(t.TransactionWindow)
	return &Engine{
		tuning:    t,
		log:       logger,
		pcg:       pcg,
		rng:       rand.New(pcg),
		clock:     NewClock(),
		txlog:     txlog,
		ledger:    NewLedger(0, txlog),
		book:      newBook(t.CreditLineRateBps),
		wellbeing: newWellbeing(defaultWellbeing()),
		business:  newBusiness(NewSectorCatalog(t.Sectors)),
	}
}

func (e *Engine) day() uint32 {
	return e.clock.TotalDays
}

// recompute refreshes every derived figure: aggregates, then the credit
// limit that depends on them.
func (e *Engine) recompute() {
	e.ledger.recomputeAggregates(e.book.TotalAssetValue(), e.book.TotalLiabilityValue())
	e.book.Credit.Limit = CreditLimit(e.CreditScore(), e.tuning)
}

func (e *Engine) guardFreeze(action string) error {
	w := e.wellbeing.state()
	if !w.Frozen() {
		return nil
	}
	return fmt.Errorf("%w: cannot %s (hospital %d, breakdown %d, blackout %d turns left)",
		ErrCrisisFreeze, action, w.HospitalizedTurnsLeft, w.BreakdownTurnsLeft, w.BlackoutTurnsLeft)
}

// absorb applies the wellbeing side of instrument events and logs them.
func (e *Engine) absorb(events []Event) {
	t := e.tuning
	for _, ev := range events {
		switch ev.Kind {
		case EventLoanPaidOff:
			e.wellbeing.apply(Delta{Karma: t.PaidOffKarmaBonus})
		case EventPaymentMissed:
			e.wellbeing.apply(Delta{Stress: t.MissedStress, Emotion: -t.MissedStress})
		case EventAssetsSeized, EventDebtWiped:
			e.wellbeing.apply(Delta{Stress: t.SeizureStress, Emotion: -t.SeizureStress, Reputation: -t.SeizureReputation})
		}
		if ev.Kind.notable() {
			e.clock.markEvent()
		}
		switch ev.Kind {
		case EventPaymentMissed, EventPenaltyRaised, EventAssetsSeized, EventDebtWiped, EventBondDefaulted,
			EventHospitalized, EventBreakdown, EventBlackout, EventAutoPayFailed:
			e.log.Warn("sim event", "kind", ev.Kind, "day", ev.Day, "ref", ev.Ref, "amount", ev.Amount, "detail", ev.Detail)
		default:
			e.log.Debug("sim event", "kind", ev.Kind, "day", ev.Day, "ref", ev.Ref, "amount", ev.Amount)
		}
	}
}

func (e *Engine) PurchaseBond(kind BondKind, amount int64, rateBps int32, turns uint32) (Bond, error) {
	if err := e.guardFreeze("buy bonds"); err != nil {
		return Bond{}, err
	}
	bond, err := e.book.purchaseBond(e.ledger, e.day(), kind, amount, rateBps, turns)
	if err != nil {
		return Bond{}, err
	}
	e.recompute()
	return *bond, nil
}

func (e *Engine) ApplyForLoan(req LoanRequest) (Loan, error) {
	if err := e.guardFreeze("apply for loans"); err != nil {
		return Loan{}, err
	}
	loan, events, err := e.book.applyForLoan(e.ledger, e.day(), e.tuning, e.ledger.st.NetWorth, req)
	if err != nil {
		return Loan{}, err
	}
	e.absorb(events)
	e.recompute()
	return *loan, nil
}

// PayEMI pays the scheduled installment and returns the amount paid.
func (e *Engine) PayEMI(loanID string) (int64, error) {
	paid, events, err := e.book.payEMI(e.ledger, e.day(), loanID)
	if err != nil {
		return 0, err
	}
	e.absorb(events)
	e.recompute()
	return paid, nil
}

// CustomLoanPayment prepays principal. Amounts above the outstanding balance
// are capped; the applied amount is returned.
func (e *Engine) CustomLoanPayment(loanID string, amount int64) (int64, error) {
	paid, events, err := e.book.customLoanPayment(e.ledger, e.day(), loanID, amount)
	if err != nil {
		return 0, err
	}
	e.absorb(events)
	e.recompute()
	return paid, nil
}

func (e *Engine) SetLoanAutoPay(loanID string, on bool) error {
	loan, err := e.book.findLoan(loanID)
	if err != nil {
		return err
	}
	loan.AutoPay = on
	return nil
}

func (e *Engine) BuyAsset(req AssetRequest) (Asset, error) {
	if err := e.guardFreeze("buy assets"); err != nil {
		return Asset{}, err
	}
	asset, err := e.book.buyAsset(e.ledger, e.day(), req)
	if err != nil {
		return Asset{}, err
	}
	e.recompute()
	return *asset, nil
}

func (e *Engine) SellAsset(assetID string) (int64, error) {
	proceeds, err := e.book.sellAsset(e.ledger, e.day(), assetID)
	if err != nil {
		return 0, err
	}
	e.recompute()
	return proceeds, nil
}

func (e *Engine) InvestInSector(sectorID string, category ModifierCategory, modifierID string) (SectorInvestment, error) {
	if err := e.guardFreeze("invest"); err != nil {
		return SectorInvestment{}, err
	}
	inv, err := e.business.invest(e.ledger, e.day(), sectorID, category, modifierID)
	if err != nil {
		return SectorInvestment{}, err
	}
	e.recompute()
	for _, s := range e.business.snapshot() {
		if s.SectorID == inv.SectorID {
			return s, nil
		}
	}
	return *inv, nil
}

func (e *Engine) ChargeCreditLine(amount int64) error {
	if err := e.guardFreeze("draw on credit"); err != nil {
		return err
	}
	if err := e.book.chargeCredit(e.ledger, e.day(), amount); err != nil {
		return err
	}
	e.recompute()
	return nil
}

func (e *Engine) RepayCreditLine(amount int64) (int64, error) {
	paid, err := e.book.repayCredit(e.ledger, e.day(), amount)
	if err != nil {
		return 0, err
	}
	e.recompute()
	return paid, nil
}

func (e *Engine) SetMainIncome(v int64) error {
	if v < 0 {
		return fmt.Errorf("%w: income must be >= 0", ErrInvalidAmount)
	}
	e.ledger.setMainIncome(v)
	e.recompute()
	return nil
}

func (e *Engine) SetLivingExpenses(v int64) error {
	if v < 0 {
		return fmt.Errorf("%w: expenses must be >= 0", ErrInvalidAmount)
	}
	e.ledger.setExpenseLine(ExpenseLiving, v)
	e.recompute()
	return nil
}

func (e *Engine) SetManualSideIncome(v int64) error {
	if v < 0 {
		return fmt.Errorf("%w: side income must be >= 0", ErrInvalidAmount)
	}
	e.ledger.setSideIncomeLine(IncomeManual, v)
	e.recompute()
	return nil
}

func (e *Engine) Rest() WellbeingState {
	e.wellbeing.rest(e.tuning)
	return e.wellbeing.state()
}

// AdjustWellbeing applies an external activity or event. Every stat stays
// clamped; crises are evaluated on the next advance.
func (e *Engine) AdjustWellbeing(d Delta) WellbeingState {
	e.wellbeing.apply(d)
	return e.wellbeing.state()
}

func (e *Engine) LedgerSnapshot() LedgerState {
	return e.ledger.state()
}

func (e *Engine) InstrumentsSnapshot() InstrumentsView {
	view := InstrumentsView{
		CreditLine:      *e.book.Credit,
		TotalAssetValue: e.book.TotalAssetValue(),
		TotalLiability:  e.book.TotalLiabilityValue(),
	}
	for _, inst := range e.book.Instruments() {
		switch v := inst.(type) {
		case *Bond:
			view.Bonds = append(view.Bonds, *v)
		case *Loan:
			view.Loans = append(view.Loans, *v)
		case *Asset:
			view.Assets = append(view.Assets, *v)
		case *CreditLine:
		default:
			panic(fmt.Sprintf("sim: unhandled instrument %T", inst))
		}
	}
	return view
}

func (e *Engine) WellbeingSnapshot() WellbeingState {
	return e.wellbeing.state()
}

func (e *Engine) ClockSnapshot() Clock {
	return e.clock
}

func (e *Engine) SectorsSnapshot() []SectorInvestment {
	return e.business.snapshot()
}

func (e *Engine) Transactions(limit int) []Transaction {
	return e.txlog.Recent(limit)
}

func (e *Engine) CreditScore() int {
	return CreditScore(e.ledger.st.NetWorth, e.tuning)
}

func (e *Engine) Reviews() []YearReview {
	out := make([]YearReview, len(e.reviews))
	copy(out, e.reviews)
	return out
}

func (e *Engine) Tuning() Tuning {
	return e.tuning
}
