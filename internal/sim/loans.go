package sim

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

type LoanKind string

const (
	LoanPersonal  LoanKind = "personal"
	LoanEducation LoanKind = "education"
	LoanBusiness  LoanKind = "business"
)

func (k LoanKind) valid() bool {
	switch k {
	case LoanPersonal, LoanEducation, LoanBusiness:
		return true
	}
	return false
}

type LoanStatus string

const (
	LoanPending  LoanStatus = "pending"
	LoanApproved LoanStatus = "approved"
	LoanActive   LoanStatus = "active"
	LoanPaidOff  LoanStatus = "paid_off"
)

const (
	CreditScoreFloor   = 300
	CreditScoreCeiling = 900

	// MaxLoanMonths caps the amortization horizon.
	MaxLoanMonths = uint32(360)

	emiPrecision = int32(24)
)

type Loan struct {
	ID              string     `json:"id"`
	LoanKind        LoanKind   `json:"kind"`
	Principal       int64      `json:"principal"`
	Outstanding     int64      `json:"outstanding"`
	RateBps         int32      `json:"rate_bps"`
	OriginalRateBps int32      `json:"original_rate_bps"`
	EMI             int64      `json:"emi"`
	TermMonths      uint32     `json:"term_months"`
	RemainingMonths uint32     `json:"remaining_months"`
	Status          LoanStatus `json:"status"`
	MissedPayments  uint8      `json:"missed_payments"`
	PenaltyLevel    uint8      `json:"penalty_level"`
	NextDueDay      uint32     `json:"next_due_day"`
	AppliedDay      uint32     `json:"applied_day"`
	AutoPay         bool       `json:"auto_pay"`
}

func (l *Loan) open() bool {
	return l.Status == LoanPending || l.Status == LoanApproved || l.Status == LoanActive
}

// ScheduledPayment returns the next installment and the interest inside it.
// The last installment, or one larger than what is owed, settles the loan.
func (l *Loan) ScheduledPayment() (payment, interest int64) {
	interest = monthlyInterest(l.Outstanding, l.RateBps)
	owed := l.Outstanding + interest
	payment = l.EMI
	if l.RemainingMonths <= 1 || payment > owed {
		payment = owed
	}
	return payment, interest
}

// CreditScore maps net worth onto 300..900, rising monotonically.
func CreditScore(netWorth int64, t Tuning) int {
	score := int64(t.BaseCreditScore) + netWorth/t.CreditScorePerStep
	return int(clampInt64(score, CreditScoreFloor, CreditScoreCeiling))
}

func monthlyRate(rateBps int32) decimal.Decimal {
	return decimal.NewFromInt(int64(rateBps)).Div(decimal.NewFromInt(BpsScale * int64(MonthsPerYear)))
}

// monthlyInterest is outstanding * annual rate / 12, rounded half away from zero.
func monthlyInterest(outstanding int64, rateBps int32) int64 {
	if outstanding <= 0 || rateBps <= 0 {
		return 0
	}
	v := decimal.NewFromInt(outstanding).
		Mul(decimal.NewFromInt(int64(rateBps))).
		Div(decimal.NewFromInt(BpsScale * int64(MonthsPerYear)))
	return v.Round(0).IntPart()
}

// ComputeEMI is the annuity installment P*r*(1+r)^n / ((1+r)^n - 1),
// rounded up to a whole unit.
func ComputeEMI(principal int64, rateBps int32, months uint32) int64 {
	if principal <= 0 {
		return 0
	}
	if months <= 1 {
		return principal + monthlyInterest(principal, rateBps)
	}
	p := decimal.NewFromInt(principal)
	if rateBps <= 0 {
		return p.Div(decimal.NewFromInt(int64(months))).Ceil().IntPart()
	}
	one := decimal.NewFromInt(1)
	r := monthlyRate(rateBps)
	base := one.Add(r)
	growth := one
	for i := uint32(0); i < months; i++ {
		growth = growth.Mul(base).Round(emiPrecision)
	}
	emi := p.Mul(r).Mul(growth).Div(growth.Sub(one))
	return emi.Ceil().IntPart()
}

func (b *Book) hasOpenPersonalLoan() bool {
	for _, l := range b.Loans {
		if l.LoanKind == LoanPersonal && l.open() {
			return true
		}
	}
	return false
}

func (b *Book) applyForLoan(led *Ledger, day uint32, t Tuning, netWorth int64, req LoanRequest) (*Loan, []Event, error) {
	if !req.Kind.valid() {
		return nil, nil, fmt.Errorf("%w: unknown loan kind %q", ErrInvalidAmount, req.Kind)
	}
	if req.Amount <= 0 {
		return nil, nil, fmt.Errorf("%w: loan amount must be > 0", ErrInvalidAmount)
	}
	if req.Months == 0 || req.Months > MaxLoanMonths {
		return nil, nil, fmt.Errorf("%w: loan term must be within 1..%d months", ErrInvalidAmount, MaxLoanMonths)
	}
	if req.RateBps < 0 || int64(req.RateBps) > BpsScale {
		return nil, nil, fmt.Errorf("%w: loan rate must be within 0..%d bps", ErrInvalidAmount, BpsScale)
	}
	if score := CreditScore(netWorth, t); score < t.MinCreditScore {
		return nil, nil, fmt.Errorf("%w: credit score %d below %d", ErrConstraintViolation, score, t.MinCreditScore)
	}
	if req.Kind == LoanPersonal && b.hasOpenPersonalLoan() {
		return nil, nil, fmt.Errorf("%w: a personal loan is already open", ErrConstraintViolation)
	}

	b.NextLoanID++
	loan := &Loan{
		ID:              fmt.Sprintf("L%d", b.NextLoanID),
		LoanKind:        req.Kind,
		Principal:       req.Amount,
		Outstanding:     req.Amount,
		RateBps:         req.RateBps,
		OriginalRateBps: req.RateBps,
		TermMonths:      req.Months,
		RemainingMonths: req.Months,
		Status:          LoanPending,
		AppliedDay:      day,
		AutoPay:         req.AutoPay,
	}
	b.Loans = append(b.Loans, loan)
	events := b.processPending(led, day, t.LoanProcessingDays)
	return loan, events, nil
}

// processPending approves and disburses loans whose processing time is up.
func (b *Book) processPending(led *Ledger, day uint32, processingDays uint32) []Event {
	var events []Event
	for _, loan := range b.Loans {
		if loan.Status != LoanPending || day-loan.AppliedDay < processingDays {
			continue
		}
		loan.Status = LoanApproved
		events = append(events, Event{Day: day, Kind: EventLoanApproved, Ref: loan.ID, Amount: loan.Principal})

		loan.Outstanding = loan.Principal
		loan.EMI = ComputeEMI(loan.Principal, loan.RateBps, loan.RemainingMonths)
		loan.NextDueDay = day + DaysPerMonth
		loan.Status = LoanActive
		led.applyCashDelta(day, loan.Principal, CategoryLoan, fmt.Sprintf("%s loan %s disbursed", loan.LoanKind, loan.ID))
		events = append(events, Event{Day: day, Kind: EventLoanActivated, Ref: loan.ID, Amount: loan.Principal})
	}
	return events
}

func (b *Book) activeLoan(id string) (*Loan, error) {
	loan, err := b.findLoan(id)
	if err != nil {
		return nil, err
	}
	if loan.Status != LoanActive {
		return nil, fmt.Errorf("%w: loan %s is %s", ErrConstraintViolation, id, loan.Status)
	}
	return loan, nil
}

// payEMI makes the scheduled installment. It is the qualifying payment for
// the current cycle.
func (b *Book) payEMI(led *Ledger, day uint32, id string) (int64, []Event, error) {
	loan, err := b.activeLoan(id)
	if err != nil {
		return 0, nil, err
	}
	payment, interest := loan.ScheduledPayment()
	if led.Cash() < payment {
		return 0, nil, fmt.Errorf("%w: installment is %d, cash is %d", ErrInsufficientFunds, payment, led.Cash())
	}
	led.applyCashDelta(day, -payment, CategoryEMI, fmt.Sprintf("EMI for loan %s", loan.ID))

	loan.Outstanding -= payment - interest
	if loan.RemainingMonths > 0 {
		loan.RemainingMonths--
	}
	loan.NextDueDay += DaysPerMonth
	loan.MissedPayments = 0

	events := []Event{{Day: day, Kind: EventEMIPaid, Ref: loan.ID, Amount: -payment}}
	if loan.Outstanding <= 0 {
		loan.Outstanding = 0
		loan.Status = LoanPaidOff
		events = append(events, Event{Day: day, Kind: EventLoanPaidOff, Ref: loan.ID})
	}
	return payment, events, nil
}

// customLoanPayment prepays principal and re-amortizes the installment over
// the remaining term. It does not count as the cycle's payment.
func (b *Book) customLoanPayment(led *Ledger, day uint32, id string, amount int64) (int64, []Event, error) {
	if amount <= 0 {
		return 0, nil, fmt.Errorf("%w: payment must be > 0", ErrInvalidAmount)
	}
	loan, err := b.activeLoan(id)
	if err != nil {
		return 0, nil, err
	}
	if amount > loan.Outstanding {
		amount = loan.Outstanding
	}
	if led.Cash() < amount {
		return 0, nil, fmt.Errorf("%w: payment is %d, cash is %d", ErrInsufficientFunds, amount, led.Cash())
	}
	led.applyCashDelta(day, -amount, CategoryLoan, fmt.Sprintf("prepayment on loan %s", loan.ID))

	loan.Outstanding -= amount
	var events []Event
	if loan.Outstanding == 0 {
		loan.Status = LoanPaidOff
		events = append(events, Event{Day: day, Kind: EventLoanPaidOff, Ref: loan.ID})
	} else {
		loan.EMI = ComputeEMI(loan.Outstanding, loan.RateBps, loan.RemainingMonths)
	}
	return amount, events, nil
}

// dueDatePass runs every day: auto-pay on the due day, then miss detection
// once the clock has passed a due date.
func (b *Book) dueDatePass(led *Ledger, day uint32, t Tuning) []Event {
	var events []Event
	for _, loan := range b.Loans {
		if loan.Status != LoanActive {
			continue
		}
		if loan.AutoPay && day == loan.NextDueDay {
			_, evs, err := b.payEMI(led, day, loan.ID)
			if err == nil {
				events = append(events, evs...)
				continue
			}
			events = append(events, Event{Day: day, Kind: EventAutoPayFailed, Ref: loan.ID, Detail: err.Error()})
		}
		if day <= loan.NextDueDay {
			continue
		}
		events = append(events, b.missPayment(led, day, loan, t)...)
	}
	return events
}

func (b *Book) missPayment(led *Ledger, day uint32, loan *Loan, t Tuning) []Event {
	if loan.MissedPayments < math.MaxUint8 {
		loan.MissedPayments++
	}
	loan.NextDueDay += DaysPerMonth
	accrued := monthlyInterest(loan.Outstanding, loan.RateBps)
	loan.Outstanding += accrued
	events := []Event{{Day: day, Kind: EventPaymentMissed, Ref: loan.ID, Amount: accrued}}

	if loan.MissedPayments >= 2 {
		loan.PenaltyLevel = 2
		events = append(events, Event{Day: day, Kind: EventPenaltyRaised, Ref: loan.ID, Detail: "level 2"})
		return append(events, b.seize(led, day, loan)...)
	}
	if loan.PenaltyLevel == 0 {
		loan.PenaltyLevel = 1
		loan.RateBps = loan.OriginalRateBps + t.PenaltyRateBps
		events = append(events, Event{Day: day, Kind: EventPenaltyRaised, Ref: loan.ID, Detail: "level 1"})
	}
	loan.EMI = ComputeEMI(loan.Outstanding, loan.RateBps, loan.RemainingMonths)
	return events
}

// seize liquidates assets against a level-2 loan. When assets cover the
// loan they are sold highest value first until it is repaid. Otherwise
// everything is sold, every liability is cleared and cash absorbs the
// shortfall, possibly going negative.
func (b *Book) seize(led *Ledger, day uint32, loan *Loan) []Event {
	owed := loan.Outstanding
	if b.seizableValue() >= owed {
		var proceeds int64
		var sold []string
		for _, a := range b.assetsByValueDesc() {
			if proceeds >= owed {
				break
			}
			proceeds += a.Value
			sold = append(sold, a.ID)
			led.applyPenaltyDelta(day, a.Value, CategorySeizure, fmt.Sprintf("seized %s (%s) for loan %s", a.Name, a.ID, loan.ID))
			b.removeAsset(a.ID)
		}
		led.applyPenaltyDelta(day, -owed, CategorySeizure, fmt.Sprintf("loan %s settled from seized assets", loan.ID))
		loan.Outstanding = 0
		loan.Status = LoanPaidOff
		b.syncAssetLines(led)
		return []Event{{Day: day, Kind: EventAssetsSeized, Ref: loan.ID, Amount: proceeds - owed, Detail: fmt.Sprintf("sold %v", sold)}}
	}

	var proceeds int64
	for _, a := range b.assetsByValueDesc() {
		proceeds += a.Value
		led.applyPenaltyDelta(day, a.Value, CategorySeizure, fmt.Sprintf("seized %s (%s) for loan %s", a.Name, a.ID, loan.ID))
		b.removeAsset(a.ID)
	}
	var debt int64
	for _, l := range b.Loans {
		if l.Status != LoanApproved && l.Status != LoanActive {
			continue
		}
		debt += l.Outstanding
		l.Outstanding = 0
		l.Status = LoanPaidOff
	}
	if b.Credit != nil {
		debt += b.Credit.Balance
		b.Credit.Balance = 0
	}
	led.applyPenaltyDelta(day, -debt, CategorySeizure, "liabilities force-cleared after default")
	b.syncAssetLines(led)
	return []Event{{Day: day, Kind: EventDebtWiped, Ref: loan.ID, Amount: proceeds - debt}}
}
