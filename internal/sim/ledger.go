package sim

import "fmt"

type IncomeLine string

const (
	IncomeBusiness IncomeLine = "business"
	IncomeAssets   IncomeLine = "assets"
	IncomeManual   IncomeLine = "manual"
)

type ExpenseLine string

const (
	ExpenseLiving ExpenseLine = "living"
	ExpenseAssets ExpenseLine = "assets"
)

// LedgerState is the serializable part of the ledger. NetWorth and Cashflow
// are derived and rewritten by recompute.
type LedgerState struct {
	Cash        int64                 `json:"cash"`
	MainIncome  int64                 `json:"main_income"`
	SideIncome  map[IncomeLine]int64  `json:"side_income"`
	Expenses    map[ExpenseLine]int64 `json:"expenses"`
	NetWorth    int64                 `json:"net_worth"`
	Cashflow    int64                 `json:"cashflow"`
	AssetValue  int64                 `json:"asset_value"`
	Liabilities int64                 `json:"liabilities"`
}

// Ledger owns cash and the income/expense lines. Every cash change is
// written to the transaction log.
type Ledger struct {
	st  LedgerState
	log *TxLog
}

func NewLedger(cash int64, log *TxLog) *Ledger {
	return &Ledger{
		st: LedgerState{
			Cash:       cash,
			SideIncome: map[IncomeLine]int64{},
			Expenses:   map[ExpenseLine]int64{},
		},
		log: log,
	}
}

func (l *Ledger) Cash() int64 {
	return l.st.Cash
}

func (l *Ledger) SideIncome() int64 {
	var total int64
	for _, v := range l.st.SideIncome {
		total += v
	}
	return total
}

func (l *Ledger) MonthlyExpenses() int64 {
	var total int64
	for _, v := range l.st.Expenses {
		total += v
	}
	return total
}

func (l *Ledger) SideIncomeLine(line IncomeLine) int64 {
	return l.st.SideIncome[line]
}

// applyCashDelta adds amount to cash, never taking cash below zero. Callers
// reject unaffordable spending before this point. Returns the applied delta.
func (l *Ledger) applyCashDelta(day uint32, amount int64, category Category, description string) int64 {
	next := l.st.Cash + amount
	if amount < 0 && next < 0 {
		next = 0
		if l.st.Cash < 0 {
			next = l.st.Cash
		}
	}
	applied := next - l.st.Cash
	if applied == 0 {
		return 0
	}
	l.st.Cash = next
	l.log.Append(day, applied, category, description)
	return applied
}

// applyPenaltyDelta adds amount to cash with no floor. Penalty seizures and
// crisis fees may push cash negative; the game stays continuable.
func (l *Ledger) applyPenaltyDelta(day uint32, amount int64, category Category, description string) {
	if amount == 0 {
		return
	}
	l.st.Cash += amount
	l.log.Append(day, amount, category, description)
}

func (l *Ledger) setMainIncome(v int64) {
	l.st.MainIncome = v
}

// setSideIncomeLine replaces one side-income line. Replacing rather than
// adding keeps derived income idempotent under repeated recomputes.
func (l *Ledger) setSideIncomeLine(line IncomeLine, v int64) {
	if v == 0 {
		delete(l.st.SideIncome, line)
		return
	}
	l.st.SideIncome[line] = v
}

func (l *Ledger) setExpenseLine(line ExpenseLine, v int64) {
	if v == 0 {
		delete(l.st.Expenses, line)
		return
	}
	l.st.Expenses[line] = v
}

// applyMonthlyNetting posts one month of income and expenses.
func (l *Ledger) applyMonthlyNetting(day uint32) {
	income := l.st.MainIncome + l.SideIncome()
	if income != 0 {
		l.applyCashDelta(day, income, CategoryIncome, "monthly income")
	}
	if exp := l.MonthlyExpenses(); exp > 0 {
		l.applyCashDelta(day, -exp, CategoryExpense, fmt.Sprintf("monthly expenses (%d lines)", len(l.st.Expenses)))
	}
}

func (l *Ledger) recomputeAggregates(assetValue, liabilities int64) {
	l.st.AssetValue = assetValue
	l.st.Liabilities = liabilities
	l.st.NetWorth = l.st.Cash + assetValue - liabilities
	l.st.Cashflow = l.st.MainIncome + l.SideIncome() - l.MonthlyExpenses()
}

func (l *Ledger) state() LedgerState {
	out := l.st
	out.SideIncome = make(map[IncomeLine]int64, len(l.st.SideIncome))
	for k, v := range l.st.SideIncome {
		out.SideIncome[k] = v
	}
	out.Expenses = make(map[ExpenseLine]int64, len(l.st.Expenses))
	for k, v := range l.st.Expenses {
		out.Expenses[k] = v
	}
	return out
}

func (l *Ledger) restore(st LedgerState) {
	l.st = st
	if l.st.SideIncome == nil {
		l.st.SideIncome = map[IncomeLine]int64{}
	}
	if l.st.Expenses == nil {
		l.st.Expenses = map[ExpenseLine]int64{}
	}
}
