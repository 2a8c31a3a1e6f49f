package sim

import "github.com/google/uuid"

type Category string

const (
	CategoryIncome    Category = "income"
	CategoryExpense   Category = "expense"
	CategoryBond      Category = "bond"
	CategoryLoan      Category = "loan"
	CategoryEMI       Category = "emi"
	CategoryPenalty   Category = "penalty"
	CategorySeizure   Category = "seizure"
	CategoryAsset     Category = "asset"
	CategoryBusiness  Category = "business"
	CategoryCredit    Category = "credit"
	CategoryInterest  Category = "interest"
	CategoryWellbeing Category = "wellbeing"
)

// Transaction is one cash movement. Records are never edited after append.
type Transaction struct {
	ID          string   `json:"id"`
	Day         uint32   `json:"day"`
	Amount      int64    `json:"amount"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
}

// TxLog keeps the most recent window of transactions, oldest first.
type TxLog struct {
	window  int
	entries []Transaction
}

func NewTxLog(window int) *TxLog {
	if window <= 0 {
		window = 1
	}
	return &TxLog{window: window}
}

func (l *TxLog) Append(day uint32, amount int64, category Category, description string) Transaction {
	tx := Transaction{
		ID:          uuid.NewString(),
		Day:         day,
		Amount:      amount,
		Description: description,
		Category:    category,
	}
	l.entries = append(l.entries, tx)
	if over := len(l.entries) - l.window; over > 0 {
		l.entries = append(l.entries[:0:0], l.entries[over:]...)
	}
	return tx
}

func (l *TxLog) Len() int {
	return len(l.entries)
}

// Recent returns up to limit entries, newest first. limit <= 0 returns all.
func (l *TxLog) Recent(limit int) []Transaction {
	n := len(l.entries)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]Transaction, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, l.entries[i])
	}
	return out
}

func (l *TxLog) all() []Transaction {
	out := make([]Transaction, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *TxLog) restore(entries []Transaction) {
	l.entries = nil
	start := 0
	if len(entries) > l.window {
		start = len(entries) - l.window
	}
	l.entries = append(l.entries, entries[start:]...)
}
