package sim

import (
	"fmt"
	"sort"
)

type InstrumentKind string

const (
	KindBond       InstrumentKind = "bond"
	KindLoan       InstrumentKind = "loan"
	KindAsset      InstrumentKind = "asset"
	KindCreditLine InstrumentKind = "credit_line"
)

// Instrument is the closed set of records the InstrumentBook owns: *Bond,
// *Loan, *Asset and *CreditLine. Code that handles instruments generically
// switches on the concrete type.
type Instrument interface {
	InstrumentID() string
	Kind() InstrumentKind
	instrument()
}

func (b *Bond) InstrumentID() string       { return b.ID }
func (b *Bond) Kind() InstrumentKind       { return KindBond }
func (*Bond) instrument()                  {}
func (l *Loan) InstrumentID() string       { return l.ID }
func (l *Loan) Kind() InstrumentKind       { return KindLoan }
func (*Loan) instrument()                  {}
func (a *Asset) InstrumentID() string      { return a.ID }
func (a *Asset) Kind() InstrumentKind      { return KindAsset }
func (*Asset) instrument()                 {}
func (c *CreditLine) InstrumentID() string { return "credit" }
func (c *CreditLine) Kind() InstrumentKind { return KindCreditLine }
func (*CreditLine) instrument()            {}

// assetValue is what an instrument contributes to totalAssetValue.
func assetValue(inst Instrument) int64 {
	switch v := inst.(type) {
	case *Bond:
		if v.Status == BondActive {
			return v.Principal
		}
		return 0
	case *Asset:
		return v.Value
	case *Loan, *CreditLine:
		return 0
	default:
		panic(fmt.Sprintf("sim: unhandled instrument %T", inst))
	}
}

// liabilityValue is what an instrument contributes to totalLiabilityValue.
func liabilityValue(inst Instrument) int64 {
	switch v := inst.(type) {
	case *Loan:
		if v.Status == LoanApproved || v.Status == LoanActive {
			return v.Outstanding
		}
		return 0
	case *CreditLine:
		return v.Balance
	case *Bond, *Asset:
		return 0
	default:
		panic(fmt.Sprintf("sim: unhandled instrument %T", inst))
	}
}

// Book owns every instrument record. Cash effects go through the ledger;
// the engine passes the current day on each call.
type Book struct {
	Bonds  []*Bond     `json:"bonds"`
	Loans  []*Loan     `json:"loans"`
	Assets []*Asset    `json:"assets"`
	Credit *CreditLine `json:"credit_line"`

	NextBondID  int64 `json:"next_bond_id"`
	NextLoanID  int64 `json:"next_loan_id"`
	NextAssetID int64 `json:"next_asset_id"`
}

func newBook(creditRateBps int32) *Book {
	return &Book{
		Credit: &CreditLine{RateBps: creditRateBps},
	}
}

func (b *Book) Instruments() []Instrument {
	out := make([]Instrument, 0, len(b.Bonds)+len(b.Loans)+len(b.Assets)+1)
	for _, v := range b.Bonds {
		out = append(out, v)
	}
	for _, v := range b.Loans {
		out = append(out, v)
	}
	for _, v := range b.Assets {
		out = append(out, v)
	}
	if b.Credit != nil {
		out = append(out, b.Credit)
	}
	return out
}

func (b *Book) TotalAssetValue() int64 {
	var total int64
	for _, inst := range b.Instruments() {
		total += assetValue(inst)
	}
	return total
}

func (b *Book) TotalLiabilityValue() int64 {
	var total int64
	for _, inst := range b.Instruments() {
		total += liabilityValue(inst)
	}
	return total
}

// seizableValue counts owned assets only; bonds are not liquidated.
func (b *Book) seizableValue() int64 {
	var total int64
	for _, a := range b.Assets {
		total += a.Value
	}
	return total
}

func (b *Book) assetsByValueDesc() []*Asset {
	out := make([]*Asset, len(b.Assets))
	copy(out, b.Assets)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Value == out[j].Value {
			return out[i].ID < out[j].ID
		}
		return out[i].Value > out[j].Value
	})
	return out
}

func (b *Book) removeAsset(id string) {
	kept := b.Assets[:0]
	for _, a := range b.Assets {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	for i := len(kept); i < len(b.Assets); i++ {
		b.Assets[i] = nil
	}
	b.Assets = kept
}

func (b *Book) findLoan(id string) (*Loan, error) {
	for _, l := range b.Loans {
		if l.ID == id {
			return l, nil
		}
	}
	return nil, fmt.Errorf("%w: loan %s", ErrNotFound, id)
}

func (b *Book) findAsset(id string) (*Asset, error) {
	for _, a := range b.Assets {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: asset %s", ErrNotFound, id)
}

func (b *Book) clone() *Book {
	out := &Book{
		NextBondID:  b.NextBondID,
		NextLoanID:  b.NextLoanID,
		NextAssetID: b.NextAssetID,
	}
	for _, v := range b.Bonds {
		c := *v
		out.Bonds = append(out.Bonds, &c)
	}
	for _, v := range b.Loans {
		c := *v
		out.Loans = append(out.Loans, &c)
	}
	for _, v := range b.Assets {
		c := *v
		out.Assets = append(out.Assets, &c)
	}
	if b.Credit != nil {
		c := *b.Credit
		out.Credit = &c
	}
	return out
}
