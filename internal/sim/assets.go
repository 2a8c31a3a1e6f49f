package sim

import (
	"fmt"
	"strings"
)

type Asset struct {
	ID                      string `json:"id"`
	Name                    string `json:"name"`
	Value                   int64  `json:"value"`
	PurchasePrice           int64  `json:"purchase_price"`
	MonthlyIncome           int64  `json:"monthly_income"`
	AppreciationBpsPerMonth int32  `json:"appreciation_bps_per_month"`
	MaintenanceCost         int64  `json:"maintenance_cost"`
	PurchasedDay            uint32 `json:"purchased_day"`
}

// CreditLine is a revolving balance. Limit follows the credit score and is
// refreshed on every recompute.
type CreditLine struct {
	Limit   int64 `json:"limit"`
	Balance int64 `json:"balance"`
	RateBps int32 `json:"rate_bps"`
}

func (c *CreditLine) Available() int64 {
	if c.Balance >= c.Limit {
		return 0
	}
	return c.Limit - c.Balance
}

// CreditLimit grants CreditLimitPerPoint for every score point above
// CreditLimitMinScore.
func CreditLimit(score int, t Tuning) int64 {
	if score <= t.CreditLimitMinScore {
		return 0
	}
	return int64(score-t.CreditLimitMinScore) * t.CreditLimitPerPoint
}

func (b *Book) buyAsset(led *Ledger, day uint32, req AssetRequest) (*Asset, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: asset name is required", ErrInvalidAmount)
	}
	if req.Price <= 0 {
		return nil, fmt.Errorf("%w: asset price must be > 0", ErrInvalidAmount)
	}
	if req.MonthlyIncome < 0 || req.MaintenanceCost < 0 {
		return nil, fmt.Errorf("%w: asset income and maintenance must be >= 0", ErrInvalidAmount)
	}
	if req.AppreciationBpsPerMonth < -int32(BpsScale) || int64(req.AppreciationBpsPerMonth) > BpsScale {
		return nil, fmt.Errorf("%w: appreciation must be within -%d..%d bps", ErrInvalidAmount, BpsScale, BpsScale)
	}
	if led.Cash() < req.Price {
		return nil, fmt.Errorf("%w: %s costs %d, cash is %d", ErrInsufficientFunds, name, req.Price, led.Cash())
	}

	b.NextAssetID++
	asset := &Asset{
		ID:                      fmt.Sprintf("A%d", b.NextAssetID),
		Name:                    name,
		Value:                   req.Price,
		PurchasePrice:           req.Price,
		MonthlyIncome:           req.MonthlyIncome,
		AppreciationBpsPerMonth: req.AppreciationBpsPerMonth,
		MaintenanceCost:         req.MaintenanceCost,
		PurchasedDay:            day,
	}
	b.Assets = append(b.Assets, asset)
	led.applyCashDelta(day, -req.Price, CategoryAsset, fmt.Sprintf("bought %s (%s)", name, asset.ID))
	b.syncAssetLines(led)
	return asset, nil
}

func (b *Book) sellAsset(led *Ledger, day uint32, id string) (int64, error) {
	asset, err := b.findAsset(id)
	if err != nil {
		return 0, err
	}
	b.removeAsset(asset.ID)
	led.applyCashDelta(day, asset.Value, CategoryAsset, fmt.Sprintf("sold %s (%s)", asset.Name, asset.ID))
	b.syncAssetLines(led)
	return asset.Value, nil
}

// syncAssetLines rewrites the assets income and expense lines from the
// current holdings.
func (b *Book) syncAssetLines(led *Ledger) {
	var income, upkeep int64
	for _, a := range b.Assets {
		income += a.MonthlyIncome
		upkeep += a.MaintenanceCost
	}
	led.setSideIncomeLine(IncomeAssets, income)
	led.setExpenseLine(ExpenseAssets, upkeep)
}

func (b *Book) appreciationPass() {
	for _, a := range b.Assets {
		a.Value += applyBps(a.Value, int64(a.AppreciationBpsPerMonth))
		if a.Value < 0 {
			a.Value = 0
		}
	}
}

func (b *Book) chargeCredit(led *Ledger, day uint32, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: charge must be > 0", ErrInvalidAmount)
	}
	c := b.Credit
	if c.Balance+amount > c.Limit {
		return fmt.Errorf("%w: balance %d + charge %d exceeds limit %d", ErrCreditLimitExceeded, c.Balance, amount, c.Limit)
	}
	c.Balance += amount
	led.applyCashDelta(day, amount, CategoryCredit, "credit line draw")
	return nil
}

func (b *Book) repayCredit(led *Ledger, day uint32, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: repayment must be > 0", ErrInvalidAmount)
	}
	c := b.Credit
	if c.Balance == 0 {
		return 0, fmt.Errorf("%w: credit line has no balance", ErrConstraintViolation)
	}
	if amount > c.Balance {
		amount = c.Balance
	}
	if led.Cash() < amount {
		return 0, fmt.Errorf("%w: repayment is %d, cash is %d", ErrInsufficientFunds, amount, led.Cash())
	}
	c.Balance -= amount
	led.applyCashDelta(day, -amount, CategoryCredit, "credit line repayment")
	return amount, nil
}

// creditInterestPass capitalizes one month of interest onto the balance.
func (b *Book) creditInterestPass(day uint32) []Event {
	c := b.Credit
	if c == nil || c.Balance <= 0 {
		return nil
	}
	interest := monthlyInterest(c.Balance, c.RateBps)
	if interest == 0 {
		return nil
	}
	c.Balance += interest
	return []Event{{Day: day, Kind: EventCreditInterest, Ref: c.InstrumentID(), Amount: interest}}
}
