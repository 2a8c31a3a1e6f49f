package sim

import (
	"fmt"
	"math/rand/v2"
)

type BondKind string

const (
	BondGovernment BondKind = "government"
	BondCorporate  BondKind = "corporate"
	BondJunk       BondKind = "junk"
)

func (k BondKind) valid() bool {
	switch k {
	case BondGovernment, BondCorporate, BondJunk:
		return true
	}
	return false
}

type BondStatus string

const (
	BondActive    BondStatus = "active"
	BondMatured   BondStatus = "matured"
	BondDefaulted BondStatus = "defaulted"
)

// Bond pays Principal plus RateBps of it once TurnsRemaining reaches zero.
// The rate covers the whole term, not a year.
type Bond struct {
	ID             string     `json:"id"`
	BondKind       BondKind   `json:"kind"`
	Principal      int64      `json:"principal"`
	RateBps        int32      `json:"rate_bps"`
	TermTurns      uint32     `json:"term_turns"`
	TurnsRemaining uint32     `json:"turns_remaining"`
	Status         BondStatus `json:"status"`
	PurchasedDay   uint32     `json:"purchased_day"`
	SettledDay     uint32     `json:"settled_day,omitempty"`
}

func (b *Bond) Payout() int64 {
	return b.Principal + applyBps(b.Principal, int64(b.RateBps))
}

func (b *Book) purchaseBond(led *Ledger, day uint32, kind BondKind, amount int64, rateBps int32, turns uint32) (*Bond, error) {
	if !kind.valid() {
		return nil, fmt.Errorf("%w: unknown bond kind %q", ErrInvalidAmount, kind)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: bond amount must be > 0", ErrInvalidAmount)
	}
	if rateBps < 0 || int64(rateBps) > BpsScale {
		return nil, fmt.Errorf("%w: bond rate must be within 0..%d bps", ErrInvalidAmount, BpsScale)
	}
	if turns == 0 {
		return nil, fmt.Errorf("%w: bond term must be > 0", ErrInvalidAmount)
	}
	if led.Cash() < amount {
		return nil, fmt.Errorf("%w: bond costs %d, cash is %d", ErrInsufficientFunds, amount, led.Cash())
	}

	b.NextBondID++
	bond := &Bond{
		ID:             fmt.Sprintf("B%d", b.NextBondID),
		BondKind:       kind,
		Principal:      amount,
		RateBps:        rateBps,
		TermTurns:      turns,
		TurnsRemaining: turns,
		Status:         BondActive,
		PurchasedDay:   day,
	}
	b.Bonds = append(b.Bonds, bond)
	led.applyCashDelta(day, -amount, CategoryBond, fmt.Sprintf("bought %s bond %s", kind, bond.ID))
	return bond, nil
}

// junkDefaults draws once against chanceBps.
func junkDefaults(rng *rand.Rand, chanceBps int64) bool {
	if chanceBps <= 0 {
		return false
	}
	return rng.Int64N(BpsScale) < chanceBps
}

// maturityPass runs once per month rollover. Only Junk bonds consume
// randomness, one draw each, in book order.
func (b *Book) maturityPass(led *Ledger, day uint32, rng *rand.Rand, junkChanceBps int64) []Event {
	var events []Event
	for _, bond := range b.Bonds {
		if bond.Status != BondActive {
			continue
		}
		if bond.TurnsRemaining > 0 {
			bond.TurnsRemaining--
		}
		if bond.TurnsRemaining > 0 {
			continue
		}
		bond.SettledDay = day
		if bond.BondKind == BondJunk && junkDefaults(rng, junkChanceBps) {
			bond.Status = BondDefaulted
			events = append(events, Event{Day: day, Kind: EventBondDefaulted, Ref: bond.ID, Amount: -bond.Principal})
			continue
		}
		bond.Status = BondMatured
		payout := bond.Payout()
		led.applyCashDelta(day, payout, CategoryBond, fmt.Sprintf("%s bond %s matured", bond.BondKind, bond.ID))
		events = append(events, Event{Day: day, Kind: EventBondMatured, Ref: bond.ID, Amount: payout})
	}
	return events
}
