package sim

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

const (
	PaisePerRupee = int64(100)

	DaysPerMonth  = uint32(28)
	MonthsPerYear = uint32(12)
	DaysPerYear   = DaysPerMonth * MonthsPerYear

	BpsScale = int64(10_000) // 100% = 10_000 bps.

	StatMin = 0
	StatMax = 100
)

var (
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrCreditLimitExceeded = errors.New("credit limit exceeded")
	ErrCrisisFreeze        = errors.New("action blocked during wellbeing crisis")
	ErrNotFound            = errors.New("not found")
)

func Rupees(v int64) int64 {
	return v * PaisePerRupee
}

func RupeesToPaise(v float64) int64 {
	return int64(math.Round(v * float64(PaisePerRupee)))
}

func PaiseToRupees(v int64) float64 {
	return float64(v) / float64(PaisePerRupee)
}

// applyBps returns v scaled by bps, rounded half away from zero. The product
// is taken in decimal since v * bps leaves int64 range for large balances.
func applyBps(v int64, bps int64) int64 {
	return decimal.NewFromInt(v).
		Mul(decimal.NewFromInt(bps)).
		Div(decimal.NewFromInt(BpsScale)).
		Round(0).
		IntPart()
}

func clampStat(v int) int {
	if v < StatMin {
		return StatMin
	}
	if v > StatMax {
		return StatMax
	}
	return v
}

// clampDelta bounds a stat change to one full swing of the scale.
func clampDelta(v int) int {
	if v < -StatMax {
		return -StatMax
	}
	if v > StatMax {
		return StatMax
	}
	return v
}

func clampInt64(v, low, high int64) int64 {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}
