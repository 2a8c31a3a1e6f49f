package sim

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

const SnapshotVersion = 1

// Snapshot is the complete serializable state of an Engine, random source
// included. Restoring it and advancing produces the same results as never
// having stopped.
type Snapshot struct {
	Version      int                `json:"version"`
	Tuning       Tuning             `json:"tuning"`
	Clock        Clock              `json:"clock"`
	Ledger       LedgerState        `json:"ledger"`
	Instruments  Book               `json:"instruments"`
	Wellbeing    WellbeingState     `json:"wellbeing"`
	Sectors      []SectorInvestment `json:"sectors"`
	Transactions []Transaction      `json:"transactions"`
	Reviews      []YearReview       `json:"reviews"`
	RNG          []byte             `json:"rng"`
}

func (e *Engine) Snapshot() (Snapshot, error) {
	rng, err := e.pcg.MarshalBinary()
	if err != nil {
		return Snapshot{}, fmt.Errorf("marshal rng: %w", err)
	}
	return Snapshot{
		Version:      SnapshotVersion,
		Tuning:       e.tuning,
		Clock:        e.clock,
		Ledger:       e.ledger.state(),
		Instruments:  *e.book.clone(),
		Wellbeing:    e.wellbeing.state(),
		Sectors:      e.business.snapshot(),
		Transactions: e.txlog.all(),
		Reviews:      e.Reviews(),
		RNG:          rng,
	}, nil
}

// FromSnapshot builds an Engine from a snapshot.
func FromSnapshot(s Snapshot, logger *slog.Logger) (*Engine, error) {
	if s.Version != SnapshotVersion {
		return nil, fmt.Errorf("%w: snapshot version %d, want %d", ErrInvalidAmount, s.Version, SnapshotVersion)
	}
	if err := s.Tuning.Validate(); err != nil {
		return nil, fmt.Errorf("%w: tuning: %v", ErrInvalidAmount, err)
	}
	if err := s.Clock.valid(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	if err := validateBook(&s.Instruments); err != nil {
		return nil, err
	}

	e := newEngine(s.Tuning, logger, 0)
	if err := e.pcg.UnmarshalBinary(s.RNG); err != nil {
		return nil, fmt.Errorf("%w: rng state: %v", ErrInvalidAmount, err)
	}
	e.clock = s.Clock
	e.txlog.restore(s.Transactions)
	e.ledger.restore(s.Ledger)
	e.book = s.Instruments.clone()
	if e.book.Credit == nil {
		e.book.Credit = &CreditLine{RateBps: s.Tuning.CreditLineRateBps}
	}
	if err := e.wellbeing.restore(s.Wellbeing); err != nil {
		return nil, err
	}
	if err := e.business.restore(s.Sectors); err != nil {
		return nil, err
	}
	e.reviews = append(e.reviews, s.Reviews...)
	e.book.syncAssetLines(e.ledger)
	e.business.recompute(e.ledger)
	e.recompute()
	return e, nil
}

// Restore replaces the engine's state with s. On error the engine is left
// as it was.
func (e *Engine) Restore(s Snapshot) error {
	next, err := FromSnapshot(s, e.log)
	if err != nil {
		return err
	}
	*e = *next
	return nil
}

func validateBook(b *Book) error {
	seen := map[string]struct{}{}
	check := func(id string) error {
		if id == "" {
			return fmt.Errorf("%w: instrument without id", ErrInvalidAmount)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: duplicate instrument id %s", ErrInvalidAmount, id)
		}
		seen[id] = struct{}{}
		return nil
	}
	for _, v := range b.Bonds {
		if err := check(v.ID); err != nil {
			return err
		}
		if !v.BondKind.valid() || v.Principal < 0 {
			return fmt.Errorf("%w: bond %s", ErrInvalidAmount, v.ID)
		}
		switch v.Status {
		case BondActive, BondMatured, BondDefaulted:
		default:
			return fmt.Errorf("%w: bond %s has status %q", ErrInvalidAmount, v.ID, v.Status)
		}
	}
	for _, v := range b.Loans {
		if err := check(v.ID); err != nil {
			return err
		}
		if !v.LoanKind.valid() || v.Outstanding < 0 || v.PenaltyLevel > 2 {
			return fmt.Errorf("%w: loan %s", ErrInvalidAmount, v.ID)
		}
		switch v.Status {
		case LoanPending, LoanApproved, LoanActive, LoanPaidOff:
		default:
			return fmt.Errorf("%w: loan %s has status %q", ErrInvalidAmount, v.ID, v.Status)
		}
	}
	for _, v := range b.Assets {
		if err := check(v.ID); err != nil {
			return err
		}
		if v.Value < 0 {
			return fmt.Errorf("%w: asset %s", ErrInvalidAmount, v.ID)
		}
	}
	if b.Credit != nil && b.Credit.Balance < 0 {
		return fmt.Errorf("%w: negative credit balance", ErrInvalidAmount)
	}
	catchUpIDs(b)
	return nil
}

// catchUpIDs raises each id counter to the highest sequence already issued
// under its prefix, so the next instrument never reuses an id.
func catchUpIDs(b *Book) {
	for _, v := range b.Bonds {
		b.NextBondID = max(b.NextBondID, idSequence(v.ID, "B"))
	}
	for _, v := range b.Loans {
		b.NextLoanID = max(b.NextLoanID, idSequence(v.ID, "L"))
	}
	for _, v := range b.Assets {
		b.NextAssetID = max(b.NextAssetID, idSequence(v.ID, "A"))
	}
}

func idSequence(id, prefix string) int64 {
	rest, ok := strings.CutPrefix(id, prefix)
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
