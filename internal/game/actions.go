package game

import (
	"context"
	"fmt"

	"finsim/internal/sim"
)

func (s *Service) PurchaseBond(ctx context.Context, id, key string, kind sim.BondKind, amount int64, rateBps int32, turns uint32) (sim.Bond, State, error) {
	var bond sim.Bond
	state, err := s.execute(ctx, id, key, "purchase_bond", func(e *sim.Engine) (*sim.AdvanceReport, error) {
		var err error
		bond, err = e.PurchaseBond(kind, amount, rateBps, turns)
		return nil, err
	})
	return bond, state, err
}

func (s *Service) ApplyForLoan(ctx context.Context, id, key string, req sim.LoanRequest) (sim.Loan, State, error) {
	var loan sim.Loan
	state, err := s.execute(ctx, id, key, "apply_loan", func(e *sim.Engine) (*sim.AdvanceReport, error) {
		var err error
		loan, err = e.ApplyForLoan(req)
		return nil, err
	})
	return loan, state, err
}

func (s *Service) PayEMI(ctx context.Context, id, key, loanID string) (int64, State, error) {
	var paid int64
	state, err := s.execute(ctx, id, key, "pay_emi", func(e *sim.Engine) (*sim.AdvanceReport, error) {
		var err error
		paid, err = e.PayEMI(loanID)
		return nil, err
	})
	return paid, state, err
}

func (s *Service) CustomLoanPayment(ctx context.Context, id, key, loanID string, amount int64) (int64, State, error) {
	var paid int64
	state, err := s.execute(ctx, id, key, "prepay_loan", func(e *sim.Engine) (*sim.AdvanceReport, error) {
		var err error
		paid, err = e.CustomLoanPayment(loanID, amount)
		return nil, err
	})
	return paid, state, err
}

func (s *Service) SetLoanAutoPay(ctx context.Context, id, key, loanID string, on bool) (State, error) {
	return s.execute(ctx, id, key, "loan_autopay", func(e *sim.Engine) (*sim.AdvanceReport, error) {
		return nil, e.SetLoanAutoPay(loanID, on)
	})
}

func (s *Service) BuyAsset(ctx context.Context, id, key string, req sim.AssetRequest) (sim.Asset, State, error) {
	var asset sim.Asset
	state, err := s.execute(ctx, id, key, "buy_asset", func(e *sim.Engine) (*sim.AdvanceReport, error) {
		var err error
		asset, err = e.BuyAsset(req)
		return nil, err
	})
	return asset, state, err
}

func (s *Service) SellAsset(ctx context.Context, id, key, assetID string) (int64, State, error) {
	var proceeds int64
	state, err := s.execute(ctx, id, key, "sell_asset", func(e *sim.Engine) (*sim.AdvanceReport, error) {
		var err error
		proceeds, err = e.SellAsset(assetID)
		return nil, err
	})
	return proceeds, state, err
}

func (s *Service) InvestInSector(ctx context.Context, id, key, sectorID string, category sim.ModifierCategory, modifierID string) (sim.SectorInvestment, State, error) {
	var inv sim.SectorInvestment
	state, err := s.execute(ctx, id, key, "invest", func(e *sim.Engine) (*sim.AdvanceReport, error) {
		var err error
		inv, err = e.InvestInSector(sectorID, category, modifierID)
		return nil, err
	})
	return inv, state, err
}

func (s *Service) ChargeCreditLine(ctx context.Context, id, key string, amount int64) (State, error) {
	return s.execute(ctx, id, key, "credit_charge", func(e *sim.Engine) (*sim.AdvanceReport, error) {
		return nil, e.ChargeCreditLine(amount)
	})
}

func (s *Service) RepayCreditLine(ctx context.Context, id, key string, amount int64) (int64, State, error) {
	var paid int64
	state, err := s.execute(ctx, id, key, "credit_repay", func(e *sim.Engine) (*sim.AdvanceReport, error) {
		var err error
		paid, err = e.RepayCreditLine(amount)
		return nil, err
	})
	return paid, state, err
}

// Budget changes the recurring monthly lines. Nil fields are left alone.
type Budget struct {
	MainIncome     *int64 `json:"main_income,omitempty"`
	LivingExpenses *int64 `json:"living_expenses,omitempty"`
	SideIncome     *int64 `json:"side_income,omitempty"`
}

func (b Budget) validate() error {
	for _, v := range []*int64{b.MainIncome, b.LivingExpenses, b.SideIncome} {
		if v != nil && *v < 0 {
			return fmt.Errorf("%w: budget lines must be >= 0", sim.ErrInvalidAmount)
		}
	}
	return nil
}

func (s *Service) SetBudget(ctx context.Context, id, key string, b Budget) (State, error) {
	if err := b.validate(); err != nil {
		return State{}, err
	}
	return s.execute(ctx, id, key, "budget", func(e *sim.Engine) (*sim.AdvanceReport, error) {
		if b.MainIncome != nil {
			if err := e.SetMainIncome(*b.MainIncome); err != nil {
				return nil, err
			}
		}
		if b.LivingExpenses != nil {
			if err := e.SetLivingExpenses(*b.LivingExpenses); err != nil {
				return nil, err
			}
		}
		if b.SideIncome != nil {
			if err := e.SetManualSideIncome(*b.SideIncome); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
}

func (s *Service) Rest(ctx context.Context, id, key string) (State, error) {
	return s.execute(ctx, id, key, "rest", func(e *sim.Engine) (*sim.AdvanceReport, error) {
		e.Rest()
		return nil, nil
	})
}

func (s *Service) AdjustWellbeing(ctx context.Context, id, key string, d sim.Delta) (State, error) {
	return s.execute(ctx, id, key, "wellbeing", func(e *sim.Engine) (*sim.AdvanceReport, error) {
		e.AdjustWellbeing(d)
		return nil, nil
	})
}

func (s *Service) Advance(ctx context.Context, id, key string, days uint32) (sim.AdvanceReport, State, error) {
	var report sim.AdvanceReport
	state, err := s.execute(ctx, id, key, "advance", func(e *sim.Engine) (*sim.AdvanceReport, error) {
		var err error
		report, err = e.Advance(days)
		if err != nil {
			return nil, err
		}
		return &report, nil
	})
	return report, state, err
}
