package api

import (
	"net/http"

	"finsim/internal/game"
	"finsim/internal/sim"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleSectors(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"sectors": s.sectors})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name                string `json:"name"`
		StartingCashPaise   int64  `json:"starting_cash_paise"`
		MainIncomePaise     int64  `json:"main_income_paise"`
		LivingExpensesPaise int64  `json:"living_expenses_paise"`
		Seed                uint64 `json:"seed"`
		AutoAdvance         bool   `json:"auto_advance"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	state, err := s.game.CreateSession(r.Context(), in.Name, sim.Params{
		StartingCash:   in.StartingCashPaise,
		MainIncome:     in.MainIncomePaise,
		LivingExpenses: in.LivingExpensesPaise,
		Seed:           in.Seed,
	}, in.AutoAdvance)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, state)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.game.ListSessions(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (s *Server) handleSessionState(w http.ResponseWriter, r *http.Request) {
	state, err := s.game.State(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.game.DeleteSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Days uint32 `json:"days"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	report, state, err := s.game.Advance(r.Context(), chi.URLParam(r, "id"), idempotencyKey(r), in.Days)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"report": report, "state": state})
}

func (s *Server) handlePurchaseBond(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Kind        sim.BondKind `json:"kind"`
		AmountPaise int64        `json:"amount_paise"`
		RateBps     int32        `json:"rate_bps"`
		Turns       uint32       `json:"turns"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	bond, state, err := s.game.PurchaseBond(r.Context(), chi.URLParam(r, "id"), idempotencyKey(r), in.Kind, in.AmountPaise, in.RateBps, in.Turns)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bond": bond, "state": state})
}

func (s *Server) handleApplyForLoan(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Kind        sim.LoanKind `json:"kind"`
		AmountPaise int64        `json:"amount_paise"`
		RateBps     int32        `json:"rate_bps"`
		Months      uint32       `json:"months"`
		AutoPay     bool         `json:"auto_pay"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	loan, state, err := s.game.ApplyForLoan(r.Context(), chi.URLParam(r, "id"), idempotencyKey(r), sim.LoanRequest{
		Kind:    in.Kind,
		Amount:  in.AmountPaise,
		RateBps: in.RateBps,
		Months:  in.Months,
		AutoPay: in.AutoPay,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"loan": loan, "state": state})
}

func (s *Server) handlePayEMI(w http.ResponseWriter, r *http.Request) {
	paid, state, err := s.game.PayEMI(r.Context(), chi.URLParam(r, "id"), idempotencyKey(r), chi.URLParam(r, "loan_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"paid_paise": paid, "state": state})
}

func (s *Server) handlePrepayLoan(w http.ResponseWriter, r *http.Request) {
	var in struct {
		AmountPaise int64 `json:"amount_paise"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	paid, state, err := s.game.CustomLoanPayment(r.Context(), chi.URLParam(r, "id"), idempotencyKey(r), chi.URLParam(r, "loan_id"), in.AmountPaise)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"paid_paise": paid, "state": state})
}

func (s *Server) handleLoanAutoPay(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Enabled bool `json:"enabled"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	state, err := s.game.SetLoanAutoPay(r.Context(), chi.URLParam(r, "id"), idempotencyKey(r), chi.URLParam(r, "loan_id"), in.Enabled)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleBuyAsset(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name                    string `json:"name"`
		PricePaise              int64  `json:"price_paise"`
		MonthlyIncomePaise      int64  `json:"monthly_income_paise"`
		AppreciationBpsPerMonth int32  `json:"appreciation_bps_per_month"`
		MaintenanceCostPaise    int64  `json:"maintenance_cost_paise"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	asset, state, err := s.game.BuyAsset(r.Context(), chi.URLParam(r, "id"), idempotencyKey(r), sim.AssetRequest{
		Name:                    in.Name,
		Price:                   in.PricePaise,
		MonthlyIncome:           in.MonthlyIncomePaise,
		AppreciationBpsPerMonth: in.AppreciationBpsPerMonth,
		MaintenanceCost:         in.MaintenanceCostPaise,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"asset": asset, "state": state})
}

func (s *Server) handleSellAsset(w http.ResponseWriter, r *http.Request) {
	proceeds, state, err := s.game.SellAsset(r.Context(), chi.URLParam(r, "id"), idempotencyKey(r), chi.URLParam(r, "asset_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"proceeds_paise": proceeds, "state": state})
}

func (s *Server) handleInvest(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Category sim.ModifierCategory `json:"category"`
		Modifier string               `json:"modifier"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	inv, state, err := s.game.InvestInSector(r.Context(), chi.URLParam(r, "id"), idempotencyKey(r), chi.URLParam(r, "sector_id"), in.Category, in.Modifier)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"investment": inv, "state": state})
}

func (s *Server) handleCreditCharge(w http.ResponseWriter, r *http.Request) {
	var in struct {
		AmountPaise int64 `json:"amount_paise"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	state, err := s.game.ChargeCreditLine(r.Context(), chi.URLParam(r, "id"), idempotencyKey(r), in.AmountPaise)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleCreditRepay(w http.ResponseWriter, r *http.Request) {
	var in struct {
		AmountPaise int64 `json:"amount_paise"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	paid, state, err := s.game.RepayCreditLine(r.Context(), chi.URLParam(r, "id"), idempotencyKey(r), in.AmountPaise)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"paid_paise": paid, "state": state})
}

func (s *Server) handleBudget(w http.ResponseWriter, r *http.Request) {
	var in struct {
		MainIncomePaise     *int64 `json:"main_income_paise"`
		LivingExpensesPaise *int64 `json:"living_expenses_paise"`
		SideIncomePaise     *int64 `json:"side_income_paise"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	state, err := s.game.SetBudget(r.Context(), chi.URLParam(r, "id"), idempotencyKey(r), game.Budget{
		MainIncome:     in.MainIncomePaise,
		LivingExpenses: in.LivingExpensesPaise,
		SideIncome:     in.SideIncomePaise,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleRest(w http.ResponseWriter, r *http.Request) {
	state, err := s.game.Rest(r.Context(), chi.URLParam(r, "id"), idempotencyKey(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleWellbeing(w http.ResponseWriter, r *http.Request) {
	var in sim.Delta
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	state, err := s.game.AdjustWellbeing(r.Context(), chi.URLParam(r, "id"), idempotencyKey(r), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleAutoAdvance(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Enabled bool `json:"enabled"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	state, err := s.game.SetAutoAdvance(r.Context(), chi.URLParam(r, "id"), idempotencyKey(r), in.Enabled)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r, 50, 5_000)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	txs, err := s.game.History(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": txs})
}
