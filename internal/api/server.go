package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"finsim/internal/config"
	"finsim/internal/game"
	"finsim/internal/sim"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

type Server struct {
	cfg      config.APIConfig
	log      *slog.Logger
	game     *game.Service
	sectors  []sim.SectorSpec
	snapshot *jsonschema.Schema
	mux      *chi.Mux
}

func New(cfg config.APIConfig, logger *slog.Logger, gameSvc *game.Service, tuning sim.Tuning) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	schema, err := compileSnapshotSchema()
	if err != nil {
		return nil, err
	}
	s := &Server{
		cfg:      cfg,
		log:      logger,
		game:     gameSvc,
		sectors:  tuning.Sectors,
		snapshot: schema,
		mux:      chi.NewRouter(),
	}
	s.routes()
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/v1", func(r chi.Router) {
		// Long-lived; kept out of the request timeout.
		r.Get("/sessions/{id}/stream", s.handleStream)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			r.Get("/sectors", s.handleSectors)
			r.Post("/sessions", s.handleCreateSession)
			r.Get("/sessions", s.handleListSessions)
			r.Get("/sessions/{id}", s.handleSessionState)
			r.Delete("/sessions/{id}", s.handleDeleteSession)

			r.Post("/sessions/{id}/advance", s.handleAdvance)
			r.Post("/sessions/{id}/bonds", s.handlePurchaseBond)
			r.Post("/sessions/{id}/loans", s.handleApplyForLoan)
			r.Post("/sessions/{id}/loans/{loan_id}/emi", s.handlePayEMI)
			r.Post("/sessions/{id}/loans/{loan_id}/prepay", s.handlePrepayLoan)
			r.Post("/sessions/{id}/loans/{loan_id}/autopay", s.handleLoanAutoPay)
			r.Post("/sessions/{id}/assets", s.handleBuyAsset)
			r.Post("/sessions/{id}/assets/{asset_id}/sell", s.handleSellAsset)
			r.Post("/sessions/{id}/sectors/{sector_id}/invest", s.handleInvest)
			r.Post("/sessions/{id}/credit/charge", s.handleCreditCharge)
			r.Post("/sessions/{id}/credit/repay", s.handleCreditRepay)
			r.Post("/sessions/{id}/budget", s.handleBudget)
			r.Post("/sessions/{id}/rest", s.handleRest)
			r.Post("/sessions/{id}/wellbeing", s.handleWellbeing)
			r.Post("/sessions/{id}/auto-advance", s.handleAutoAdvance)
			r.Get("/sessions/{id}/transactions", s.handleTransactions)
			r.Get("/sessions/{id}/snapshot", s.handleGetSnapshot)
			r.Put("/sessions/{id}/snapshot", s.handlePutSnapshot)

			r.Post("/sync/replay", s.handleSyncReplay)
		})
	})
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrDuplicateIdempotency):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, game.ErrSessionNotFound), errors.Is(err, sim.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, game.ErrInvalidSessionName), errors.Is(err, sim.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, sim.ErrInsufficientFunds):
		writeError(w, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, sim.ErrConstraintViolation):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, sim.ErrCreditLimitExceeded):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, sim.ErrCrisisFreeze):
		writeError(w, http.StatusLocked, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}

func idempotencyKey(r *http.Request) string {
	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if key != "" {
		return key
	}
	return uuid.NewString()
}

func queryLimit(r *http.Request, fallback, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > max {
		return 0, fmt.Errorf("limit must be within 1..%d", max)
	}
	return n, nil
}
