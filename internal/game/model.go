package game

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"finsim/internal/sim"
	"finsim/internal/store"
)

// Sessions keep this many recent idempotency keys.
const maxAppliedKeys = 256

var (
	ErrSessionNotFound      = store.ErrNotFound
	ErrDuplicateIdempotency = errors.New("duplicate idempotency key")
	ErrInvalidSessionName   = errors.New("session name must be 1-40 letters, digits, spaces, '_' or '-'")
)

var sessionNameRE = regexp.MustCompile(`^[a-zA-Z0-9 _-]{1,40}$`)

func ValidateSessionName(name string) error {
	if !sessionNameRE.MatchString(strings.TrimSpace(name)) {
		return ErrInvalidSessionName
	}
	return nil
}

// State is the read model of one session returned by every call.
type State struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	AutoAdvance bool                   `json:"auto_advance"`
	Clock       sim.Clock              `json:"clock"`
	Ledger      sim.LedgerState        `json:"ledger"`
	Instruments sim.InstrumentsView    `json:"instruments"`
	Wellbeing   sim.WellbeingState     `json:"wellbeing"`
	Sectors     []sim.SectorInvestment `json:"sectors"`
	CreditScore int                    `json:"credit_score"`
	Reviews     []sim.YearReview       `json:"reviews"`
}

// Update is pushed to stream subscribers after every committed change.
type Update struct {
	SessionID string             `json:"session_id"`
	Op        string             `json:"op"`
	State     State              `json:"state"`
	Report    *sim.AdvanceReport `json:"report,omitempty"`
}

func claimIdempotency(rec *store.Record, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("idempotency key is required")
	}
	for _, k := range rec.AppliedKeys {
		if k == key {
			return ErrDuplicateIdempotency
		}
	}
	return nil
}

func rememberKey(rec *store.Record, key string) {
	rec.AppliedKeys = append(rec.AppliedKeys, strings.TrimSpace(key))
	if over := len(rec.AppliedKeys) - maxAppliedKeys; over > 0 {
		rec.AppliedKeys = append([]string(nil), rec.AppliedKeys[over:]...)
	}
}

func stateOf(rec store.Record, e *sim.Engine) State {
	return State{
		ID:          rec.ID,
		Name:        rec.Name,
		AutoAdvance: rec.AutoAdvance,
		Clock:       e.ClockSnapshot(),
		Ledger:      e.LedgerSnapshot(),
		Instruments: e.InstrumentsSnapshot(),
		Wellbeing:   e.WellbeingSnapshot(),
		Sectors:     e.SectorsSnapshot(),
		CreditScore: e.CreditScore(),
		Reviews:     e.Reviews(),
	}
}
