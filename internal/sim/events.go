package sim

type EventKind string

const (
	EventBondMatured    EventKind = "bond_matured"
	EventBondDefaulted  EventKind = "bond_defaulted"
	EventLoanApproved   EventKind = "loan_approved"
	EventLoanActivated  EventKind = "loan_activated"
	EventEMIPaid        EventKind = "emi_paid"
	EventLoanPaidOff    EventKind = "loan_paid_off"
	EventAutoPayFailed  EventKind = "autopay_failed"
	EventPaymentMissed  EventKind = "payment_missed"
	EventPenaltyRaised  EventKind = "penalty_raised"
	EventAssetsSeized   EventKind = "assets_seized"
	EventDebtWiped      EventKind = "debt_wiped"
	EventCreditInterest EventKind = "credit_interest"
	EventHospitalized   EventKind = "hospitalized"
	EventBreakdown      EventKind = "breakdown"
	EventBlackout       EventKind = "blackout"
	EventYearReview     EventKind = "year_review"
)

// Event is a state transition worth reporting. Amount is signed and in
// paise where it applies.
type Event struct {
	Day    uint32    `json:"day"`
	Kind   EventKind `json:"kind"`
	Ref    string    `json:"ref,omitempty"`
	Amount int64     `json:"amount,omitempty"`
	Detail string    `json:"detail,omitempty"`
}

func (k EventKind) crisis() bool {
	return k == EventHospitalized || k == EventBreakdown || k == EventBlackout
}

// notable events reset the clock's days-since-last-event counter.
func (k EventKind) notable() bool {
	switch k {
	case EventEMIPaid, EventLoanApproved, EventCreditInterest:
		return false
	}
	return true
}

type AdvanceReport struct {
	Days    uint32       `json:"days"`
	From    Clock        `json:"from"`
	To      Clock        `json:"to"`
	Events  []Event      `json:"events"`
	Reviews []YearReview `json:"reviews,omitempty"`
}

func (r AdvanceReport) Count(kind EventKind) int {
	n := 0
	for _, ev := range r.Events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

func (r AdvanceReport) Crises() []Event {
	var out []Event
	for _, ev := range r.Events {
		if ev.Kind.crisis() {
			out = append(out, ev)
		}
	}
	return out
}
