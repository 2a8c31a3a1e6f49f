package sim

import "fmt"

// MaxAdvanceDays bounds a single Advance call to ten simulated years.
const MaxAdvanceDays = 10 * DaysPerYear

type WealthBand string

const (
	WealthThriving   WealthBand = "thriving"
	WealthStable     WealthBand = "stable"
	WealthStruggling WealthBand = "struggling"
	WealthInsolvent  WealthBand = "insolvent"
)

type WellbeingBand string

const (
	WellbeingFlourishing WellbeingBand = "flourishing"
	WellbeingSteady      WellbeingBand = "steady"
	WellbeingStrained    WellbeingBand = "strained"
)

// YearReview is recorded at every year rollover. It never ends the game.
type YearReview struct {
	Year          uint32        `json:"year"`
	Day           uint32        `json:"day"`
	NetWorth      int64         `json:"net_worth"`
	WealthBand    WealthBand    `json:"wealth_band"`
	WellbeingBand WellbeingBand `json:"wellbeing_band"`
}

func wealthBand(netWorth int64, t Tuning) WealthBand {
	switch {
	case netWorth < 0:
		return WealthInsolvent
	case netWorth >= t.ThrivingNetWorth:
		return WealthThriving
	case netWorth >= t.StableNetWorth:
		return WealthStable
	default:
		return WealthStruggling
	}
}

func wellbeingBand(w WellbeingState) WellbeingBand {
	score := (StatMax - w.Stress + w.Emotion + w.Energy + w.Karma) / 4
	switch {
	case score >= 70:
		return WellbeingFlourishing
	case score >= 40:
		return WellbeingSteady
	default:
		return WellbeingStrained
	}
}

// Advance runs days single-day steps. Each step ticks the clock, then runs
// wellbeing, instruments, revenue and ledger recompute in that order.
func (e *Engine) Advance(days uint32) (AdvanceReport, error) {
	if days == 0 || days > MaxAdvanceDays {
		return AdvanceReport{}, fmt.Errorf("%w: days must be within 1..%d", ErrInvalidAmount, MaxAdvanceDays)
	}
	report := AdvanceReport{Days: days, From: e.clock}
	for i := uint32(0); i < days; i++ {
		e.step(&report)
	}
	report.To = e.clock
	return report, nil
}

func (e *Engine) step(report *AdvanceReport) {
	t := e.tuning
	roll := e.clock.tick()
	day := e.day()

	e.wellbeing.daily(t)
	if roll.Month {
		e.wellbeing.monthly(t)
	}
	e.wellbeing.decrementFreezes()
	crises := e.wellbeing.checkCrises(e.ledger, day, t)
	e.absorb(crises)
	report.Events = append(report.Events, crises...)

	var events []Event
	events = append(events, e.book.processPending(e.ledger, day, t.LoanProcessingDays)...)
	events = append(events, e.book.dueDatePass(e.ledger, day, t)...)
	if roll.Month {
		e.ledger.applyMonthlyNetting(day)
		events = append(events, e.book.maturityPass(e.ledger, day, e.rng, t.JunkDefaultChanceBps)...)
		e.book.appreciationPass()
		events = append(events, e.book.creditInterestPass(day)...)
	}
	e.absorb(events)
	report.Events = append(report.Events, events...)

	if roll.Month {
		e.business.recompute(e.ledger)
	}

	e.recompute()

	if roll.Year {
		review := YearReview{
			// The review covers the year that just closed.
			Year:          e.clock.Year - 1,
			Day:           day,
			NetWorth:      e.ledger.st.NetWorth,
			WealthBand:    wealthBand(e.ledger.st.NetWorth, t),
			WellbeingBand: wellbeingBand(e.wellbeing.state()),
		}
		e.reviews = append(e.reviews, review)
		report.Reviews = append(report.Reviews, review)
		ev := Event{Day: day, Kind: EventYearReview, Amount: review.NetWorth, Detail: string(review.WealthBand)}
		e.absorb([]Event{ev})
		report.Events = append(report.Events, ev)
		e.log.Info("year review", "year", review.Year, "net_worth", review.NetWorth, "wealth", review.WealthBand, "wellbeing", review.WellbeingBand)
	}
}
