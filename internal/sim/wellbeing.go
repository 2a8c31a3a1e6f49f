package sim

import "fmt"

type Stat string

const (
	StatStress     Stat = "stress"
	StatEmotion    Stat = "emotion"
	StatKarma      Stat = "karma"
	StatLogic      Stat = "logic"
	StatReputation Stat = "reputation"
	StatEnergy     Stat = "energy"
)

// WellbeingState holds the six stats, each kept within StatMin..StatMax,
// and the crisis freeze counters.
type WellbeingState struct {
	Stress     int `json:"stress"`
	Emotion    int `json:"emotion"`
	Karma      int `json:"karma"`
	Logic      int `json:"logic"`
	Reputation int `json:"reputation"`
	Energy     int `json:"energy"`

	HospitalizedTurnsLeft int `json:"hospitalized_turns_left"`
	BreakdownTurnsLeft    int `json:"breakdown_turns_left"`
	BlackoutTurnsLeft     int `json:"blackout_turns_left"`
	TurnsWithoutRest      int `json:"turns_without_rest"`

	// Crisis latches. A latched crisis fires again only after a check has
	// seen its condition clear.
	HospitalLatched  bool `json:"hospital_latched"`
	BreakdownLatched bool `json:"breakdown_latched"`
	BlackoutLatched  bool `json:"blackout_latched"`
}

func defaultWellbeing() WellbeingState {
	return WellbeingState{
		Stress:     20,
		Emotion:    70,
		Karma:      50,
		Logic:      50,
		Reputation: 50,
		Energy:     80,
	}
}

// Frozen reports whether any crisis is still running.
func (w WellbeingState) Frozen() bool {
	return w.HospitalizedTurnsLeft > 0 || w.BreakdownTurnsLeft > 0 || w.BlackoutTurnsLeft > 0
}

// Delta is a signed change per stat. Zero fields leave a stat alone.
type Delta struct {
	Stress     int `json:"stress,omitempty"`
	Emotion    int `json:"emotion,omitempty"`
	Karma      int `json:"karma,omitempty"`
	Logic      int `json:"logic,omitempty"`
	Reputation int `json:"reputation,omitempty"`
	Energy     int `json:"energy,omitempty"`
}

type Wellbeing struct {
	st WellbeingState
}

func newWellbeing(st WellbeingState) *Wellbeing {
	w := &Wellbeing{st: st}
	w.clamp()
	return w
}

func (w *Wellbeing) apply(d Delta) {
	w.st.Stress += clampDelta(d.Stress)
	w.st.Emotion += clampDelta(d.Emotion)
	w.st.Karma += clampDelta(d.Karma)
	w.st.Logic += clampDelta(d.Logic)
	w.st.Reputation += clampDelta(d.Reputation)
	w.st.Energy += clampDelta(d.Energy)
	w.clamp()
}

func (w *Wellbeing) clamp() {
	w.st.Stress = clampStat(w.st.Stress)
	w.st.Emotion = clampStat(w.st.Emotion)
	w.st.Karma = clampStat(w.st.Karma)
	w.st.Logic = clampStat(w.st.Logic)
	w.st.Reputation = clampStat(w.st.Reputation)
	w.st.Energy = clampStat(w.st.Energy)
}

// daily applies the per-day stress increment, plus overwork once the player
// has gone RestlessDaysThreshold days without resting.
func (w *Wellbeing) daily(t Tuning) {
	w.st.TurnsWithoutRest++
	d := Delta{Stress: t.DailyStress}
	if w.st.TurnsWithoutRest > t.RestlessDaysThreshold {
		d.Stress += t.OverworkStress
		d.Energy = -t.OverworkStress
	}
	w.apply(d)
}

func (w *Wellbeing) monthly(t Tuning) {
	w.apply(Delta{Stress: -t.ConsistencyBonus, Logic: 1})
}

func (w *Wellbeing) rest(t Tuning) {
	w.st.TurnsWithoutRest = 0
	w.apply(Delta{Stress: -t.RestStressRelief, Energy: t.RestEnergy})
}

func (w *Wellbeing) decrementFreezes() {
	if w.st.HospitalizedTurnsLeft > 0 {
		w.st.HospitalizedTurnsLeft--
	}
	if w.st.BreakdownTurnsLeft > 0 {
		w.st.BreakdownTurnsLeft--
	}
	if w.st.BlackoutTurnsLeft > 0 {
		w.st.BlackoutTurnsLeft--
	}
}

// checkCrises evaluates hospitalization, breakdown, then blackout. Fees are
// posted with no cash floor.
func (w *Wellbeing) checkCrises(led *Ledger, day uint32, t Tuning) []Event {
	var events []Event

	if w.st.Stress >= StatMax {
		if !w.st.HospitalLatched && w.st.HospitalizedTurnsLeft == 0 {
			w.st.HospitalLatched = true
			w.st.Stress = t.HospitalStress
			w.st.Energy = t.HospitalEnergy
			w.st.HospitalizedTurnsLeft = t.HospitalTurns
			led.applyPenaltyDelta(day, -t.HospitalFee, CategoryWellbeing, "hospitalization fee")
			events = append(events, Event{Day: day, Kind: EventHospitalized, Amount: -t.HospitalFee})
		}
	} else {
		w.st.HospitalLatched = false
	}

	if w.st.Emotion <= StatMin {
		if !w.st.BreakdownLatched {
			w.st.BreakdownLatched = true
			w.st.Emotion = t.BreakdownEmotionFloor
			w.st.BreakdownTurnsLeft = t.BreakdownTurns
			events = append(events, Event{Day: day, Kind: EventBreakdown})
		}
	} else {
		w.st.BreakdownLatched = false
	}

	if w.st.Stress >= t.BlackoutStress && w.st.Emotion <= t.BlackoutEmotion {
		if !w.st.BlackoutLatched {
			w.st.BlackoutLatched = true
			w.st.BlackoutTurnsLeft = t.BlackoutTurns
			led.applyPenaltyDelta(day, -t.BlackoutFee, CategoryWellbeing, "blackout recovery fee")
			events = append(events, Event{Day: day, Kind: EventBlackout, Amount: -t.BlackoutFee})
		}
	} else {
		w.st.BlackoutLatched = false
	}

	w.clamp()
	return events
}

func (w *Wellbeing) state() WellbeingState {
	return w.st
}

func (w *Wellbeing) restore(st WellbeingState) error {
	for _, f := range []struct {
		name Stat
		v    int
	}{
		{StatStress, st.Stress},
		{StatEmotion, st.Emotion},
		{StatKarma, st.Karma},
		{StatLogic, st.Logic},
		{StatReputation, st.Reputation},
		{StatEnergy, st.Energy},
	} {
		if f.v < StatMin || f.v > StatMax {
			return fmt.Errorf("%w: %s %d outside %d..%d", ErrInvalidAmount, f.name, f.v, StatMin, StatMax)
		}
	}
	if st.HospitalizedTurnsLeft < 0 || st.BreakdownTurnsLeft < 0 || st.BlackoutTurnsLeft < 0 {
		return fmt.Errorf("%w: negative crisis counter", ErrInvalidAmount)
	}
	w.st = st
	return nil
}
