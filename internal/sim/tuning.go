package sim

import "fmt"

// Tuning holds every constant the engine's state machines depend on. The
// zero value is not usable; start from DefaultTuning and override.
type Tuning struct {
	TransactionWindow int `json:"transaction_window" yaml:"transaction_window"`

	// Bonds.
	JunkDefaultChanceBps int64 `json:"junk_default_chance_bps" yaml:"junk_default_chance_bps"`

	// Loans.
	MinCreditScore     int    `json:"min_credit_score" yaml:"min_credit_score"`
	BaseCreditScore    int    `json:"base_credit_score" yaml:"base_credit_score"`
	CreditScorePerStep int64  `json:"credit_score_step_paise" yaml:"credit_score_step_paise"`
	LoanProcessingDays uint32 `json:"loan_processing_days" yaml:"loan_processing_days"`
	PenaltyRateBps     int32  `json:"penalty_rate_bps" yaml:"penalty_rate_bps"`
	PaidOffKarmaBonus  int    `json:"paid_off_karma_bonus" yaml:"paid_off_karma_bonus"`
	SeizureStress      int    `json:"seizure_stress" yaml:"seizure_stress"`
	SeizureReputation  int    `json:"seizure_reputation" yaml:"seizure_reputation"`
	MissedStress       int    `json:"missed_payment_stress" yaml:"missed_payment_stress"`

	// Credit line.
	CreditLineRateBps   int32 `json:"credit_line_rate_bps" yaml:"credit_line_rate_bps"`
	CreditLimitPerPoint int64 `json:"credit_limit_per_point_paise" yaml:"credit_limit_per_point_paise"`
	CreditLimitMinScore int   `json:"credit_limit_min_score" yaml:"credit_limit_min_score"`

	// Wellbeing.
	DailyStress           int   `json:"daily_stress" yaml:"daily_stress"`
	OverworkStress        int   `json:"overwork_stress" yaml:"overwork_stress"`
	RestlessDaysThreshold int   `json:"restless_days_threshold" yaml:"restless_days_threshold"`
	ConsistencyBonus      int   `json:"consistency_bonus" yaml:"consistency_bonus"`
	RestStressRelief      int   `json:"rest_stress_relief" yaml:"rest_stress_relief"`
	RestEnergy            int   `json:"rest_energy" yaml:"rest_energy"`
	HospitalStress        int   `json:"hospital_stress" yaml:"hospital_stress"`
	HospitalEnergy        int   `json:"hospital_energy" yaml:"hospital_energy"`
	HospitalFee           int64 `json:"hospital_fee" yaml:"hospital_fee"`
	HospitalTurns         int   `json:"hospital_turns" yaml:"hospital_turns"`
	BreakdownEmotionFloor int   `json:"breakdown_emotion_floor" yaml:"breakdown_emotion_floor"`
	BreakdownTurns        int   `json:"breakdown_turns" yaml:"breakdown_turns"`
	BlackoutStress        int   `json:"blackout_stress" yaml:"blackout_stress"`
	BlackoutEmotion       int   `json:"blackout_emotion" yaml:"blackout_emotion"`
	BlackoutFee           int64 `json:"blackout_fee" yaml:"blackout_fee"`
	BlackoutTurns         int   `json:"blackout_turns" yaml:"blackout_turns"`

	// Year review bands, in paise of net worth.
	ThrivingNetWorth int64 `json:"thriving_net_worth" yaml:"thriving_net_worth"`
	StableNetWorth   int64 `json:"stable_net_worth" yaml:"stable_net_worth"`

	Sectors []SectorSpec `json:"sectors" yaml:"sectors"`
}

func DefaultTuning() Tuning {
	return Tuning{
		TransactionWindow: 500,

		JunkDefaultChanceBps: 1_000,

		MinCreditScore:     650,
		BaseCreditScore:    600,
		CreditScorePerStep: Rupees(5_000),
		LoanProcessingDays: 1,
		PenaltyRateBps:     500,
		PaidOffKarmaBonus:  5,
		SeizureStress:      25,
		SeizureReputation:  20,
		MissedStress:       10,

		CreditLineRateBps:   3_600,
		CreditLimitPerPoint: Rupees(1_000),
		CreditLimitMinScore: 500,

		DailyStress:           1,
		OverworkStress:        2,
		RestlessDaysThreshold: 14,
		ConsistencyBonus:      20,
		RestStressRelief:      15,
		RestEnergy:            20,
		HospitalStress:        40,
		HospitalEnergy:        70,
		HospitalFee:           Rupees(50_000),
		HospitalTurns:         7,
		BreakdownEmotionFloor: 30,
		BreakdownTurns:        3,
		BlackoutStress:        90,
		BlackoutEmotion:       10,
		BlackoutFee:           Rupees(10_000),
		BlackoutTurns:         1,

		ThrivingNetWorth: Rupees(2_500_000),
		StableNetWorth:   Rupees(500_000),

		Sectors: DefaultSectors(),
	}
}

func (t Tuning) Validate() error {
	if t.TransactionWindow <= 0 {
		return fmt.Errorf("transaction_window must be > 0")
	}
	if t.JunkDefaultChanceBps < 0 || t.JunkDefaultChanceBps > BpsScale {
		return fmt.Errorf("junk_default_chance_bps must be within 0..%d", BpsScale)
	}
	if t.CreditScorePerStep <= 0 {
		return fmt.Errorf("credit_score_step_paise must be > 0")
	}
	if t.PenaltyRateBps < 0 {
		return fmt.Errorf("penalty_rate_bps must be >= 0")
	}
	if t.HospitalTurns <= 0 || t.BreakdownTurns <= 0 || t.BlackoutTurns <= 0 {
		return fmt.Errorf("crisis turn counts must be > 0")
	}
	seen := make(map[string]struct{}, len(t.Sectors))
	for _, s := range t.Sectors {
		if s.ID == "" {
			return fmt.Errorf("sector id is required")
		}
		if _, dup := seen[s.ID]; dup {
			return fmt.Errorf("duplicate sector %q", s.ID)
		}
		seen[s.ID] = struct{}{}
		if s.BaseRatePerCity < 0 {
			return fmt.Errorf("sector %q: base_rate_per_city must be >= 0", s.ID)
		}
		for _, m := range s.Modifiers {
			if !m.Category.valid() {
				return fmt.Errorf("sector %q: modifier %q has unknown category %q", s.ID, m.ID, m.Category)
			}
		}
	}
	return nil
}
