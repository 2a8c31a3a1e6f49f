package sim

import "fmt"

// Clock is the simulated calendar. Day runs 1..DaysPerMonth, Month runs
// 1..MonthsPerYear, Year starts at 1. TotalDays counts every day since game
// start and is the time base for due dates and transaction stamps.
type Clock struct {
	Day                uint32 `json:"day"`
	Month              uint32 `json:"month"`
	Year               uint32 `json:"year"`
	TotalDays          uint32 `json:"total_days"`
	DaysSinceLastEvent uint32 `json:"days_since_last_event"`
}

type Rollover struct {
	Month bool
	Year  bool
}

func NewClock() Clock {
	return Clock{Day: 1, Month: 1, Year: 1, TotalDays: 1}
}

func (c *Clock) tick() Rollover {
	var r Rollover
	c.TotalDays++
	c.DaysSinceLastEvent++
	c.Day++
	if c.Day > DaysPerMonth {
		c.Day = 1
		c.Month++
		r.Month = true
	}
	if c.Month > MonthsPerYear {
		c.Month = 1
		c.Year++
		r.Year = true
	}
	return r
}

func (c *Clock) markEvent() {
	c.DaysSinceLastEvent = 0
}

func (c Clock) valid() error {
	if c.Day < 1 || c.Day > DaysPerMonth {
		return fmt.Errorf("clock day %d out of range", c.Day)
	}
	if c.Month < 1 || c.Month > MonthsPerYear {
		return fmt.Errorf("clock month %d out of range", c.Month)
	}
	if c.Year < 1 {
		return fmt.Errorf("clock year must be >= 1")
	}
	return nil
}

func (c Clock) String() string {
	return fmt.Sprintf("Y%d M%02d D%02d", c.Year, c.Month, c.Day)
}
