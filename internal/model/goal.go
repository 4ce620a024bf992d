package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SavingMode is the cadence at which a goal accrues expected contributions.
type SavingMode string

const (
	// SavingModeNone disables the savings schedule; the goal is inactive.
	SavingModeNone SavingMode = "NONE"
	// SavingModeDaily accrues the daily amount once per whole elapsed day.
	SavingModeDaily SavingMode = "DAILY"
	// SavingModeWeekly accrues the weekly amount once per whole elapsed week.
	SavingModeWeekly SavingMode = "WEEKLY"
	// SavingModeMonthly accrues once per whole elapsed calendar month.
	SavingModeMonthly SavingMode = "MONTHLY"
	// SavingModeYearly accrues once per whole elapsed calendar year.
	SavingModeYearly SavingMode = "YEARLY"
)

// Valid reports whether m is one of the defined saving modes.
func (m SavingMode) Valid() bool {
	switch m {
	case SavingModeNone, SavingModeDaily, SavingModeWeekly, SavingModeMonthly, SavingModeYearly:
		return true
	}
	return false
}

// FinancialGoal is an owner's savings target with an optional contribution
// schedule and a ring-fenced smart-saver sub-balance.
type FinancialGoal struct {
	CreatedAt         time.Time
	Deadline          time.Time
	ID                string
	OwnerID           string
	Name              string
	SavingMode        SavingMode
	TargetAmount      decimal.Decimal
	DailyAmount       decimal.Decimal
	WeeklyAmount      decimal.Decimal
	MonthlyAmount     decimal.Decimal
	YearlyAmount      decimal.Decimal
	SmartSaverBalance decimal.Decimal
}

// Active reports whether the goal has a contribution schedule and therefore
// constrains withdrawals.
func (g *FinancialGoal) Active() bool {
	return g.SavingMode != SavingModeNone && g.SavingMode != ""
}

// ExpectedSavings returns the cumulative contribution the schedule calls
// for between the goal's creation and now. Calendar modes compare calendar
// fields rather than approximating with fixed-length periods. A clock
// behind CreatedAt yields zero.
func (g *FinancialGoal) ExpectedSavings(now time.Time) decimal.Decimal {
	created := g.CreatedAt.UTC()
	today := now.UTC()

	switch g.SavingMode {
	case SavingModeDaily:
		return g.DailyAmount.Mul(decimal.NewFromInt(wholeDaysBetween(created, today)))
	case SavingModeWeekly:
		return g.WeeklyAmount.Mul(decimal.NewFromInt(wholeDaysBetween(created, today) / 7))
	case SavingModeMonthly:
		months := int64(today.Year()-created.Year())*12 + int64(today.Month()-created.Month())
		if months < 0 {
			months = 0
		}
		return g.MonthlyAmount.Mul(decimal.NewFromInt(months))
	case SavingModeYearly:
		years := int64(today.Year() - created.Year())
		if years < 0 {
			years = 0
		}
		return g.YearlyAmount.Mul(decimal.NewFromInt(years))
	default:
		return decimal.Zero
	}
}

// wholeDaysBetween counts whole calendar days from a to b, never negative.
func wholeDaysBetween(a, b time.Time) int64 {
	start := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	days := int64(end.Sub(start) / (24 * time.Hour))
	if days < 0 {
		return 0
	}
	return days
}
