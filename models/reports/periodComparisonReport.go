package reports

import (
	"time"

	"github.com/KajanthanDigitWeb/summery-Dash/models"
)

type Totals struct {
	Amount   float64 `json:"amount"`
	Quantity int     `json:"quantity"`
	Count    int     `json:"count"`
}

// PeriodComparison is the current window of one account against the window before it
// and against the same window one year earlier in the prior-year source.
type PeriodComparison struct {
	Account        string             `json:"account"`
	Granularity    models.Granularity `json:"granularity"`
	CurrentRange   models.DateRange   `json:"currentRange"`
	PreviousRange  models.DateRange   `json:"previousRange"`
	PriorYearRange models.DateRange   `json:"priorYearRange"`

	Current   Totals `json:"current"`
	Previous  Totals `json:"previous"`
	PriorYear Totals `json:"priorYear"`

	AmountChangeVsPrevious    float64 `json:"amountChangeVsPrevious"`
	QuantityChangeVsPrevious  float64 `json:"quantityChangeVsPrevious"`
	AmountChangeVsPriorYear   float64 `json:"amountChangeVsPriorYear"`
	QuantityChangeVsPriorYear float64 `json:"quantityChangeVsPriorYear"`

	HasPriorYearSource bool `json:"hasPriorYearSource"`
}

func windowDays(g models.Granularity) int {
	switch g {
	case models.GranularityWeek:
		return 7
	case models.GranularityMonth:
		return 31
	default:
		return 1
	}
}

func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ComparisonWindow ends the day before today and spans 1, 7 or 31 days.
func ComparisonWindow(g models.Granularity, today time.Time) models.DateRange {
	end := calendarDay(today).AddDate(0, 0, -1)
	start := end.AddDate(0, 0, -(windowDays(g) - 1))
	return models.NewDateRange(start, end)
}

// PreviousWindow is the window of equal length immediately before w.
func PreviousWindow(w models.DateRange) models.DateRange {
	start, end, ok := w.Bounds()
	if !ok {
		return w
	}
	days := int(end.Sub(start).Hours()/24) + 1
	prevEnd := start.AddDate(0, 0, -1)
	return models.NewDateRange(prevEnd.AddDate(0, 0, -(days-1)), prevEnd)
}

// PriorYearWindow shifts both ends back one calendar year. Feb 29 lands on Mar 1.
func PriorYearWindow(w models.DateRange) models.DateRange {
	start, end, ok := w.Bounds()
	if !ok {
		return w
	}
	return models.NewDateRange(start.AddDate(-1, 0, 0), end.AddDate(-1, 0, 0))
}

// SumWindow totals the records of account dated within window.
func SumWindow(records []models.SalesRecord, account string, window models.DateRange, labels AccountLabels) Totals {
	var t Totals
	start, end, ok := window.Bounds()
	if !ok {
		return t
	}
	for _, r := range records {
		if labels.Label(r.AccountName) != account {
			continue
		}
		d, ok := models.ParseRecordDate(r.Date)
		if !ok || d.Before(start) || d.After(end) {
			continue
		}
		t.Amount += r.Amount
		t.Quantity += r.Quantity
		t.Count++
	}
	return t
}

// CalculatePeriodComparison never fails; empty windows report zero totals.
// Prior-year totals only ever come from the prior-year source.
func CalculatePeriodComparison(current, priorYear []models.SalesRecord, account string, g models.Granularity, today time.Time, labels AccountLabels) PeriodComparison {
	account = labels.Label(account)
	currentRange := ComparisonWindow(g, today)
	previousRange := PreviousWindow(currentRange)
	priorYearRange := PriorYearWindow(currentRange)

	c := PeriodComparison{
		Account:            account,
		Granularity:        g,
		CurrentRange:       currentRange,
		PreviousRange:      previousRange,
		PriorYearRange:     priorYearRange,
		Current:            SumWindow(current, account, currentRange, labels),
		Previous:           SumWindow(current, account, previousRange, labels),
		PriorYear:          SumWindow(priorYear, account, priorYearRange, labels),
		HasPriorYearSource: len(priorYear) > 0,
	}
	c.AmountChangeVsPrevious = PercentChange(c.Current.Amount, c.Previous.Amount)
	c.QuantityChangeVsPrevious = PercentChange(float64(c.Current.Quantity), float64(c.Previous.Quantity))
	c.AmountChangeVsPriorYear = PercentChange(c.Current.Amount, c.PriorYear.Amount)
	c.QuantityChangeVsPriorYear = PercentChange(float64(c.Current.Quantity), float64(c.PriorYear.Quantity))
	return c
}
