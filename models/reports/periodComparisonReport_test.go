package reports

import (
	"math"
	"testing"
	"time"

	"github.com/KajanthanDigitWeb/summery-Dash/models"
)

func TestPercentChange(t *testing.T) {
	cases := []struct {
		current, reference, expected float64
	}{
		{100, 50, 100},
		{50, 100, -50},
		{100, 0, 0},
		{0, 0, 0},
		{-10, 0, 0},
		{5, -1, 0},
		{100, math.NaN(), 0},
		{100, math.Inf(1), 0},
	}
	for _, tc := range cases {
		got := PercentChange(tc.current, tc.reference)
		if got != tc.expected {
			t.Fatalf("PercentChange(%v, %v) expected %v, got %v", tc.current, tc.reference, tc.expected, got)
		}
	}
}

func TestComparisonWindow(t *testing.T) {
	today := time.Date(2024, 12, 16, 15, 30, 0, 0, time.UTC)
	cases := []struct {
		g          models.Granularity
		start, end string
	}{
		{models.GranularityDay, "2024-12-15", "2024-12-15"},
		{models.GranularityWeek, "2024-12-09", "2024-12-15"},
		{models.GranularityMonth, "2024-11-15", "2024-12-15"},
	}
	for _, tc := range cases {
		w := ComparisonWindow(tc.g, today)
		if w.Start != tc.start || w.End != tc.end {
			t.Fatalf("%s window expected %s..%s, got %s..%s", tc.g, tc.start, tc.end, w.Start, w.End)
		}
	}
}

func TestPreviousAndPriorYearWindow(t *testing.T) {
	w := models.DateRange{Start: "2024-12-09", End: "2024-12-15"}
	prev := PreviousWindow(w)
	if prev.Start != "2024-12-02" || prev.End != "2024-12-08" {
		t.Fatalf("unexpected previous window %+v", prev)
	}
	py := PriorYearWindow(w)
	if py.Start != "2023-12-09" || py.End != "2023-12-15" {
		t.Fatalf("unexpected prior-year window %+v", py)
	}
	leap := PriorYearWindow(models.DateRange{Start: "2024-02-29", End: "2024-02-29"})
	if leap.Start != "2023-03-01" {
		t.Fatalf("expected Feb 29 to shift to 2023-03-01, got %s", leap.Start)
	}
}

func TestCalculatePeriodComparison(t *testing.T) {
	today := time.Date(2024, 12, 16, 0, 0, 0, 0, time.UTC)
	current := []models.SalesRecord{
		{Amount: 100, Quantity: 2, Date: "2024-12-15", AccountName: "A"},
		{Amount: 50, Quantity: 1, Date: "2024-12-10", AccountName: "A"},
		{Amount: 75, Quantity: 3, Date: "2024-12-05", AccountName: "A"},
		{Amount: 999, Quantity: 9, Date: "2024-12-15", AccountName: "B"},
		// Historical rows inside the current source never count as prior year.
		{Amount: 500, Quantity: 5, Date: "2023-12-12", AccountName: "A"},
	}
	priorYear := []models.SalesRecord{
		{Amount: 100, Quantity: 6, Date: "2023-12-12", AccountName: "A"},
	}
	c := CalculatePeriodComparison(current, priorYear, "A", models.GranularityWeek, today, DefaultAccountLabels())

	if c.CurrentRange.Start != "2024-12-09" || c.PriorYearRange.Start != "2023-12-09" {
		t.Fatalf("unexpected ranges %+v %+v", c.CurrentRange, c.PriorYearRange)
	}
	if c.Current.Amount != 150 || c.Current.Quantity != 3 || c.Current.Count != 2 {
		t.Fatalf("unexpected current totals %+v", c.Current)
	}
	if c.Previous.Amount != 75 {
		t.Fatalf("unexpected previous totals %+v", c.Previous)
	}
	if c.PriorYear.Amount != 100 || c.PriorYear.Quantity != 6 {
		t.Fatalf("unexpected prior-year totals %+v", c.PriorYear)
	}
	if c.AmountChangeVsPriorYear != 50 || c.QuantityChangeVsPriorYear != -50 {
		t.Fatalf("unexpected prior-year changes %v %v", c.AmountChangeVsPriorYear, c.QuantityChangeVsPriorYear)
	}
	if c.AmountChangeVsPrevious != 100 {
		t.Fatalf("unexpected change vs previous %v", c.AmountChangeVsPrevious)
	}
	if !c.HasPriorYearSource {
		t.Fatalf("expected prior-year source flag")
	}
}

func TestCalculatePeriodComparison_EmptyWindowStillReported(t *testing.T) {
	today := time.Date(2024, 12, 16, 0, 0, 0, 0, time.UTC)
	c := CalculatePeriodComparison(nil, nil, "", models.GranularityMonth, today, DefaultAccountLabels())
	if c.Account != "Other accounts" {
		t.Fatalf("expected empty account coalesced, got %q", c.Account)
	}
	if c.CurrentRange.Start == "" || c.PriorYearRange.End == "" {
		t.Fatalf("windows must be reported even with no data: %+v", c)
	}
	if c.Current != (Totals{}) || c.AmountChangeVsPriorYear != 0 || c.HasPriorYearSource {
		t.Fatalf("expected zero totals, got %+v", c)
	}
}

func TestBuildPeriodOverview(t *testing.T) {
	records := []models.SalesRecord{
		{Amount: 100, Quantity: 1, Date: "2024-11-10", AccountName: "A"},
		{Amount: 150, Quantity: 4, Date: "2024-12-01", AccountName: "A"},
		{Amount: 50, Quantity: 2, Date: "2024-10-01", AccountName: "A"},
	}
	grouped := GroupSalesByAccountAndPeriod(records, models.GranularityMonth, DefaultAccountLabels())
	o := BuildPeriodOverview(grouped, "A", models.GranularityMonth, DefaultAccountLabels())
	if o.CurrentKey != "2024-12" || o.PreviousKey != "2024-11" {
		t.Fatalf("unexpected keys %s %s", o.CurrentKey, o.PreviousKey)
	}
	if o.SalesChange != 50 || o.QuantityChange != 300 {
		t.Fatalf("unexpected changes %v %v", o.SalesChange, o.QuantityChange)
	}
	if len(o.Trend) != 3 || o.Trend[0].Period != "2024-10" || o.Trend[2].Period != "2024-12" {
		t.Fatalf("unexpected trend %+v", o.Trend)
	}

	empty := BuildPeriodOverview(grouped, "Nobody", models.GranularityMonth, DefaultAccountLabels())
	if empty.CurrentKey != "" || empty.Trend == nil || len(empty.Trend) != 0 {
		t.Fatalf("unexpected empty overview %+v", empty)
	}
}
