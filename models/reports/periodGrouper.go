package reports

import (
	"sort"
	"strings"
	"time"

	"github.com/KajanthanDigitWeb/summery-Dash/models"
	"github.com/samber/lo"
)

const DefaultOtherAccountsLabel = "Other accounts"

type PeriodBucket struct {
	Amount   float64 `json:"amount"`
	Quantity int     `json:"quantity"`
	Count    int     `json:"count"`
}

func (b PeriodBucket) add(r models.SalesRecord) PeriodBucket {
	b.Amount += r.Amount
	b.Quantity += r.Quantity
	b.Count++
	return b
}

// GroupedSales maps account name -> period key -> bucket.
type GroupedSales map[string]map[string]PeriodBucket

// AccountLabels controls how unresolved account names are bucketed.
type AccountLabels struct {
	OtherLabel   string
	UnknownLabel string
}

func DefaultAccountLabels() AccountLabels {
	return AccountLabels{OtherLabel: DefaultOtherAccountsLabel, UnknownLabel: models.DefaultUnknownAccountLabel}
}

// Label coalesces empty and unknown account names to the other label.
func (l AccountLabels) Label(name string) string {
	other := l.OtherLabel
	if other == "" {
		other = DefaultOtherAccountsLabel
	}
	unknown := l.UnknownLabel
	if unknown == "" {
		unknown = models.DefaultUnknownAccountLabel
	}
	name = strings.TrimSpace(name)
	if name == "" || name == unknown {
		return other
	}
	return name
}

// PeriodKey is the bucket key of t: the date for day, the preceding Sunday for week, YYYY-MM for month.
func PeriodKey(t time.Time, g models.Granularity) string {
	switch g {
	case models.GranularityWeek:
		return models.FormatDate(t.AddDate(0, 0, -int(t.Weekday())))
	case models.GranularityMonth:
		return t.Format("2006-01")
	default:
		return models.FormatDate(t)
	}
}

// GroupSalesByAccountAndPeriod aggregates the full record set for one granularity.
// Records with an unparsable date are skipped.
func GroupSalesByAccountAndPeriod(records []models.SalesRecord, g models.Granularity, labels AccountLabels) GroupedSales {
	grouped := make(GroupedSales)
	for _, r := range records {
		t, ok := models.ParseRecordDate(r.Date)
		if !ok {
			continue
		}
		account := labels.Label(r.AccountName)
		key := PeriodKey(t, g)
		periods, ok := grouped[account]
		if !ok {
			periods = make(map[string]PeriodBucket)
			grouped[account] = periods
		}
		periods[key] = periods[key].add(r)
	}
	return grouped
}

func GroupAllGranularities(records []models.SalesRecord, labels AccountLabels) map[models.Granularity]GroupedSales {
	out := make(map[models.Granularity]GroupedSales, len(models.Granularities))
	for _, g := range models.Granularities {
		out[g] = GroupSalesByAccountAndPeriod(records, g, labels)
	}
	return out
}

// SortedPeriodKeys returns the period keys of one account. Keys sort lexically in date order.
func SortedPeriodKeys(periods map[string]PeriodBucket, descending bool) []string {
	keys := lo.Keys(periods)
	if descending {
		sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	} else {
		sort.Strings(keys)
	}
	return keys
}

// Total sums every bucket of every account.
func (g GroupedSales) Total() PeriodBucket {
	var total PeriodBucket
	for _, periods := range g {
		for _, b := range periods {
			total.Amount += b.Amount
			total.Quantity += b.Quantity
			total.Count += b.Count
		}
	}
	return total
}
