package reports

import (
	"sort"

	"github.com/KajanthanDigitWeb/summery-Dash/models"
	"github.com/samber/lo"
)

// previousWindowDays is how far before the range start the change reference reaches.
const previousWindowDays = 30

type AccountSummary struct {
	AccountID     string  `json:"accountId" csv:"account_id"`
	AccountName   string  `json:"accountName" csv:"account_name"`
	TotalAmount   float64 `json:"totalAmount" csv:"total_amount"`
	TotalQuantity int     `json:"totalQuantity" csv:"total_quantity"`
	SalesChange   float64 `json:"salesChange" csv:"sales_change_pct"`
	ItemCount     int     `json:"itemCount" csv:"item_count"`
}

// AccountOrdering puts Preferred names first in declared order, the rest alphabetically,
// and OtherLabel last.
type AccountOrdering struct {
	Preferred  []string
	OtherLabel string
}

func (o AccountOrdering) Sort(names []string) []string {
	other := o.OtherLabel
	if other == "" {
		other = DefaultOtherAccountsLabel
	}
	rank := make(map[string]int, len(o.Preferred))
	for i, name := range o.Preferred {
		if _, ok := rank[name]; !ok {
			rank[name] = i
		}
	}

	out := append([]string(nil), names...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if (a == other) != (b == other) {
			return b == other
		}
		ra, okA := rank[a]
		rb, okB := rank[b]
		switch {
		case okA && okB:
			return ra < rb
		case okA != okB:
			return okA
		default:
			return a < b
		}
	})
	return out
}

// BuildAccountSummaries totals each account over rng and compares the amount with the
// 30 days before rng.Start. Accounts without in-range rows report zeros.
func BuildAccountSummaries(records []models.SalesRecord, rng models.DateRange, ordering AccountOrdering, labels AccountLabels) []AccountSummary {
	byAccount := lo.GroupBy(records, func(r models.SalesRecord) string {
		return labels.Label(r.AccountName)
	})

	start, end, rangeOK := rng.Bounds()
	prevStart := start.AddDate(0, 0, -previousWindowDays)

	summaries := make([]AccountSummary, 0, len(byAccount))
	for _, name := range ordering.Sort(lo.Keys(byAccount)) {
		rows := byAccount[name]
		s := AccountSummary{AccountName: name}
		if len(rows) > 0 {
			s.AccountID = rows[0].AccountID
		}
		var previousAmount float64
		for _, r := range rows {
			if !rangeOK {
				break
			}
			d, ok := models.ParseRecordDate(r.Date)
			if !ok {
				continue
			}
			if !d.Before(start) && !d.After(end) {
				s.TotalAmount += r.Amount
				s.TotalQuantity += r.Quantity
				s.ItemCount++
			} else if !d.Before(prevStart) && d.Before(start) {
				previousAmount += r.Amount
			}
		}
		s.SalesChange = PercentChange(s.TotalAmount, previousAmount)
		summaries = append(summaries, s)
	}
	return summaries
}

func AccountNames(summaries []AccountSummary) []string {
	return lo.Map(summaries, func(s AccountSummary, _ int) string {
		return s.AccountName
	})
}
