package reports

import (
	"github.com/KajanthanDigitWeb/summery-Dash/models"
)

type TrendPoint struct {
	Period   string  `json:"period"`
	Amount   float64 `json:"amount"`
	Quantity int     `json:"quantity"`
}

// PeriodOverview is the latest bucket against the one before it, plus the full ascending series.
type PeriodOverview struct {
	Account        string             `json:"account"`
	Granularity    models.Granularity `json:"granularity"`
	CurrentKey     string             `json:"currentKey"`
	PreviousKey    string             `json:"previousKey"`
	Current        PeriodBucket       `json:"current"`
	Previous       PeriodBucket       `json:"previous"`
	SalesChange    float64            `json:"salesChange"`
	QuantityChange float64            `json:"quantityChange"`
	Trend          []TrendPoint       `json:"trend"`
}

func BuildPeriodOverview(grouped GroupedSales, account string, g models.Granularity, labels AccountLabels) PeriodOverview {
	account = labels.Label(account)
	o := PeriodOverview{Account: account, Granularity: g, Trend: []TrendPoint{}}

	periods := grouped[account]
	if len(periods) == 0 {
		return o
	}

	desc := SortedPeriodKeys(periods, true)
	o.CurrentKey = desc[0]
	o.Current = periods[desc[0]]
	if len(desc) > 1 {
		o.PreviousKey = desc[1]
		o.Previous = periods[desc[1]]
	}
	o.SalesChange = PercentChange(o.Current.Amount, o.Previous.Amount)
	o.QuantityChange = PercentChange(float64(o.Current.Quantity), float64(o.Previous.Quantity))

	for i := len(desc) - 1; i >= 0; i-- {
		b := periods[desc[i]]
		o.Trend = append(o.Trend, TrendPoint{Period: desc[i], Amount: b.Amount, Quantity: b.Quantity})
	}
	return o
}
