package reports

import (
	"fmt"
	"io"

	"github.com/KajanthanDigitWeb/summery-Dash/models"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet = "Accounts"
	trendSheet   = "Trend"
)

// ExcelReport is the workbook content of one dashboard export.
type ExcelReport struct {
	Range     models.DateRange
	Summaries []AccountSummary
	Overview  *PeriodOverview
}

func roundMoney(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

// BuildExcel renders the report. The caller owns closing the file.
func BuildExcel(report ExcelReport) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		f.Close()
		return nil, err
	}

	if err := setRow(f, summarySheet, 1, []interface{}{"Range", report.Range.Start, report.Range.End}); err != nil {
		f.Close()
		return nil, err
	}
	header := []interface{}{"AccountName", "AccountId", "TotalAmount", "TotalQuantity", "ItemCount", "SalesChange%"}
	if err := setRow(f, summarySheet, 3, header); err != nil {
		f.Close()
		return nil, err
	}
	for i, s := range report.Summaries {
		row := []interface{}{s.AccountName, s.AccountID, roundMoney(s.TotalAmount), s.TotalQuantity, s.ItemCount, roundMoney(s.SalesChange)}
		if err := setRow(f, summarySheet, i+4, row); err != nil {
			f.Close()
			return nil, err
		}
	}

	if report.Overview != nil {
		if _, err := f.NewSheet(trendSheet); err != nil {
			f.Close()
			return nil, err
		}
		title := fmt.Sprintf("%s (%s)", report.Overview.Account, report.Overview.Granularity)
		if err := setRow(f, trendSheet, 1, []interface{}{title}); err != nil {
			f.Close()
			return nil, err
		}
		if err := setRow(f, trendSheet, 2, []interface{}{"Period", "Amount", "Quantity"}); err != nil {
			f.Close()
			return nil, err
		}
		for i, p := range report.Overview.Trend {
			if err := setRow(f, trendSheet, i+3, []interface{}{p.Period, roundMoney(p.Amount), p.Quantity}); err != nil {
				f.Close()
				return nil, err
			}
		}
	}
	return f, nil
}

func WriteExcel(w io.Writer, report ExcelReport) error {
	f, err := BuildExcel(report)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

func SaveExcel(path string, report ExcelReport) error {
	f, err := BuildExcel(report)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.SaveAs(path)
}
