package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/KajanthanDigitWeb/summery-Dash/config"
	"github.com/KajanthanDigitWeb/summery-Dash/models"
	"github.com/KajanthanDigitWeb/summery-Dash/models/reports"
	"github.com/KajanthanDigitWeb/summery-Dash/sheetsync"
	"github.com/samber/lo"
)

type options struct {
	file        string
	sheetID     string
	sheetRange  string
	resolution  string
	mapping     string
	prefixRules string
	start       string
	end         string
	today       string
	days        int
	account     string
	mode        string
	out         string
}

func main() {
	var opts options
	flag.StringVar(&opts.file, "file", "", "CSV or XLSX export to summarize.")
	flag.StringVar(&opts.sheetID, "sheet-id", "", "Read a Google Sheet instead of -file (needs SHEETS_API_KEY).")
	flag.StringVar(&opts.sheetRange, "range", "Sheet1!A:Z", "Range to read with -sheet-id.")
	flag.StringVar(&opts.resolution, "resolution", "prefix", "Account resolution for files: prefix or mapping.")
	flag.StringVar(&opts.mapping, "mapping", os.Getenv("ACCOUNT_MAPPING"), "code=Name pairs; defaults to the built-in mapping.")
	flag.StringVar(&opts.prefixRules, "prefix-rules", os.Getenv("ACCOUNT_PREFIX_RULES"), "PFX=Name pairs for prefix resolution.")
	flag.StringVar(&opts.start, "start", "", "Range start (YYYY-MM-DD). Defaults to -days before today.")
	flag.StringVar(&opts.end, "end", "", "Range end (YYYY-MM-DD). Defaults to today.")
	flag.StringVar(&opts.today, "today", "", "Override today (YYYY-MM-DD).")
	flag.IntVar(&opts.days, "days", 60, "Default range length in days.")
	flag.StringVar(&opts.account, "account", "", "Account for the trend sheet. Defaults to the first account.")
	flag.StringVar(&opts.mode, "mode", "day", "Trend granularity: day, week or month.")
	flag.StringVar(&opts.out, "out", "", "Optional: write an xlsx report to this path.")
	flag.Parse()

	if err := run(context.Background(), opts, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadRecords(ctx context.Context, opts options) ([]models.SalesRecord, error) {
	unknown := models.DefaultUnknownAccountLabel
	mapping := models.NewMappingResolver(models.ParseAccountMapping(opts.mapping), unknown)

	if opts.sheetID != "" {
		client := sheetsync.NewSheetsClient(0)
		grid, err := client.FetchGrid(ctx, sheetsync.SheetsConfig{
			SpreadsheetId: opts.sheetID,
			Range:         opts.sheetRange,
			APIKey:        strings.TrimSpace(os.Getenv("SHEETS_API_KEY")),
		})
		if err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", opts.sheetID, err)
		}
		return models.NormalizeSheetRows(sheetsync.RowsFromGrid(grid), mapping), nil
	}

	if opts.file == "" {
		return nil, fmt.Errorf("one of -file or -sheet-id is required")
	}
	kind, ok := models.ParseResolutionKind(opts.resolution)
	if !ok {
		return nil, fmt.Errorf("unknown resolution %q", opts.resolution)
	}
	resolver := models.NewUploadResolver(kind, models.ParsePrefixRules(opts.prefixRules), mapping)

	f, err := os.Open(opts.file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rows, err := sheetsync.ParseUpload(opts.file, f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", opts.file, err)
	}
	return models.NormalizeUploadRows(rows, resolver), nil
}

func reportRange(opts options) (models.DateRange, error) {
	today := time.Now().UTC()
	if opts.today != "" {
		t, ok := models.ParseRecordDate(opts.today)
		if !ok {
			return models.DateRange{}, fmt.Errorf("invalid -today %q", opts.today)
		}
		today = t
	}
	rng := models.LastNDays(today, opts.days)
	if opts.start != "" {
		rng.Start = opts.start
	}
	if opts.end != "" {
		rng.End = opts.end
	}
	return models.ParseDateRange(rng.Start, rng.End)
}

func run(ctx context.Context, opts options, stdout io.Writer) error {
	logger := config.GetLogger()

	records, err := loadRecords(ctx, opts)
	if err != nil {
		return err
	}
	rng, err := reportRange(opts)
	if err != nil {
		return err
	}
	mode, err := models.ParseGranularity(opts.mode)
	if err != nil {
		return err
	}

	labels := reports.DefaultAccountLabels()
	ordering := reports.AccountOrdering{
		Preferred:  models.NewMappingResolver(models.ParseAccountMapping(opts.mapping), "").PreferredOrder(),
		OtherLabel: labels.OtherLabel,
	}
	summaries := reports.BuildAccountSummaries(records, rng, ordering, labels)
	if err := reports.WriteSummariesCSV(stdout, summaries); err != nil {
		return err
	}

	if opts.out == "" {
		return nil
	}
	account := opts.account
	if account == "" && len(summaries) > 0 {
		account = summaries[0].AccountName
	}
	if account != "" && !lo.Contains(reports.AccountNames(summaries), account) {
		return fmt.Errorf("unknown account %q", account)
	}
	overview := reports.BuildPeriodOverview(reports.GroupSalesByAccountAndPeriod(records, mode, labels), account, mode, labels)
	if err := reports.SaveExcel(opts.out, reports.ExcelReport{Range: rng, Summaries: summaries, Overview: &overview}); err != nil {
		return err
	}
	logger.WithField("path", opts.out).Info("report written")
	return nil
}
