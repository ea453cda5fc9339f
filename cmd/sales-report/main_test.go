package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

const sampleCSV = `id,accountId,itemId,listingId,amount,quantity,date
1,ACC1,TS-1,L1,100,2,2024-12-15
2,ACC1,TS-2,L2,50,1,2024-12-14
3,ACC2,FH-1,L3,20,1,2024-12-15
4,ACC1,TS-1,L1,75,1,2024-11-20
`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sales.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0o600); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	return path
}

func TestRun_PrintsSummaries(t *testing.T) {
	var out bytes.Buffer
	opts := options{
		file:        writeSample(t),
		resolution:  "prefix",
		prefixRules: "TS=TechStore Pro,FH=Fashion Hub",
		start:       "2024-12-01",
		end:         "2024-12-16",
		mode:        "day",
	}
	if err := run(context.Background(), opts, &out); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 accounts, got %q", out.String())
	}
	if !strings.HasPrefix(lines[0], "account_id,account_name,total_amount") {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if !strings.Contains(out.String(), "ACC1,TechStore Pro,150,3,100,2") {
		t.Fatalf("expected TechStore Pro totals with +100%% change, got %q", out.String())
	}
}

func TestRun_WritesWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	opts := options{
		file:        writeSample(t),
		resolution:  "prefix",
		prefixRules: "TS=TechStore Pro",
		today:       "2024-12-16",
		days:        30,
		mode:        "week",
		out:         path,
	}
	if err := run(context.Background(), opts, &bytes.Buffer{}); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open report: %v", err)
	}
	defer f.Close()
	if idx, _ := f.GetSheetIndex("Trend"); idx < 0 {
		t.Fatalf("expected a Trend sheet, got %v", f.GetSheetList())
	}
}

func TestRun_Errors(t *testing.T) {
	if err := run(context.Background(), options{mode: "day"}, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected an error without input")
	}
	opts := options{file: writeSample(t), resolution: "guess", mode: "day"}
	if err := run(context.Background(), opts, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected an error for unknown resolution")
	}
	opts = options{file: writeSample(t), resolution: "prefix", mode: "year", days: 60}
	if err := run(context.Background(), opts, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected an error for unknown mode")
	}
}
