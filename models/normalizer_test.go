package models

import (
	"testing"
)

func sheetRows() []RawRow {
	return []RawRow{
		{"order_id": "A-1", "account": "led_sone", "itemId": "LED-100", "sku": "SKU-1", "amount": "1,234.50", "quantity": "2", "order_date": "2024-12-01"},
		{"order_id": "", "account": "re6865", "itemid": "RED-7", "amount": "abc", "quantity": "x", "order_date": "2024-12-02 10:15:00"},
		{"order_id": "A-3", "account": "not_mapped", "sku": "MISC-1", "amount": "10", "quantity": "1", "order_date": "2024-12-03"},
	}
}

func TestNormalizeSheetRows_MappingDropsUnmapped(t *testing.T) {
	rows := sheetRows()
	records := NormalizeSheetRows(rows, NewMappingResolver(nil, ""))
	if len(records) >= len(rows) {
		t.Fatalf("expected unmapped rows to be dropped, got %d of %d", len(records), len(rows))
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	first := records[0]
	if first.ID != "A-1" || first.AccountName != "LEDSone(Renuha)" || first.ItemID != "LED-100" || first.ListingID != "SKU-1" {
		t.Fatalf("unexpected first record %+v", first)
	}
	if first.Amount != 1234.5 || first.Quantity != 2 {
		t.Fatalf("expected amount 1234.5 qty 2, got %v %d", first.Amount, first.Quantity)
	}

	second := records[1]
	if second.ID != "sheet-1" {
		t.Fatalf("expected synthetic id sheet-1, got %q", second.ID)
	}
	if second.Amount != 0 || second.Quantity != 0 {
		t.Fatalf("expected unparsable numbers to be zero, got %v %d", second.Amount, second.Quantity)
	}
	if second.Date != "2024-12-02" {
		t.Fatalf("expected datetime reduced to date, got %q", second.Date)
	}
	if second.ItemID != "RED-7" || second.AccountName != "Redro Led" {
		t.Fatalf("unexpected second record %+v", second)
	}
}

func TestNormalizeSheetRows_PrefixKeepsUnknown(t *testing.T) {
	rows := sheetRows()
	resolver := NewPrefixResolver([]PrefixRule{{Prefix: "led", Name: "LEDSone(Renuha)"}, {Prefix: "RED", Name: "Redro Led"}}, "")
	records := NormalizeSheetRows(rows, resolver)
	if len(records) != len(rows) {
		t.Fatalf("expected every row kept under prefix resolution, got %d", len(records))
	}
	want := []string{"LEDSone(Renuha)", "Redro Led", "Unknown Account"}
	for i, r := range records {
		if r.AccountName != want[i] {
			t.Fatalf("record %d: expected %q, got %q", i, want[i], r.AccountName)
		}
	}
}

func TestNormalizeSheetRows_EmptyInput(t *testing.T) {
	records := NormalizeSheetRows(nil, NewMappingResolver(nil, ""))
	if records == nil || len(records) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", records)
	}
}

func TestNormalizeUploadRows(t *testing.T) {
	rows := [][]string{
		{"id", "accountId", "itemId", "listingId", "amount", "quantity", "date", "accountName"},
		{`"U-1"`, "shop1", "TS-1", "L1", `"99.99"`, "3", "2024-12-15", "TechStore Pro"},
		{"", "shop2", "FH-2", "L2", "12", "1", "2024-12-14"},
		{"short", "row", "only"},
		{"U-4", "", "ZZ-9", "L4", "-5", "2.9", "not a date"},
	}
	resolver := NewPrefixResolver([]PrefixRule{{Prefix: "FH", Name: "Fashion Hub"}}, "")
	records := NormalizeUploadRows(rows, resolver)
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].ID != "U-1" || records[0].Amount != 99.99 || records[0].AccountName != "TechStore Pro" {
		t.Fatalf("unexpected first record %+v", records[0])
	}
	if records[1].ID != "row-2" || records[1].AccountName != "Fashion Hub" {
		t.Fatalf("unexpected second record %+v", records[1])
	}
	if records[2].Amount != 0 || records[2].Quantity != 2 || records[2].Date != "not a date" {
		t.Fatalf("unexpected third record %+v", records[2])
	}
	if records[2].AccountName != "Unknown Account" {
		t.Fatalf("expected unknown label, got %q", records[2].AccountName)
	}
}

func TestNormalizeUploadRows_MappingFallsBackToAccountID(t *testing.T) {
	rows := [][]string{
		{"header"},
		{"1", "led_sone", "X", "L", "1", "1", "2024-12-01"},
		{"2", "somewhere", "X", "L", "1", "1", "2024-12-01"},
		{"3", "", "X", "L", "1", "1", "2024-12-01"},
	}
	records := NormalizeUploadRows(rows, NewMappingResolver(nil, "Nobody"))
	want := []string{"LEDSone(Renuha)", "somewhere", "Nobody"}
	if len(records) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(records))
	}
	for i, r := range records {
		if r.AccountName != want[i] {
			t.Fatalf("record %d: expected %q, got %q", i, want[i], r.AccountName)
		}
	}
}

func TestParseAccountMappingAndPrefixRules(t *testing.T) {
	mapping := ParseAccountMapping("a=Alpha, b = Beta ,broken,=x,c=")
	if len(mapping) != 2 || mapping[1].Code != "b" || mapping[1].Name != "Beta" {
		t.Fatalf("unexpected mapping %+v", mapping)
	}
	rules := ParsePrefixRules("TS=TechStore Pro,FH=Fashion Hub")
	if len(rules) != 2 || rules[0].Prefix != "TS" {
		t.Fatalf("unexpected rules %+v", rules)
	}
	order := NewMappingResolver(nil, "").PreferredOrder()
	if len(order) != 9 || order[0] != "LEDSone(Renuha)" || order[8] != "Redro Led" {
		t.Fatalf("unexpected preferred order %v", order)
	}
}

func TestParseRecordDate(t *testing.T) {
	cases := []struct {
		in  string
		ok  bool
		out string
	}{
		{"2024-12-01", true, "2024-12-01"},
		{"2024-12-01T23:59:59Z", true, "2024-12-01"},
		{"2024-12-01T08:00:00", true, "2024-12-01"},
		{"12/01/2024", false, ""},
		{"", false, ""},
		{"2024-13-01", false, ""},
	}
	for _, tc := range cases {
		got, ok := ParseRecordDate(tc.in)
		if ok != tc.ok {
			t.Fatalf("ParseRecordDate(%q) ok=%v, expected %v", tc.in, ok, tc.ok)
		}
		if ok && FormatDate(got) != tc.out {
			t.Fatalf("ParseRecordDate(%q) expected %s, got %s", tc.in, tc.out, FormatDate(got))
		}
	}
}

func TestDateRange(t *testing.T) {
	r, err := ParseDateRange("2024-12-01", "2024-12-31")
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if !r.Contains("2024-12-01") || !r.Contains("2024-12-31") || r.Contains("2025-01-01") || r.Contains("junk") {
		t.Fatalf("unexpected Contains results for %+v", r)
	}
	if r.Days() != 31 {
		t.Fatalf("expected 31 days, got %d", r.Days())
	}
	if _, err := ParseDateRange("2024-12-31", "2024-12-01"); err == nil {
		t.Fatalf("expected error for reversed range")
	}
}

func TestGranularity(t *testing.T) {
	g, err := ParseGranularity(" Week ")
	if err != nil || g != GranularityWeek {
		t.Fatalf("expected week, got %q %v", g, err)
	}
	if _, err := ParseGranularity("year"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
	if GranularityIndex(GranularityMonth) != 2 || GranularityAt(1) != GranularityWeek {
		t.Fatalf("unexpected mode indexing")
	}
}

func TestNewUploadResolver_NoPrefixRulesKeepsAccountIds(t *testing.T) {
	mapping := NewMappingResolver(nil, "Unknown Account")
	resolver := NewUploadResolver(ResolveByPrefix, ParsePrefixRules(""), mapping)
	if resolver.Kind != ResolveByMapping {
		t.Fatalf("expected mapping resolver without prefix rules, got %s", resolver.Kind)
	}
	rows := [][]string{
		{"id", "accountId", "itemId", "listingId", "amount", "quantity", "date"},
		{"1", "shopA", "X-1", "L1", "10", "1", "2024-12-01"},
		{"2", "shopB", "Y-1", "L2", "20", "1", "2024-12-02"},
		{"3", "led_sone", "Z-1", "L3", "30", "1", "2024-12-03"},
	}
	records := NormalizeUploadRows(rows, resolver)
	want := []string{"shopA", "shopB", "LEDSone(Renuha)"}
	if len(records) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(records))
	}
	for i, r := range records {
		if r.AccountName != want[i] {
			t.Fatalf("record %d: expected %q, got %q", i, want[i], r.AccountName)
		}
	}

	withRules := NewUploadResolver(ResolveByPrefix, ParsePrefixRules("X=Shop X"), mapping)
	if withRules.Kind != ResolveByPrefix || withRules.UnknownLabel != "Unknown Account" {
		t.Fatalf("expected prefix resolver when rules exist, got %+v", withRules)
	}
}
