package sheetsync

import "testing"

func TestRowsFromGrid(t *testing.T) {
	grid := [][]string{
		{"order_id", "account", "amount"},
		{"1", "led_sone", "10"},
		{"2"},
	}
	rows := RowsFromGrid(grid)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0]["account"] != "led_sone" || rows[0]["amount"] != "10" {
		t.Fatalf("unexpected first row %v", rows[0])
	}
	if v, ok := rows[1]["amount"]; !ok || v != "" {
		t.Fatalf("missing cells should be empty strings, got %v", rows[1])
	}
	if _, ok := rows[0]["Account"]; ok {
		t.Fatalf("header names are case-sensitive")
	}
}

func TestRowsFromGrid_Empty(t *testing.T) {
	if rows := RowsFromGrid(nil); rows == nil || len(rows) != 0 {
		t.Fatalf("expected empty rows, got %v", rows)
	}
	if rows := RowsFromGrid([][]string{{"order_id"}}); len(rows) != 0 {
		t.Fatalf("header-only grid should yield no rows, got %v", rows)
	}
}
