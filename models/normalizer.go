package models

import (
	"fmt"
	"strings"

	"github.com/KajanthanDigitWeb/summery-Dash/utils"
)

// minUploadFields is the positional width an uploaded row needs; the account name column is optional.
const minUploadFields = 7

// NormalizeSheetRows converts spreadsheet rows keyed by header. Header names are case-sensitive.
// Under ResolveByMapping, rows whose account code is unmapped are dropped.
func NormalizeSheetRows(rows []RawRow, resolver AccountResolver) []SalesRecord {
	records := make([]SalesRecord, 0, len(rows))
	for index, row := range rows {
		itemID := firstValue(row, "itemId", "itemid", "sku")
		accountCode := strings.TrimSpace(row["account"])

		name, ok := resolver.Resolve(accountCode, itemID)
		if !ok {
			continue
		}

		id := strings.TrimSpace(row["order_id"])
		if id == "" {
			id = fmt.Sprintf("sheet-%d", index)
		}

		records = append(records, SalesRecord{
			ID:          id,
			AccountID:   accountCode,
			ItemID:      itemID,
			ListingID:   strings.TrimSpace(row["sku"]),
			Amount:      utils.ParseAmountOrZero(row["amount"]),
			Quantity:    utils.ParseQuantityOrZero(row["quantity"]),
			Date:        normalizeDate(row["order_date"]),
			AccountName: name,
		})
	}
	return records
}

// NormalizeUploadRows converts positional rows of an uploaded file. Row 0 is the header.
// Columns: id, accountId, itemId, listingId, amount, quantity, date, accountName.
func NormalizeUploadRows(rows [][]string, resolver AccountResolver) []SalesRecord {
	if len(rows) <= 1 {
		return []SalesRecord{}
	}
	records := make([]SalesRecord, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		values := make([]string, len(rows[i]))
		for j, v := range rows[i] {
			values[j] = utils.StripQuotes(v)
		}
		if len(values) < minUploadFields {
			continue
		}

		id := values[0]
		if id == "" {
			id = fmt.Sprintf("row-%d", i)
		}
		accountID := values[1]
		itemID := values[2]

		records = append(records, SalesRecord{
			ID:          id,
			AccountID:   accountID,
			ItemID:      itemID,
			ListingID:   values[3],
			Amount:      utils.ParseAmountOrZero(values[4]),
			Quantity:    utils.ParseQuantityOrZero(values[5]),
			Date:        normalizeDate(values[6]),
			AccountName: uploadAccountName(values, accountID, itemID, resolver),
		})
	}
	return records
}

func uploadAccountName(values []string, accountID, itemID string, resolver AccountResolver) string {
	if len(values) > 7 && values[7] != "" {
		return values[7]
	}
	if name, ok := resolver.Resolve(accountID, itemID); ok && name != "" {
		return name
	}
	if accountID != "" {
		return accountID
	}
	return resolver.unknownLabel()
}

func firstValue(row RawRow, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(row[k]); v != "" {
			return v
		}
	}
	return ""
}

// normalizeDate reduces parsable dates to YYYY-MM-DD and keeps anything else verbatim.
func normalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if t, ok := ParseRecordDate(s); ok {
		return FormatDate(t)
	}
	return s
}
