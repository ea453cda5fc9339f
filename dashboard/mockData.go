package dashboard

import "github.com/KajanthanDigitWeb/summery-Dash/models"

// MockSalesData is the sample set shown until a real source loads.
func MockSalesData() []models.SalesRecord {
	return []models.SalesRecord{
		{ID: "1", AccountID: "ACC001", ItemID: "ITM001", ListingID: "LST001", Amount: 299.99, Quantity: 2, Date: "2024-12-15", AccountName: "TechStore Pro"},
		{ID: "2", AccountID: "ACC001", ItemID: "ITM002", ListingID: "LST002", Amount: 149.50, Quantity: 1, Date: "2024-12-15", AccountName: "TechStore Pro"},
		{ID: "3", AccountID: "ACC002", ItemID: "ITM003", ListingID: "LST003", Amount: 89.99, Quantity: 3, Date: "2024-12-14", AccountName: "Fashion Hub"},
		{ID: "4", AccountID: "ACC002", ItemID: "ITM004", ListingID: "LST004", Amount: 199.99, Quantity: 1, Date: "2024-12-14", AccountName: "Fashion Hub"},
		{ID: "5", AccountID: "ACC003", ItemID: "ITM005", ListingID: "LST005", Amount: 449.99, Quantity: 1, Date: "2024-12-13", AccountName: "Home Essentials"},
		{ID: "6", AccountID: "ACC001", ItemID: "ITM006", ListingID: "LST006", Amount: 79.99, Quantity: 4, Date: "2024-12-12", AccountName: "TechStore Pro"},
		{ID: "7", AccountID: "ACC003", ItemID: "ITM007", ListingID: "LST007", Amount: 129.99, Quantity: 2, Date: "2024-12-11", AccountName: "Home Essentials"},
		{ID: "8", AccountID: "ACC002", ItemID: "ITM008", ListingID: "LST008", Amount: 249.99, Quantity: 1, Date: "2024-12-10", AccountName: "Fashion Hub"},
		{ID: "9", AccountID: "ACC001", ItemID: "ITM009", ListingID: "LST009", Amount: 399.99, Quantity: 1, Date: "2024-11-20", AccountName: "TechStore Pro"},
		{ID: "10", AccountID: "ACC002", ItemID: "ITM010", ListingID: "LST010", Amount: 99.99, Quantity: 5, Date: "2024-11-18", AccountName: "Fashion Hub"},
	}
}
