package sheetsync

import "github.com/KajanthanDigitWeb/summery-Dash/models"

// RowsFromGrid keys every data row by the header row. Missing cells become "".
// An empty grid yields no rows.
func RowsFromGrid(grid [][]string) []models.RawRow {
	if len(grid) == 0 {
		return []models.RawRow{}
	}
	headers := grid[0]
	rows := make([]models.RawRow, 0, len(grid)-1)
	for _, cells := range grid[1:] {
		row := make(models.RawRow, len(headers))
		for i, h := range headers {
			if i < len(cells) {
				row[h] = cells[i]
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows
}
