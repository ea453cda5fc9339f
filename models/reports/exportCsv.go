package reports

import (
	"io"

	"github.com/gocarina/gocsv"
)

// WriteSummariesCSV writes one row per account with a header row.
func WriteSummariesCSV(w io.Writer, summaries []AccountSummary) error {
	if summaries == nil {
		summaries = []AccountSummary{}
	}
	return gocsv.Marshal(summaries, w)
}
