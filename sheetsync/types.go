package sheetsync

import (
	"time"

	"github.com/KajanthanDigitWeb/summery-Dash/dashboard"
)

// SheetsConfig addresses one spreadsheet range.
type SheetsConfig struct {
	SpreadsheetId string `json:"spreadsheetId" validate:"required"`
	Range         string `json:"range" validate:"required"`
	APIKey        string `json:"-"`
}

func (c SheetsConfig) IsZero() bool {
	return c.SpreadsheetId == ""
}

// SheetsLoadRequest is a current-year sheet plus an optional prior-year sheet.
type SheetsLoadRequest struct {
	Current   SheetsConfig
	PriorYear *SheetsConfig
}

type ConnectRequest struct {
	SpreadsheetId          string `json:"spreadsheetId" validate:"required"`
	Range                  string `json:"range"`
	APIKey                 string `json:"apiKey"`
	PriorYearSpreadsheetId string `json:"priorYearSpreadsheetId"`
	PriorYearRange         string `json:"priorYearRange"`
}

type ConnectionResponse struct {
	SpreadsheetId          string `json:"spreadsheetId,omitempty"`
	Range                  string `json:"range,omitempty"`
	PriorYearSpreadsheetId string `json:"priorYearSpreadsheetId,omitempty"`
	PriorYearRange         string `json:"priorYearRange,omitempty"`
	HasAPIKey              bool   `json:"hasApiKey"`
}

type StatusResponse struct {
	Source            dashboard.SourceStatus `json:"source"`
	Connection        ConnectionResponse     `json:"connection"`
	LastLoadAt        *string                `json:"lastLoadAt"`
	LastSuccessLoadAt *string                `json:"lastSuccessLoadAt"`
}

type LoadRunResponse struct {
	ID               uint    `json:"id"`
	Source           string  `json:"source"`
	Status           string  `json:"status"`
	TriggeredBy      string  `json:"triggeredBy"`
	RowsRead         int     `json:"rowsRead"`
	RecordsLoaded    int     `json:"recordsLoaded"`
	PriorYearRecords int     `json:"priorYearRecords"`
	ErrorMessage     string  `json:"errorMessage,omitempty"`
	StartedAt        *string `json:"startedAt"`
	FinishedAt       *string `json:"finishedAt"`
	DurationMs       int64   `json:"durationMs"`
}

type UploadResponse struct {
	Records int                    `json:"records"`
	Source  dashboard.SourceStatus `json:"source"`
}

// RefreshPayload is the Pub/Sub message body that asks for a sheet reload.
type RefreshPayload struct {
	CorrelationId string    `json:"correlation_id"`
	RequestedAt   time.Time `json:"requested_at"`
}

type PubSubPushEnvelope struct {
	Message struct {
		Data []byte `json:"data"`
		ID   string `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// LoadOutcome summarizes one finished load for callers and the run history.
type LoadOutcome struct {
	RowsRead         int
	RecordsLoaded    int
	PriorYearRecords int
	ArchiveObject    string
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
