package models

import (
	"time"

	"github.com/KajanthanDigitWeb/summery-Dash/config"
)

type SourceKind string

const (
	SourceMock   SourceKind = "mock"
	SourceSheets SourceKind = "sheets"
	SourceUpload SourceKind = "upload"
)

type ConnectionStatus string

const (
	ConnectionDisconnected ConnectionStatus = "disconnected"
	ConnectionConnected    ConnectionStatus = "connected"
	ConnectionError        ConnectionStatus = "error"
)

const (
	LoadRunStatusSuccess = "success"
	LoadRunStatusFailed  = "failed"
	LoadRunStatusStale   = "stale"
)

const (
	LoadTriggeredManual  = "manual"
	LoadTriggeredStartup = "startup"
	LoadTriggeredPubSub  = "pubsub"
)

// DataSourceConnection holds the saved spreadsheet settings. The API key is never stored.
type DataSourceConnection struct {
	ID                     uint       `gorm:"primary_key" json:"id"`
	SpreadsheetId          string     `gorm:"size:255;not null" json:"spreadsheet_id"`
	Range                  string     `gorm:"size:255;not null" json:"range"`
	PriorYearSpreadsheetId string     `gorm:"size:255" json:"prior_year_spreadsheet_id"`
	PriorYearRange         string     `gorm:"size:255" json:"prior_year_range"`
	Status                 string     `gorm:"size:20;not null" json:"status"`
	LastLoadAt             *time.Time `json:"last_load_at"`
	LastSuccessLoadAt      *time.Time `json:"last_success_load_at"`
	CreatedAt              time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// DataSourceLoadRun is one completed or failed load of any source.
type DataSourceLoadRun struct {
	ID               uint       `gorm:"primary_key" json:"id"`
	Source           string     `gorm:"index;size:20;not null" json:"source"`
	Generation       uint64     `json:"generation"`
	Status           string     `gorm:"size:20;not null" json:"status"`
	TriggeredBy      string     `gorm:"size:20" json:"triggered_by"`
	CorrelationId    string     `gorm:"size:64" json:"correlation_id"`
	RowsRead         int        `json:"rows_read"`
	RecordsLoaded    int        `json:"records_loaded"`
	PriorYearRecords int        `json:"prior_year_records"`
	ArchiveObject    string     `gorm:"size:512" json:"archive_object"`
	ErrorMessage     string     `gorm:"type:text" json:"error_message"`
	StartedAt        *time.Time `json:"started_at"`
	FinishedAt       *time.Time `json:"finished_at"`
	DurationMs       int64      `json:"duration_ms"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// MigrateTable creates the data source tables. No-op without a database.
func MigrateTable() error {
	db := config.GetDB()
	if db == nil {
		return nil
	}
	return db.AutoMigrate(&DataSourceConnection{}, &DataSourceLoadRun{})
}
