package sheetsync

import (
	"context"
	"errors"
	"time"

	"github.com/KajanthanDigitWeb/summery-Dash/config"
	"github.com/KajanthanDigitWeb/summery-Dash/models"
	"gorm.io/gorm"
)

const connectionRowID = 1

// Store persists the saved spreadsheet connection and the load history.
// Every method is a no-op when no database is configured.
type Store struct {
	db func() *gorm.DB
}

func NewStore() *Store {
	return &Store{db: config.GetDB}
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	if s == nil || s.db == nil {
		return nil
	}
	db := s.db()
	if db == nil {
		return nil
	}
	return db.WithContext(ctx)
}

// GetConnection returns nil, nil when nothing is saved.
func (s *Store) GetConnection(ctx context.Context) (*models.DataSourceConnection, error) {
	db := s.conn(ctx)
	if db == nil {
		return nil, nil
	}
	var conn models.DataSourceConnection
	if err := db.Where("id = ?", connectionRowID).Take(&conn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &conn, nil
}

func (s *Store) SaveConnection(ctx context.Context, req SheetsLoadRequest, status string) error {
	db := s.conn(ctx)
	if db == nil {
		return nil
	}
	conn := models.DataSourceConnection{
		ID:            connectionRowID,
		SpreadsheetId: req.Current.SpreadsheetId,
		Range:         req.Current.Range,
		Status:        status,
	}
	if req.PriorYear != nil {
		conn.PriorYearSpreadsheetId = req.PriorYear.SpreadsheetId
		conn.PriorYearRange = req.PriorYear.Range
	}
	return db.Save(&conn).Error
}

func (s *Store) UpdateConnectionStatus(ctx context.Context, status string, succeeded bool) error {
	db := s.conn(ctx)
	if db == nil {
		return nil
	}
	now := time.Now()
	update := map[string]interface{}{
		"status":       status,
		"last_load_at": now,
	}
	if succeeded {
		update["last_success_load_at"] = now
	}
	return db.Model(&models.DataSourceConnection{}).Where("id = ?", connectionRowID).Updates(update).Error
}

func (s *Store) RecordLoadRun(ctx context.Context, run *models.DataSourceLoadRun) error {
	db := s.conn(ctx)
	if db == nil {
		return nil
	}
	return db.Create(run).Error
}

func (s *Store) ListLoadRuns(ctx context.Context, limit int) ([]models.DataSourceLoadRun, error) {
	db := s.conn(ctx)
	if db == nil {
		return []models.DataSourceLoadRun{}, nil
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var runs []models.DataSourceLoadRun
	if err := db.Order("id DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}
