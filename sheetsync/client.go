package sheetsync

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/KajanthanDigitWeb/summery-Dash/config"
	"github.com/KajanthanDigitWeb/summery-Dash/utils"
	"github.com/cenkalti/backoff/v4"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// GridFetcher returns the raw cell grid of one range, header row first.
type GridFetcher interface {
	FetchGrid(ctx context.Context, cfg SheetsConfig) ([][]string, error)
}

type SheetsClient struct {
	cacheTTL   time.Duration
	maxElapsed time.Duration
}

func NewSheetsClient(cacheTTL time.Duration) *SheetsClient {
	return &SheetsClient{
		cacheTTL:   cacheTTL,
		maxElapsed: 30 * time.Second,
	}
}

func gridCacheKey(cfg SheetsConfig) string {
	return "sheets_grid:" + cfg.SpreadsheetId + ":" + cfg.Range
}

// FetchGrid reads cfg through the Sheets v4 values API. Short-lived copies are kept in
// redis when it is connected.
func (c *SheetsClient) FetchGrid(ctx context.Context, cfg SheetsConfig) ([][]string, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, utils.ErrMissingAPIKey
	}
	if strings.TrimSpace(cfg.SpreadsheetId) == "" {
		return nil, utils.ErrSourceNotSet
	}

	logger := config.GetLogger()
	key := gridCacheKey(cfg)
	if c.cacheTTL > 0 && config.GetRedisDB() != nil {
		var cached [][]string
		found, err := config.GetRedisObject(ctx, key, &cached)
		if err != nil {
			config.LogError(logger, "sheetsync", "FetchGrid", "Error reading grid cache", key, err)
		} else if found {
			return cached, nil
		}
	}

	svc, err := sheets.NewService(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, err
	}

	var values [][]interface{}
	operation := func() error {
		resp, err := svc.Spreadsheets.Values.Get(cfg.SpreadsheetId, cfg.Range).Context(ctx).Do()
		if err != nil {
			if !isRetryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		values = resp.Values
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = c.maxElapsed
	notify := func(err error, wait time.Duration) {
		logger.WithField("spreadsheet_id", cfg.SpreadsheetId).WithField("retry_in", wait.String()).Warnf("sheets fetch failed: %v", err)
	}
	if err := backoff.RetryNotify(operation, backoff.WithContext(b, ctx), notify); err != nil {
		return nil, fmt.Errorf("failed to fetch data: %w", err)
	}

	grid := stringGrid(values)
	if c.cacheTTL > 0 && config.GetRedisDB() != nil {
		if err := config.SetRedisObject(ctx, key, grid, c.cacheTTL); err != nil {
			config.LogError(logger, "sheetsync", "FetchGrid", "Error writing grid cache", key, err)
		}
	}
	return grid, nil
}

// InvalidateCache drops the cached grid so the next fetch goes to the API.
func (c *SheetsClient) InvalidateCache(ctx context.Context, cfg SheetsConfig) {
	if config.GetRedisDB() == nil {
		return
	}
	if err := config.RemoveRedisKey(ctx, gridCacheKey(cfg)); err != nil {
		config.LogError(config.GetLogger(), "sheetsync", "InvalidateCache", "Error removing grid cache", cfg.SpreadsheetId, err)
	}
}

func isRetryable(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func stringGrid(values [][]interface{}) [][]string {
	grid := make([][]string, 0, len(values))
	for _, row := range values {
		cells := make([]string, len(row))
		for i, v := range row {
			if v == nil {
				continue
			}
			cells[i] = fmt.Sprint(v)
		}
		grid = append(grid, cells)
	}
	return grid
}
