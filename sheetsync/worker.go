package sheetsync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/KajanthanDigitWeb/summery-Dash/config"
	"github.com/KajanthanDigitWeb/summery-Dash/dashboard"
	"github.com/KajanthanDigitWeb/summery-Dash/models"
	"github.com/KajanthanDigitWeb/summery-Dash/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type ArchiveFunc func(ctx context.Context, objectName string, data []byte, contentType string) error

type SyncerOptions struct {
	Fetcher        GridFetcher
	Store          *Store
	SheetResolver  models.AccountResolver
	UploadResolver models.AccountResolver
	// Archive is called for every accepted upload when set.
	Archive  ArchiveFunc
	APIKey   string
	Defaults SheetsLoadRequest
	Logger   *logrus.Logger
}

// Syncer runs loads against a dashboard session. Results are applied through
// load tickets, so a slow load never overwrites a newer source choice.
type Syncer struct {
	session *dashboard.Session
	opts    SyncerOptions
	tracer  trace.Tracer

	mu     sync.Mutex
	active SheetsLoadRequest
}

func NewSyncer(session *dashboard.Session, opts SyncerOptions) *Syncer {
	if opts.Logger == nil {
		opts.Logger = config.GetLogger()
	}
	if opts.Store == nil {
		opts.Store = NewStore()
	}
	return &Syncer{
		session: session,
		opts:    opts,
		tracer:  otel.Tracer("github.com/KajanthanDigitWeb/summery-Dash/sheetsync"),
		active:  opts.Defaults,
	}
}

func (s *Syncer) Session() *dashboard.Session {
	return s.session
}

func (s *Syncer) Store() *Store {
	return s.opts.Store
}

// ActiveRequest is the spreadsheet the next refresh will read.
func (s *Syncer) ActiveRequest() SheetsLoadRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *Syncer) setActive(req SheetsLoadRequest) {
	s.mu.Lock()
	s.active = req
	s.mu.Unlock()
}

func (s *Syncer) withAPIKey(cfg SheetsConfig) SheetsConfig {
	if strings.TrimSpace(cfg.APIKey) == "" {
		cfg.APIKey = s.opts.APIKey
	}
	if strings.TrimSpace(cfg.Range) == "" {
		cfg.Range = "Sheet1!A:Z"
	}
	return cfg
}

// RequestFromConnect fills defaults for a connect call.
func (s *Syncer) RequestFromConnect(req ConnectRequest) SheetsLoadRequest {
	out := SheetsLoadRequest{
		Current: s.withAPIKey(SheetsConfig{
			SpreadsheetId: strings.TrimSpace(req.SpreadsheetId),
			Range:         strings.TrimSpace(req.Range),
			APIKey:        strings.TrimSpace(req.APIKey),
		}),
	}
	if id := strings.TrimSpace(req.PriorYearSpreadsheetId); id != "" {
		rng := strings.TrimSpace(req.PriorYearRange)
		if rng == "" {
			rng = out.Current.Range
		}
		prior := s.withAPIKey(SheetsConfig{SpreadsheetId: id, Range: rng, APIKey: out.Current.APIKey})
		out.PriorYear = &prior
	}
	return out
}

// Connect saves req as the active spreadsheet and loads it.
func (s *Syncer) Connect(ctx context.Context, req SheetsLoadRequest, trigger string) (LoadOutcome, error) {
	s.setActive(req)
	if err := s.opts.Store.SaveConnection(ctx, req, string(models.ConnectionDisconnected)); err != nil {
		config.LogError(s.opts.Logger, "sheetsync", "Connect", "Error saving connection", req.Current.SpreadsheetId, err)
	}
	return s.LoadSheets(ctx, req, trigger)
}

// Refresh reloads the active spreadsheet.
func (s *Syncer) Refresh(ctx context.Context, trigger string) (LoadOutcome, error) {
	req := s.ActiveRequest()
	if req.Current.IsZero() {
		return LoadOutcome{}, utils.ErrSourceNotSet
	}
	if c, ok := s.opts.Fetcher.(*SheetsClient); ok {
		c.InvalidateCache(ctx, req.Current)
		if req.PriorYear != nil {
			c.InvalidateCache(ctx, *req.PriorYear)
		}
	}
	return s.LoadSheets(ctx, req, trigger)
}

// Disconnect drops any in-flight load and returns the dashboard to the sample data.
func (s *Syncer) Disconnect(ctx context.Context) {
	s.setActive(SheetsLoadRequest{})
	s.session.UseMockData()
	if err := s.opts.Store.UpdateConnectionStatus(ctx, string(models.ConnectionDisconnected), false); err != nil {
		config.LogError(s.opts.Logger, "sheetsync", "Disconnect", "Error updating connection", nil, err)
	}
}

// RestoreConnection makes the saved spreadsheet the active one when no default is configured.
func (s *Syncer) RestoreConnection(ctx context.Context) {
	if !s.ActiveRequest().Current.IsZero() {
		return
	}
	conn, err := s.opts.Store.GetConnection(ctx)
	if err != nil {
		config.LogError(s.opts.Logger, "sheetsync", "RestoreConnection", "Error reading saved connection", nil, err)
		return
	}
	if conn == nil || conn.SpreadsheetId == "" {
		return
	}
	s.setActive(s.RequestFromConnect(ConnectRequest{
		SpreadsheetId:          conn.SpreadsheetId,
		Range:                  conn.Range,
		PriorYearSpreadsheetId: conn.PriorYearSpreadsheetId,
		PriorYearRange:         conn.PriorYearRange,
	}))
}

// LoadSheets fetches the current and prior-year grids concurrently. A prior-year
// failure only drops the prior-year data.
func (s *Syncer) LoadSheets(ctx context.Context, req SheetsLoadRequest, trigger string) (LoadOutcome, error) {
	ctx, span := s.tracer.Start(ctx, "sheetsync.LoadSheets", trace.WithAttributes(
		attribute.String("spreadsheet_id", req.Current.SpreadsheetId),
		attribute.Bool("prior_year", req.PriorYear != nil),
		attribute.String("trigger", trigger),
	))
	defer span.End()

	ticket := s.session.BeginLoad(models.SourceSheets)
	started := time.Now()

	var (
		current, prior       [][]string
		currentErr, priorErr error
	)
	var wg conc.WaitGroup
	wg.Go(func() {
		current, currentErr = s.opts.Fetcher.FetchGrid(ctx, s.withAPIKey(req.Current))
	})
	if req.PriorYear != nil {
		wg.Go(func() {
			prior, priorErr = s.opts.Fetcher.FetchGrid(ctx, s.withAPIKey(*req.PriorYear))
		})
	}
	wg.Wait()

	if currentErr != nil {
		span.RecordError(currentErr)
		span.SetStatus(codes.Error, currentErr.Error())
		s.fail(ctx, ticket, currentErr, trigger, started, LoadOutcome{})
		return LoadOutcome{}, currentErr
	}
	if priorErr != nil {
		s.opts.Logger.WithFields(logrus.Fields{
			"spreadsheet_id": req.PriorYear.SpreadsheetId,
			"error":          priorErr.Error(),
		}).Warn("prior-year sheet unavailable, continuing without it")
	}

	records := models.NormalizeSheetRows(RowsFromGrid(current), s.opts.SheetResolver)
	var priorRecords []models.SalesRecord
	if priorErr == nil && prior != nil {
		priorRecords = models.NormalizeSheetRows(RowsFromGrid(prior), s.opts.SheetResolver)
	}
	outcome := LoadOutcome{
		RowsRead:         max(len(current)-1, 0),
		RecordsLoaded:    len(records),
		PriorYearRecords: len(priorRecords),
	}
	span.SetAttributes(attribute.Int("records", outcome.RecordsLoaded))

	if err := s.complete(ctx, ticket, dashboard.LoadResult{Records: records, PriorYear: priorRecords, RowsRead: outcome.RowsRead}, trigger, started, outcome); err != nil {
		return outcome, err
	}
	return outcome, nil
}

// LoadUpload parses an uploaded file and makes it the active source.
func (s *Syncer) LoadUpload(ctx context.Context, name string, data []byte, trigger string) (LoadOutcome, error) {
	ctx, span := s.tracer.Start(ctx, "sheetsync.LoadUpload", trace.WithAttributes(
		attribute.String("file", name),
		attribute.Int("bytes", len(data)),
	))
	defer span.End()

	ticket := s.session.BeginLoad(models.SourceUpload)
	started := time.Now()

	rows, err := ParseUpload(name, bytes.NewReader(data))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.fail(ctx, ticket, err, trigger, started, LoadOutcome{})
		return LoadOutcome{}, err
	}

	outcome := LoadOutcome{RowsRead: max(len(rows)-1, 0)}
	if s.opts.Archive != nil {
		objectName := utils.UploadObjectName("uploads/"+time.Now().UTC().Format("2006/01/02"), name, uuid.NewString())
		if err := s.opts.Archive(ctx, objectName, data, uploadContentType(name)); err != nil {
			config.LogError(s.opts.Logger, "sheetsync", "LoadUpload", "Error archiving upload", objectName, err)
		} else {
			outcome.ArchiveObject = objectName
		}
	}

	records := models.NormalizeUploadRows(rows, s.opts.UploadResolver)
	outcome.RecordsLoaded = len(records)
	span.SetAttributes(attribute.Int("records", outcome.RecordsLoaded))

	if err := s.complete(ctx, ticket, dashboard.LoadResult{Records: records, RowsRead: outcome.RowsRead}, trigger, started, outcome); err != nil {
		return outcome, err
	}
	return outcome, nil
}

func (s *Syncer) complete(ctx context.Context, ticket dashboard.LoadTicket, result dashboard.LoadResult, trigger string, started time.Time, outcome LoadOutcome) error {
	err := s.session.CompleteLoad(ticket, result)
	status := models.LoadRunStatusSuccess
	if errors.Is(err, utils.ErrStaleLoad) {
		status = models.LoadRunStatusStale
	}
	s.recordRun(ctx, ticket, status, trigger, started, outcome, err)
	if ticket.Kind == models.SourceSheets && err == nil {
		if storeErr := s.opts.Store.UpdateConnectionStatus(ctx, string(models.ConnectionConnected), true); storeErr != nil {
			config.LogError(s.opts.Logger, "sheetsync", "complete", "Error updating connection", nil, storeErr)
		}
	}
	return err
}

func (s *Syncer) fail(ctx context.Context, ticket dashboard.LoadTicket, loadErr error, trigger string, started time.Time, outcome LoadOutcome) {
	status := models.LoadRunStatusFailed
	if err := s.session.FailLoad(ticket, loadErr); errors.Is(err, utils.ErrStaleLoad) {
		status = models.LoadRunStatusStale
	}
	s.recordRun(ctx, ticket, status, trigger, started, outcome, loadErr)
	if ticket.Kind == models.SourceSheets && status == models.LoadRunStatusFailed {
		if storeErr := s.opts.Store.UpdateConnectionStatus(ctx, string(models.ConnectionError), false); storeErr != nil {
			config.LogError(s.opts.Logger, "sheetsync", "fail", "Error updating connection", nil, storeErr)
		}
	}
}

func (s *Syncer) recordRun(ctx context.Context, ticket dashboard.LoadTicket, status, trigger string, started time.Time, outcome LoadOutcome, runErr error) {
	finished := time.Now()
	cid, _ := utils.GetCorrelationIdFromContext(ctx)
	run := models.DataSourceLoadRun{
		Source:           string(ticket.Kind),
		Generation:       ticket.Generation,
		Status:           status,
		TriggeredBy:      trigger,
		CorrelationId:    cid,
		RowsRead:         outcome.RowsRead,
		RecordsLoaded:    outcome.RecordsLoaded,
		PriorYearRecords: outcome.PriorYearRecords,
		ArchiveObject:    outcome.ArchiveObject,
		StartedAt:        &started,
		FinishedAt:       &finished,
		DurationMs:       finished.Sub(started).Milliseconds(),
	}
	if runErr != nil {
		run.ErrorMessage = runErr.Error()
	}

	s.opts.Logger.WithFields(logrus.Fields{
		"source":         run.Source,
		"generation":     run.Generation,
		"status":         run.Status,
		"trigger":        run.TriggeredBy,
		"records":        run.RecordsLoaded,
		"duration_ms":    run.DurationMs,
		"correlation_id": cid,
	}).Info("load run finished")

	if err := s.opts.Store.RecordLoadRun(ctx, &run); err != nil {
		config.LogError(s.opts.Logger, "sheetsync", "recordRun", "Error saving load run", fmt.Sprintf("%s#%d", run.Source, run.Generation), err)
	}
}
