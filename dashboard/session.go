package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/KajanthanDigitWeb/summery-Dash/config"
	"github.com/KajanthanDigitWeb/summery-Dash/models"
	"github.com/KajanthanDigitWeb/summery-Dash/models/reports"
	"github.com/KajanthanDigitWeb/summery-Dash/rotation"
	"github.com/KajanthanDigitWeb/summery-Dash/utils"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

type Options struct {
	Labels           reports.AccountLabels
	Ordering         reports.AccountOrdering
	RotationInterval time.Duration
	DefaultRangeDays int
	Clock            func() time.Time
	Logger           *logrus.Logger
	TickerFactory    rotation.TickerFactory
}

// LoadTicket identifies one asynchronous load. Only the ticket of the latest
// BeginLoad may apply its result.
type LoadTicket struct {
	Kind       models.SourceKind
	Generation uint64
}

type LoadResult struct {
	Records   []models.SalesRecord
	PriorYear []models.SalesRecord
	RowsRead  int
}

type SourceStatus struct {
	Kind                 models.SourceKind       `json:"kind"`
	Pending              models.SourceKind       `json:"pending,omitempty"`
	Status               models.ConnectionStatus `json:"status"`
	Generation           uint64                  `json:"generation"`
	RecordCount          int                     `json:"recordCount"`
	PriorYearRecordCount int                     `json:"priorYearRecordCount"`
	LastError            string                  `json:"lastError,omitempty"`
	LastLoadedAt         *time.Time              `json:"lastLoadedAt,omitempty"`
}

// View is everything the rendering side needs for one refresh.
type View struct {
	Source          SourceStatus                                `json:"source"`
	DateRange       models.DateRange                            `json:"dateRange"`
	Groups          map[models.Granularity]reports.GroupedSales `json:"groups"`
	Rotation        rotation.State                              `json:"rotation"`
	SelectedAccount string                                      `json:"selectedAccount"`
	SelectedMode    models.Granularity                          `json:"selectedMode"`
	Accounts        []reports.AccountSummary                    `json:"accounts"`
	Comparison      reports.PeriodComparison                    `json:"comparison"`
	Overview        reports.PeriodOverview                      `json:"overview"`
}

// Session is the dashboard state: active source, its records, the custom range and rotation.
type Session struct {
	mu   sync.RWMutex
	opts Options

	source       models.SourceKind
	pending      models.SourceKind
	records      []models.SalesRecord
	priorYear    []models.SalesRecord
	generation   uint64
	dateRange    models.DateRange
	status       models.ConnectionStatus
	lastError    string
	lastLoadedAt *time.Time

	rotation *rotation.Controller
}

func NewSession(opts Options) *Session {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = config.GetLogger()
	}
	if opts.Labels == (reports.AccountLabels{}) {
		opts.Labels = reports.DefaultAccountLabels()
	}
	if opts.Ordering.OtherLabel == "" {
		opts.Ordering.OtherLabel = opts.Labels.OtherLabel
	}
	if opts.DefaultRangeDays <= 0 {
		opts.DefaultRangeDays = 60
	}

	rotationOpts := []rotation.Option{rotation.WithInterval(opts.RotationInterval)}
	if opts.TickerFactory != nil {
		rotationOpts = append(rotationOpts, rotation.WithTicker(opts.TickerFactory))
	}

	s := &Session{
		opts:      opts,
		source:    models.SourceMock,
		records:   MockSalesData(),
		dateRange: models.LastNDays(opts.Clock(), opts.DefaultRangeDays),
		status:    models.ConnectionDisconnected,
	}
	s.rotation = rotation.New(s.accountCount(s.records), rotationOpts...)
	return s
}

func (s *Session) accountCount(records []models.SalesRecord) int {
	names := lo.Uniq(lo.Map(records, func(r models.SalesRecord, _ int) string {
		return s.opts.Labels.Label(r.AccountName)
	}))
	return len(names)
}

// BeginLoad invalidates every earlier ticket.
func (s *Session) BeginLoad(kind models.SourceKind) LoadTicket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.pending = kind
	return LoadTicket{Kind: kind, Generation: s.generation}
}

func (s *Session) isCurrentLocked(ticket LoadTicket) bool {
	return ticket.Generation == s.generation
}

// CompleteLoad replaces the record set wholesale. A superseded ticket gets utils.ErrStaleLoad
// and changes nothing.
func (s *Session) CompleteLoad(ticket LoadTicket, result LoadResult) error {
	s.mu.Lock()
	if !s.isCurrentLocked(ticket) {
		s.mu.Unlock()
		return utils.ErrStaleLoad
	}
	now := s.opts.Clock()
	s.source = ticket.Kind
	s.pending = ""
	s.records = append([]models.SalesRecord(nil), result.Records...)
	s.priorYear = append([]models.SalesRecord(nil), result.PriorYear...)
	s.lastError = ""
	s.lastLoadedAt = &now
	if ticket.Kind == models.SourceSheets {
		s.status = models.ConnectionConnected
	} else {
		s.status = models.ConnectionDisconnected
	}
	count := s.accountCount(s.records)
	s.rotation.SetAccountCount(count)
	s.mu.Unlock()

	s.opts.Logger.WithFields(logrus.Fields{
		"source":     ticket.Kind,
		"generation": ticket.Generation,
		"records":    len(result.Records),
		"prior_year": len(result.PriorYear),
		"rows_read":  result.RowsRead,
		"accounts":   count,
	}).Info("data source loaded")
	return nil
}

// FailLoad records the failure and keeps the last good records.
func (s *Session) FailLoad(ticket LoadTicket, loadErr error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isCurrentLocked(ticket) {
		return utils.ErrStaleLoad
	}
	s.pending = ""
	if loadErr != nil {
		s.lastError = loadErr.Error()
	}
	if ticket.Kind == models.SourceSheets {
		s.status = models.ConnectionError
	}
	s.opts.Logger.WithFields(logrus.Fields{
		"source":     ticket.Kind,
		"generation": ticket.Generation,
		"error":      s.lastError,
	}).Warn("data source load failed")
	return nil
}

// UseMockData drops any in-flight load and restores the sample set.
func (s *Session) UseMockData() {
	s.mu.Lock()
	s.generation++
	s.source = models.SourceMock
	s.pending = ""
	s.records = MockSalesData()
	s.priorYear = nil
	s.status = models.ConnectionDisconnected
	s.lastError = ""
	s.lastLoadedAt = nil
	s.rotation.SetAccountCount(s.accountCount(s.records))
	s.mu.Unlock()
}

func (s *Session) SetDateRange(r models.DateRange) (models.DateRange, error) {
	if err := utils.ValidateStruct(r); err != nil {
		return models.DateRange{}, fmt.Errorf("%w: %v", utils.ErrInvalidDateRange, err)
	}
	parsed, err := models.ParseDateRange(r.Start, r.End)
	if err != nil {
		return models.DateRange{}, fmt.Errorf("%w: %v", utils.ErrInvalidDateRange, err)
	}
	s.mu.Lock()
	s.dateRange = parsed
	s.mu.Unlock()
	return parsed, nil
}

func (s *Session) DateRange() models.DateRange {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dateRange
}

func (s *Session) Status() SourceStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statusLocked()
}

func (s *Session) statusLocked() SourceStatus {
	return SourceStatus{
		Kind:                 s.source,
		Pending:              s.pending,
		Status:               s.status,
		Generation:           s.generation,
		RecordCount:          len(s.records),
		PriorYearRecordCount: len(s.priorYear),
		LastError:            s.lastError,
		LastLoadedAt:         s.lastLoadedAt,
	}
}

// Records returns a copy of the active record set.
func (s *Session) Records() []models.SalesRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.SalesRecord(nil), s.records...)
}

func (s *Session) Advance() rotation.State { return s.rotation.Advance() }
func (s *Session) Next() rotation.State    { return s.rotation.Next() }
func (s *Session) Prev() rotation.State    { return s.rotation.Prev() }

func (s *Session) SelectAccount(i int) (rotation.State, error) {
	return s.rotation.SelectAccount(i)
}

func (s *Session) SelectMode(g models.Granularity) (rotation.State, error) {
	return s.rotation.SelectMode(g)
}

func (s *Session) SetAutoRotate(on bool) rotation.State {
	return s.rotation.SetAutoRotate(on)
}

func (s *Session) RotationState() rotation.State {
	return s.rotation.State()
}

// View recomputes every aggregate from the current records. Nothing is cached between calls.
func (s *Session) View(ctx context.Context) View {
	started := time.Now()

	s.mu.RLock()
	records := s.records
	priorYear := s.priorYear
	rng := s.dateRange
	status := s.statusLocked()
	s.mu.RUnlock()

	labels := s.opts.Labels
	accounts := reports.BuildAccountSummaries(records, rng, s.opts.Ordering, labels)
	state := s.rotation.State()

	selected := labels.OtherLabel
	if state.AccountIndex < len(accounts) {
		selected = accounts[state.AccountIndex].AccountName
	} else if len(accounts) > 0 {
		selected = accounts[0].AccountName
	}

	groups := reports.GroupAllGranularities(records, labels)
	view := View{
		Source:          status,
		DateRange:       rng,
		Groups:          groups,
		Rotation:        state,
		SelectedAccount: selected,
		SelectedMode:    state.Mode,
		Accounts:        accounts,
		Comparison:      reports.CalculatePeriodComparison(records, priorYear, selected, state.Mode, s.opts.Clock(), labels),
		Overview:        reports.BuildPeriodOverview(groups[state.Mode], selected, state.Mode, labels),
	}

	reports.LogSlowReport(ctx, "dashboard_view", started, map[string]any{
		"records":  len(records),
		"accounts": len(accounts),
		"source":   status.Kind,
	})
	return view
}

// Close stops the rotation timer.
func (s *Session) Close() {
	s.rotation.Close()
}
