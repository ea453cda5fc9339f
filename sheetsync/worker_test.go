package sheetsync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/KajanthanDigitWeb/summery-Dash/dashboard"
	"github.com/KajanthanDigitWeb/summery-Dash/models"
	"github.com/KajanthanDigitWeb/summery-Dash/rotation"
	"github.com/KajanthanDigitWeb/summery-Dash/utils"
)

type idleTicker struct{ ch chan time.Time }

func (t idleTicker) C() <-chan time.Time { return t.ch }
func (t idleTicker) Stop()               {}

type fakeFetcher struct {
	mu    sync.Mutex
	grids map[string][][]string
	errs  map[string]error
	block chan struct{}
	calls []SheetsConfig
}

func (f *fakeFetcher) FetchGrid(ctx context.Context, cfg SheetsConfig) ([][]string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cfg)
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	if cfg.APIKey == "" {
		return nil, utils.ErrMissingAPIKey
	}
	if err := f.errs[cfg.SpreadsheetId]; err != nil {
		return nil, err
	}
	return f.grids[cfg.SpreadsheetId], nil
}

var sheetHeader = []string{"order_id", "account", "sku", "amount", "quantity", "order_date"}

func newTestSyncer(t *testing.T, fetcher GridFetcher, apiKey string) *Syncer {
	t.Helper()
	today := time.Date(2024, 12, 16, 9, 0, 0, 0, time.UTC)
	session := dashboard.NewSession(dashboard.Options{
		Clock:         func() time.Time { return today },
		TickerFactory: func(time.Duration) rotation.Ticker { return idleTicker{ch: make(chan time.Time)} },
	})
	t.Cleanup(session.Close)
	return NewSyncer(session, SyncerOptions{
		Fetcher:        fetcher,
		SheetResolver:  models.NewMappingResolver(nil, ""),
		UploadResolver: models.NewPrefixResolver([]models.PrefixRule{{Prefix: "TS", Name: "TechStore Pro"}}, ""),
		APIKey:         apiKey,
	})
}

func TestConnect_LoadsCurrentAndPriorYear(t *testing.T) {
	fetcher := &fakeFetcher{grids: map[string][][]string{
		"current": {
			sheetHeader,
			{"o1", "led_sone", "LS-1", "£12.50", "2", "2024-12-15"},
			{"o2", "nobody", "NB-1", "5", "1", "2024-12-15"},
			{"o3", "re6865", "RL-1", "7", "1", "2024-12-14T10:00:00Z"},
		},
		"prior": {
			sheetHeader,
			{"p1", "led_sone", "LS-1", "3", "1", "2023-12-15"},
		},
	}}
	s := newTestSyncer(t, fetcher, "key")

	req := s.RequestFromConnect(ConnectRequest{SpreadsheetId: "current", PriorYearSpreadsheetId: "prior"})
	if req.Current.Range != "Sheet1!A:Z" || req.PriorYear == nil || req.PriorYear.Range != "Sheet1!A:Z" {
		t.Fatalf("expected default ranges, got %+v", req)
	}

	outcome, err := s.Connect(context.Background(), req, models.LoadTriggeredManual)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if outcome.RowsRead != 3 || outcome.RecordsLoaded != 2 || outcome.PriorYearRecords != 1 {
		t.Fatalf("unexpected outcome %+v", outcome)
	}

	st := s.Session().Status()
	if st.Kind != models.SourceSheets || st.Status != models.ConnectionConnected || st.RecordCount != 2 || st.PriorYearRecordCount != 1 {
		t.Fatalf("unexpected status %+v", st)
	}
	records := s.Session().Records()
	if records[0].AccountName != "LEDSone(Renuha)" || records[0].Amount != 12.5 || records[1].Date != "2024-12-14" {
		t.Fatalf("unexpected records %+v", records)
	}
	if s.ActiveRequest().Current.SpreadsheetId != "current" {
		t.Fatalf("connect should make the spreadsheet active")
	}
}

func TestLoadSheets_MissingKeyKeepsRecords(t *testing.T) {
	s := newTestSyncer(t, &fakeFetcher{}, "")
	before := s.Session().Records()

	_, err := s.Connect(context.Background(), s.RequestFromConnect(ConnectRequest{SpreadsheetId: "current"}), models.LoadTriggeredManual)
	if !errors.Is(err, utils.ErrMissingAPIKey) {
		t.Fatalf("expected missing key error, got %v", err)
	}
	st := s.Session().Status()
	if st.Status != models.ConnectionError || st.Kind != models.SourceMock || st.LastError == "" {
		t.Fatalf("unexpected status %+v", st)
	}
	if len(s.Session().Records()) != len(before) {
		t.Fatalf("failed load must keep the previous records")
	}
}

func TestLoadSheets_PriorYearFailureTolerated(t *testing.T) {
	fetcher := &fakeFetcher{
		grids: map[string][][]string{"current": {sheetHeader, {"o1", "led_sone", "LS-1", "1", "1", "2024-12-15"}}},
		errs:  map[string]error{"prior": errors.New("forbidden")},
	}
	s := newTestSyncer(t, fetcher, "key")

	outcome, err := s.Connect(context.Background(), s.RequestFromConnect(ConnectRequest{SpreadsheetId: "current", PriorYearSpreadsheetId: "prior"}), models.LoadTriggeredManual)
	if err != nil {
		t.Fatalf("prior-year failure should not fail the load: %v", err)
	}
	if outcome.RecordsLoaded != 1 || outcome.PriorYearRecords != 0 {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if st := s.Session().Status(); st.Status != models.ConnectionConnected {
		t.Fatalf("expected connected, got %+v", st)
	}
}

func TestRefresh_WithoutConnection(t *testing.T) {
	s := newTestSyncer(t, &fakeFetcher{}, "key")
	if _, err := s.Refresh(context.Background(), models.LoadTriggeredManual); !errors.Is(err, utils.ErrSourceNotSet) {
		t.Fatalf("expected source not set, got %v", err)
	}
}

func TestLoadSheets_DisconnectDuringFetchWins(t *testing.T) {
	fetcher := &fakeFetcher{
		grids: map[string][][]string{"current": {sheetHeader, {"o1", "led_sone", "LS-1", "1", "1", "2024-12-15"}}},
		block: make(chan struct{}),
	}
	s := newTestSyncer(t, fetcher, "key")
	req := s.RequestFromConnect(ConnectRequest{SpreadsheetId: "current"})

	errc := make(chan error, 1)
	go func() {
		_, err := s.LoadSheets(context.Background(), req, models.LoadTriggeredManual)
		errc <- err
	}()

	for {
		fetcher.mu.Lock()
		n := len(fetcher.calls)
		fetcher.mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	s.Disconnect(context.Background())
	close(fetcher.block)

	if err := <-errc; !errors.Is(err, utils.ErrStaleLoad) {
		t.Fatalf("expected stale load, got %v", err)
	}
	st := s.Session().Status()
	if st.Kind != models.SourceMock || st.RecordCount != 10 {
		t.Fatalf("late sheet result must not replace the mock data, got %+v", st)
	}
}

func TestLoadUpload(t *testing.T) {
	var archived []string
	s := newTestSyncer(t, &fakeFetcher{}, "")
	s.opts.Archive = func(ctx context.Context, objectName string, data []byte, contentType string) error {
		if contentType != contentTypeCSV {
			t.Errorf("unexpected content type %q", contentType)
		}
		archived = append(archived, objectName)
		return nil
	}

	data := []byte("id,accountId,itemId,listingId,amount,quantity,date\n" +
		"1,ACC1,TS-1,L1,10,2,2024-12-15\n" +
		"2,ACC2,ZZ-1,L2,5,1,2024-12-15\n")
	outcome, err := s.LoadUpload(context.Background(), "dec.csv", data, models.LoadTriggeredManual)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if outcome.RecordsLoaded != 2 || len(archived) != 1 || outcome.ArchiveObject != archived[0] {
		t.Fatalf("unexpected outcome %+v archived=%v", outcome, archived)
	}
	records := s.Session().Records()
	if records[0].AccountName != "TechStore Pro" || records[1].AccountName != "Unknown Account" {
		t.Fatalf("unexpected account names %+v", records)
	}
	if st := s.Session().Status(); st.Kind != models.SourceUpload || st.Status != models.ConnectionDisconnected {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestLoadUpload_EmptyFileKeepsRecords(t *testing.T) {
	s := newTestSyncer(t, &fakeFetcher{}, "")
	if _, err := s.LoadUpload(context.Background(), "empty.csv", nil, models.LoadTriggeredManual); !errors.Is(err, utils.ErrEmptyBatch) {
		t.Fatalf("expected empty batch, got %v", err)
	}
	if st := s.Session().Status(); st.Kind != models.SourceMock || st.RecordCount != 10 {
		t.Fatalf("records should be untouched, got %+v", st)
	}
}
