package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/domain"
	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/metrics"
	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/telemetry"
	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/upstream"
	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/validation"
)

var (
	ErrOwnerRequired = errors.New("owner id is required")
	// ErrSuperseded means a newer report request for the same owner won.
	ErrSuperseded = errors.New("superseded by a newer report request")
	ErrNoReport   = errors.New("no report fetched for owner")
	// ErrNotConfigured is returned by optional features whose backend is off.
	ErrNotConfigured = errors.New("feature not configured")
	ErrNotBucketed   = errors.New("today rows are not bucketed")
)

type PowerSource interface {
	PowerReport(ctx context.Context, q upstream.ReportQuery) ([]domain.PowerReading, error)
}

// LiveSource serves readings received from the live feed.
type LiveSource interface {
	Readings(owner string) []domain.PowerReading
}

// Archive persists aggregated buckets.
type Archive interface {
	SaveBuckets(ctx context.Context, owner string, g telemetry.Granularity, rows []domain.ChartRow) error
	ListBuckets(ctx context.Context, owner string, g telemetry.Granularity) ([]domain.ChartRow, error)
}

type Exporter interface {
	ExportReport(ctx context.Context, key string, body []byte) (string, error)
}

// ReportRequest is one submission of the power report form.
type ReportRequest struct {
	OwnerID     string `json:"owner_id" form:"owner_id" validate:"notblank"`
	StartDate   string `json:"start_date" form:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate     string `json:"end_date" form:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Granularity string `json:"granularity" form:"granularity"`
	StartTime   string `json:"start_time" form:"start_time"`
	EndTime     string `json:"end_time" form:"end_time"`
}

// View selects how held readings are re-aggregated.
type View struct {
	Granularity string `query:"granularity"`
	StartTime   string `query:"start_time"`
	EndTime     string `query:"end_time"`
}

type Report struct {
	OwnerID   string           `json:"owner_id"`
	FetchedAt time.Time        `json:"fetched_at"`
	Loading   bool             `json:"loading,omitempty"`
	Error     string           `json:"error,omitempty"`
	Readings  int              `json:"readings"`
	Series    telemetry.Series `json:"series"`
}

type PowerService struct {
	source   PowerSource
	slot     *ReportSlot
	loc      *time.Location
	now      func() time.Time
	live     LiveSource
	archive  Archive
	exporter Exporter
	tariff   float64
}

func NewPowerService(source PowerSource, loc *time.Location) *PowerService {
	if loc == nil {
		loc = time.Local
	}
	return &PowerService{
		source: source,
		slot:   NewReportSlot(),
		loc:    loc,
		now:    time.Now,
		tariff: defaultTariff,
	}
}

func (s *PowerService) WithLive(l LiveSource) *PowerService   { s.live = l; return s }
func (s *PowerService) WithArchive(a Archive) *PowerService   { s.archive = a; return s }
func (s *PowerService) WithExporter(e Exporter) *PowerService { s.exporter = e; return s }

// Fetch loads one owner's readings from the plant API, holds them for later
// re-aggregation and returns the series for the requested view.
func (s *PowerService) Fetch(ctx context.Context, req ReportRequest) (*Report, error) {
	req.OwnerID = strings.TrimSpace(req.OwnerID)
	if req.OwnerID == "" {
		return nil, ErrOwnerRequired
	}
	if err := validation.Struct(&req); err != nil {
		return nil, err
	}
	view := View{Granularity: req.Granularity, StartTime: req.StartTime, EndTime: req.EndTime}
	g, err := parseGranularity(view.Granularity)
	if err != nil {
		return nil, err
	}

	q := upstream.ReportQuery{OwnerID: req.OwnerID, StartDate: req.StartDate, EndDate: req.EndDate}
	if g == telemetry.Today {
		today := s.now().In(s.loc).Format("2006-01-02")
		q.StartDate, q.EndDate = today, today
	}

	gen, fctx := s.slot.Begin(ctx, req.OwnerID)
	readings, err := s.source.PowerReport(fctx, q)
	if err != nil {
		if !s.slot.Fail(req.OwnerID, gen, err) {
			return nil, ErrSuperseded
		}
		return nil, err
	}
	readings = telemetry.DerivePowerFactor(readings)
	if !s.slot.Commit(req.OwnerID, gen, readings) {
		return nil, ErrSuperseded
	}
	log.Info().Str("owner", req.OwnerID).Int("readings", len(readings)).Str("start", q.StartDate).Str("end", q.EndDate).Msg("power report fetched")

	st, _ := s.slot.Snapshot(req.OwnerID)
	return s.report(req.OwnerID, st, view)
}

// Report re-aggregates what is held for owner without calling the plant API.
func (s *PowerService) Report(owner string, view View) (*Report, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return nil, ErrOwnerRequired
	}
	st, ok := s.slot.Snapshot(owner)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrNoReport, owner)
	}
	return s.report(owner, st, view)
}

// Live serves today-mode rows over the readings received from the live feed.
func (s *PowerService) Live(owner string, view View) (*Report, error) {
	if s.live == nil {
		return nil, fmt.Errorf("live feed: %w", ErrNotConfigured)
	}
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return nil, ErrOwnerRequired
	}
	view.Granularity = string(telemetry.Today)
	// The buffer spans midnight; keep today's readings and the malformed
	// ones, which are reported as rejected.
	today := s.now().In(s.loc).Format("2006-01-02")
	readings := slices.DeleteFunc(slices.Clone(s.live.Readings(owner)), func(r domain.PowerReading) bool {
		t, err := telemetry.ParseTimestamp(r.Timestamp, s.loc)
		return err == nil && t.Format("2006-01-02") != today
	})
	return s.report(owner, SlotState{Readings: readings}, view)
}

// Archive aggregates the held readings and stores the buckets.
func (s *PowerService) Archive(ctx context.Context, owner string, view View) (*Report, error) {
	if s.archive == nil {
		return nil, fmt.Errorf("archive: %w", ErrNotConfigured)
	}
	rep, err := s.Report(owner, view)
	if err != nil {
		return nil, err
	}
	if !rep.Series.Granularity.Aggregates() {
		return nil, ErrNotBucketed
	}
	if err := s.archive.SaveBuckets(ctx, rep.OwnerID, rep.Series.Granularity, rep.Series.Rows); err != nil {
		return nil, fmt.Errorf("archive buckets: %w", err)
	}
	log.Info().Str("owner", rep.OwnerID).Str("granularity", string(rep.Series.Granularity)).Int("buckets", len(rep.Series.Rows)).Msg("buckets archived")
	return rep, nil
}

func (s *PowerService) Archived(ctx context.Context, owner, granularity string) ([]domain.ChartRow, error) {
	if s.archive == nil {
		return nil, fmt.Errorf("archive: %w", ErrNotConfigured)
	}
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return nil, ErrOwnerRequired
	}
	g, err := telemetry.ParseGranularity(granularity)
	if err != nil {
		return nil, err
	}
	return s.archive.ListBuckets(ctx, owner, g)
}

// Export uploads the current series as JSON and returns a download link.
func (s *PowerService) Export(ctx context.Context, owner string, view View) (string, error) {
	if s.exporter == nil {
		return "", fmt.Errorf("export: %w", ErrNotConfigured)
	}
	rep, err := s.Report(owner, view)
	if err != nil {
		return "", err
	}
	body, err := json.Marshal(rep)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("reports/%s/%s-%d.json", rep.OwnerID, rep.Series.Granularity, s.now().Unix())
	return s.exporter.ExportReport(ctx, key, body)
}

func (s *PowerService) report(owner string, st SlotState, view View) (*Report, error) {
	g, err := parseGranularity(view.Granularity)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	series, err := telemetry.Aggregate(st.Readings, telemetry.Options{
		Granularity: g,
		StartClock:  view.StartTime,
		EndClock:    view.EndTime,
		Now:         s.now(),
		Location:    s.loc,
	})
	if err != nil {
		return nil, err
	}
	metrics.AggregationDuration.WithLabelValues(string(g)).Observe(time.Since(start).Seconds())
	if n := len(series.Rejected); n > 0 {
		metrics.RejectedReadings.Add(float64(n))
		log.Warn().Str("owner", owner).Int("rejected", n).Msg("readings with malformed timestamps left out")
	}

	rep := &Report{
		OwnerID:   owner,
		FetchedAt: st.FetchedAt,
		Loading:   st.Loading,
		Readings:  len(st.Readings),
		Series:    series,
	}
	if st.Err != nil {
		rep.Error = st.Err.Error()
	}
	return rep, nil
}

func parseGranularity(s string) (telemetry.Granularity, error) {
	if strings.TrimSpace(s) == "" {
		return telemetry.Today, nil
	}
	return telemetry.ParseGranularity(s)
}
