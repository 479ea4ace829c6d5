package service

import (
	"context"
	"sync"

	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/domain"
	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/telemetry"
	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/upstream"
)

type fakePower struct {
	mu       sync.Mutex
	queries  []upstream.ReportQuery
	readings []domain.PowerReading
	err      error

	// block, when set, makes PowerReport wait for ctx cancellation or a
	// value on release.
	block   bool
	release chan struct{}
	started chan struct{}
}

func (f *fakePower) PowerReport(ctx context.Context, q upstream.ReportQuery) ([]domain.PowerReading, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	block := f.block
	f.mu.Unlock()
	if block {
		f.started <- struct{}{}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-f.release:
		}
	}
	return f.readings, f.err
}

func (f *fakePower) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

type fakeInventory struct {
	cats        []domain.Category
	items       []domain.CriticalItem
	overview    *domain.AnalyticsOverview
	values      *domain.ValueSummary
	overviewErr error
	searched    []domain.ItemSearch
}

func (f *fakeInventory) Categories(context.Context) ([]domain.Category, error) { return f.cats, nil }

func (f *fakeInventory) SearchItems(_ context.Context, s domain.ItemSearch) ([]domain.CriticalItem, error) {
	f.searched = append(f.searched, s)
	return f.items, nil
}

func (f *fakeInventory) AnalyticsOverview(context.Context) (*domain.AnalyticsOverview, error) {
	return f.overview, f.overviewErr
}

func (f *fakeInventory) ValueSummary(context.Context) (*domain.ValueSummary, error) {
	return f.values, nil
}

type fakeEquipment struct {
	children map[int][]domain.Location
	logged   []domain.EquipmentLog
	err      error
}

func (f *fakeEquipment) Locations(_ context.Context, parentID int) ([]domain.Location, error) {
	return f.children[parentID], nil
}

func (f *fakeEquipment) EquipmentTree(context.Context, int) ([]domain.EquipmentNode, error) {
	return []domain.EquipmentNode{{ID: 1, Text: "Pump", Children: []domain.EquipmentNode{{ID: 2, Text: "Motor"}}}}, nil
}

func (f *fakeEquipment) LogEquipmentEvent(_ context.Context, _ int, e domain.EquipmentLog) error {
	if f.err != nil {
		return f.err
	}
	f.logged = append(f.logged, e)
	return nil
}

type sentAlert struct{ subject, message string }

type fakeNotifier struct {
	sent []sentAlert
}

func (f *fakeNotifier) SendAlert(_ context.Context, subject, message string) error {
	f.sent = append(f.sent, sentAlert{subject, message})
	return nil
}

type fakeArchive struct {
	saved map[string][]domain.ChartRow
}

func (f *fakeArchive) SaveBuckets(_ context.Context, owner string, g telemetry.Granularity, rows []domain.ChartRow) error {
	if f.saved == nil {
		f.saved = make(map[string][]domain.ChartRow)
	}
	f.saved[owner+"/"+string(g)] = rows
	return nil
}

func (f *fakeArchive) ListBuckets(_ context.Context, owner string, g telemetry.Granularity) ([]domain.ChartRow, error) {
	return f.saved[owner+"/"+string(g)], nil
}

type fakeExporter struct {
	key  string
	body []byte
}

func (f *fakeExporter) ExportReport(_ context.Context, key string, body []byte) (string, error) {
	f.key, f.body = key, body
	return "https://example.test/" + key, nil
}

type fakeLive map[string][]domain.PowerReading

func (f fakeLive) Readings(owner string) []domain.PowerReading { return f[owner] }
