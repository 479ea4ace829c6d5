package http

import (
	"context"
	"fmt"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goccy/go-json"

	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/domain"
	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/feed"
	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/service"
	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/telemetry"
	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/upstream"
)

// plantAPI is a canned plant API. It records the last equipment log it
// received.
type plantAPI struct {
	mu         sync.Mutex
	reportCode int
	lastLog    domain.EquipmentLog
	lastLogURL string
}

func (p *plantAPI) handler() nethttp.Handler {
	mux := nethttp.NewServeMux()
	mux.HandleFunc("POST /pm/PM_search_report", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if p.reportCode != 0 {
			w.WriteHeader(p.reportCode)
			io.WriteString(w, `{"detail":"Owner not found"}`)
			return
		}
		if r.FormValue("owner_id") != "PM-1" {
			io.WriteString(w, `{"result":[]}`)
			return
		}
		io.WriteString(w, `{"result":[
			{"Current_Phase_A_TIMESTAMP":"01/06/2021 10:00:00","Current_Phase_A_VALUE":1,"Real_Power_Total_VALUE":300},
			{"Current_Phase_A_TIMESTAMP":"01/06/2021 11:00:00","Current_Phase_A_VALUE":3,"Real_Power_Total_VALUE":500},
			{"Current_Phase_A_TIMESTAMP":"2021-06-01 12:00","Current_Phase_A_VALUE":9}
		]}`)
	})
	mux.HandleFunc("GET /sparepart/categories", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		io.WriteString(w, `[{"id":1,"name":"Pumps","type":"Mechanical"},{"id":2,"name":"Cables","type":"Electrical"},{"id":3,"name":"Valves","type":"Mechanical"}]`)
	})
	mux.HandleFunc("GET /sparepart/analytics/overview", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		io.WriteString(w, `{"total_items":12,"total_safe":6,"total_caution":3,"total_below":3,"by_category":[
			{"category_name":"Pumps","safe_count":4,"caution_count":1,"below_count":2,"total_items":7},
			{"category_name":"Cables","safe_count":2,"caution_count":2,"below_count":1,"total_items":5}]}`)
	})
	mux.HandleFunc("GET /sparepart/analytics/value-summary", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		io.WriteString(w, `{"grand_total_value":900,"by_category":[{"category_name":"Pumps","total_value":700},{"category_name":"Cables","total_value":200}]}`)
	})
	mux.HandleFunc("POST /equipment/{id}/log_failure", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.lastLogURL = r.URL.Path
		json.NewDecoder(r.Body).Decode(&p.lastLog)
		io.WriteString(w, `{"status":"ok"}`)
	})
	return mux
}

func newTestApp(t *testing.T) (*fiber.App, *plantAPI, *service.Services) {
	t.Helper()
	api := &plantAPI{}
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)

	svcs := service.New(upstream.New(srv.URL, 5*time.Second), nil, time.UTC)
	return NewApp(svcs), api, svcs
}

func do(t *testing.T, app *fiber.App, req *nethttp.Request) (int, []byte) {
	t.Helper()
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, body
}

func postForm(path, form string) *nethttp.Request {
	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader(form))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	return req
}

func postJSON(path, body string) *nethttp.Request {
	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

type reportBody struct {
	OwnerID  string           `json:"owner_id"`
	Readings int              `json:"readings"`
	Series   telemetry.Series `json:"series"`
}

func TestHealthAndMetrics(t *testing.T) {
	app, _, _ := newTestApp(t)

	code, body := do(t, app, httptest.NewRequest(fiber.MethodGet, "/health", nil))
	if code != fiber.StatusOK || string(body) != "ok" {
		t.Errorf("health = %d %q", code, body)
	}
	code, body = do(t, app, httptest.NewRequest(fiber.MethodGet, "/metrics", nil))
	if code != fiber.StatusOK || !strings.Contains(string(body), "go_goroutines") {
		t.Errorf("metrics = %d", code)
	}
}

func TestPowerReportFetchAndRegroup(t *testing.T) {
	app, _, _ := newTestApp(t)

	code, body := do(t, app, postForm("/power/report", "owner_id=PM-1&start_date=2021-06-01&end_date=2021-06-01&granularity=daily"))
	if code != fiber.StatusOK {
		t.Fatalf("fetch = %d %s", code, body)
	}
	var rep reportBody
	if err := json.Unmarshal(body, &rep); err != nil {
		t.Fatal(err)
	}
	if rep.OwnerID != "PM-1" || rep.Readings != 3 {
		t.Errorf("report = %+v", rep)
	}
	if len(rep.Series.Rows) != 1 {
		t.Fatalf("rows = %+v", rep.Series.Rows)
	}
	row := rep.Series.Rows[0]
	if row.Timestamp != "2021-06-01" || row.CurrentA != 2 || row.RealPowerTotal != 400 {
		t.Errorf("daily row = %+v", row)
	}
	if len(rep.Series.Rejected) != 1 || rep.Series.Rejected[0].Index != 2 {
		t.Errorf("rejected = %+v", rep.Series.Rejected)
	}

	code, body = do(t, app, httptest.NewRequest(fiber.MethodGet, "/power/summary?owner_id=PM-1&granularity=daily", nil))
	var sum service.Summary
	json.Unmarshal(body, &sum)
	if code != fiber.StatusOK || sum.Rows != 1 || sum.PeakW != 400 {
		t.Errorf("summary = %d %s", code, body)
	}

	code, body = do(t, app, httptest.NewRequest(fiber.MethodGet, "/power/report?owner_id=PM-1&granularity=monthly", nil))
	if code != fiber.StatusOK {
		t.Fatalf("regroup = %d %s", code, body)
	}
	rep = reportBody{}
	json.Unmarshal(body, &rep)
	if rep.Series.Granularity != telemetry.Monthly || len(rep.Series.Rows) != 1 || rep.Series.Rows[0].Timestamp != "2021-06" {
		t.Errorf("monthly series = %+v", rep.Series)
	}
}

func TestPowerErrors(t *testing.T) {
	app, api, _ := newTestApp(t)

	tests := []struct {
		name  string
		req   *nethttp.Request
		code  int
		field string
	}{
		{"missing owner", postForm("/power/report", "owner_id=+&granularity=daily"), fiber.StatusBadRequest, "error"},
		{"bad date", postForm("/power/report", "owner_id=PM-1&start_date=01-06-2021"), fiber.StatusBadRequest, "fields"},
		{"bad granularity", postForm("/power/report", "owner_id=PM-1&granularity=hourly"), fiber.StatusBadRequest, "error"},
		{"nothing fetched", httptest.NewRequest(fiber.MethodGet, "/power/report?owner_id=PM-9", nil), fiber.StatusNotFound, "error"},
		{"archive off", postJSON("/power/archive", `{"owner_id":"PM-1","granularity":"daily"}`), fiber.StatusServiceUnavailable, "error"},
		{"export off", postJSON("/power/export", `{"owner_id":"PM-1"}`), fiber.StatusServiceUnavailable, "error"},
		{"live off", httptest.NewRequest(fiber.MethodGet, "/power/live?owner_id=PM-1", nil), fiber.StatusServiceUnavailable, "error"},
		{"unknown route", httptest.NewRequest(fiber.MethodGet, "/nope", nil), fiber.StatusNotFound, "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := do(t, app, tt.req)
			if code != tt.code {
				t.Fatalf("status = %d, want %d (%s)", code, tt.code, body)
			}
			var m map[string]any
			if err := json.Unmarshal(body, &m); err != nil {
				t.Fatalf("body %q: %v", body, err)
			}
			if _, ok := m[tt.field]; !ok {
				t.Errorf("body %s has no %q", body, tt.field)
			}
		})
	}

	api.reportCode = nethttp.StatusNotFound
	code, body := do(t, app, postForm("/power/report", "owner_id=PM-1"))
	if code != fiber.StatusBadGateway {
		t.Fatalf("upstream 404 = %d", code)
	}
	var m struct {
		Error          string `json:"error"`
		UpstreamStatus int    `json:"upstream_status"`
	}
	json.Unmarshal(body, &m)
	if m.Error != "Owner not found" || m.UpstreamStatus != 404 {
		t.Errorf("upstream error body = %s", body)
	}
}

type memArchive struct {
	rows map[string][]domain.ChartRow
}

func (a *memArchive) SaveBuckets(_ context.Context, owner string, g telemetry.Granularity, rows []domain.ChartRow) error {
	a.rows[owner+"/"+string(g)] = rows
	return nil
}

func (a *memArchive) ListBuckets(_ context.Context, owner string, g telemetry.Granularity) ([]domain.ChartRow, error) {
	return a.rows[owner+"/"+string(g)], nil
}

func TestArchiveAndLive(t *testing.T) {
	app, _, svcs := newTestApp(t)
	arch := &memArchive{rows: map[string][]domain.ChartRow{}}
	buf := feed.NewBuffer(10)
	svcs.Power.WithArchive(arch).WithLive(buf)

	if code, body := do(t, app, postForm("/power/report", "owner_id=PM-1&granularity=daily")); code != fiber.StatusOK {
		t.Fatalf("fetch = %d %s", code, body)
	}
	code, body := do(t, app, postJSON("/power/archive", `{"owner_id":"PM-1","granularity":"weekly"}`))
	if code != fiber.StatusCreated {
		t.Fatalf("archive = %d %s", code, body)
	}
	code, body = do(t, app, httptest.NewRequest(fiber.MethodGet, "/power/archive?owner_id=PM-1&granularity=weekly", nil))
	var rows []domain.ChartRow
	json.Unmarshal(body, &rows)
	if code != fiber.StatusOK || len(rows) != 1 || rows[0].Timestamp != "2021-05-30" {
		t.Errorf("archived = %d %s", code, body)
	}
	if code, _ := do(t, app, httptest.NewRequest(fiber.MethodPost, "/power/archive?owner_id=PM-1&granularity=today", nil)); code != fiber.StatusBadRequest {
		t.Errorf("archiving today = %d, want 400", code)
	}

	now := time.Now().In(time.UTC)
	buf.Add("PM-2", domain.PowerReading{Timestamp: now.Format("02/01/2006 15:04:05"), CurrentA: 5})
	code, body = do(t, app, httptest.NewRequest(fiber.MethodGet, "/power/live?owner_id=PM-2&granularity=monthly", nil))
	var rep reportBody
	json.Unmarshal(body, &rep)
	if code != fiber.StatusOK || rep.Series.Granularity != telemetry.Today || len(rep.Series.Rows) != 1 {
		t.Errorf("live = %d %s", code, body)
	}
}

func TestSparePartRoutes(t *testing.T) {
	app, _, _ := newTestApp(t)

	code, body := do(t, app, httptest.NewRequest(fiber.MethodGet, "/sparepart/categories?grouped=true", nil))
	var groups []service.CategoryGroup
	json.Unmarshal(body, &groups)
	if code != fiber.StatusOK || len(groups) != 2 || groups[0].Type != "Mechanical" || len(groups[0].Categories) != 2 {
		t.Errorf("grouped = %d %s", code, body)
	}

	code, body = do(t, app, httptest.NewRequest(fiber.MethodGet, "/sparepart/dashboard?category_id=1&status=safe,below", nil))
	if code != fiber.StatusOK {
		t.Fatalf("dashboard = %d %s", code, body)
	}
	var d service.Dashboard
	json.Unmarshal(body, &d)
	if len(d.ByCategory) != 1 || d.ByCategory[0].CategoryName != "Pumps" {
		t.Errorf("by category = %+v", d.ByCategory)
	}
	if d.TotalSafe != 4 || d.TotalCaution != 0 || d.TotalBelow != 2 || d.TotalItems != 6 {
		t.Errorf("totals = %+v", d)
	}
	if len(d.ValueByCat) != 1 || d.ValueByCat[0].TotalValue != 700 {
		t.Errorf("values = %+v", d.ValueByCat)
	}

	if code, _ := do(t, app, httptest.NewRequest(fiber.MethodGet, "/sparepart/dashboard?status=EMPTY", nil)); code != fiber.StatusBadRequest {
		t.Errorf("bad status = %d, want 400", code)
	}
}

func TestEquipmentRoutes(t *testing.T) {
	app, api, _ := newTestApp(t)

	code, body := do(t, app, postJSON("/equipment/7/log", `{"notes":"bearing noise","log_type":"repair","event_date":"2024-03-05","event_time":"8:30"}`))
	if code != fiber.StatusCreated {
		t.Fatalf("log = %d %s", code, body)
	}
	api.mu.Lock()
	got, path := api.lastLog, api.lastLogURL
	api.mu.Unlock()
	if path != "/equipment/7/log_failure" || got.LogType != "REPAIR" || got.EventTimestamp != "2024-03-05T08:30:00" {
		t.Errorf("upstream got %s %+v", path, got)
	}

	tests := []struct {
		name string
		req  *nethttp.Request
		code int
	}{
		{"blank notes", postJSON("/equipment/7/log", `{"notes":" ","log_type":"REPAIR","event_date":"2024-03-05","event_time":"08:30"}`), fiber.StatusBadRequest},
		{"bad id", postJSON("/equipment/x/log", `{}`), fiber.StatusBadRequest},
		{"tree without location", httptest.NewRequest(fiber.MethodGet, "/equipment/tree", nil), fiber.StatusBadRequest},
		{"maintenance missing dates", httptest.NewRequest(fiber.MethodGet, "/equipment/7/maintenance", nil), fiber.StatusBadRequest},
		{"maintenance missing health score", httptest.NewRequest(fiber.MethodGet, "/equipment/7/maintenance?install_date=2020-01-01&last_service=2024-01-01", nil), fiber.StatusBadRequest},
		{"maintenance", httptest.NewRequest(fiber.MethodGet, "/equipment/7/maintenance?install_date=2020-01-01&last_service=2024-01-01&health_score=90", nil), fiber.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code, body := do(t, app, tt.req); code != tt.code {
				t.Errorf("status = %d, want %d (%s)", code, tt.code, body)
			}
		})
	}
}

func TestUpstreamTimeoutIsGatewayTimeout(t *testing.T) {
	slow := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	t.Cleanup(slow.Close)
	app := NewApp(service.New(upstream.New(slow.URL, 50*time.Millisecond), nil, time.UTC))

	status, body := do(t, app, httptest.NewRequest(fiber.MethodGet, "/sparepart/categories", nil))
	if status != fiber.StatusGatewayTimeout {
		t.Fatalf("status = %d, want 504: %s", status, body)
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{service.ErrSuperseded, fiber.StatusConflict},
		{upstream.ErrUnavailable, fiber.StatusServiceUnavailable},
		{&upstream.StatusError{StatusCode: 500}, fiber.StatusBadGateway},
		{upstream.ErrUpstream, fiber.StatusBadGateway},
		{telemetry.ErrInvalidClock, fiber.StatusBadRequest},
		{context.DeadlineExceeded, fiber.StatusGatewayTimeout},
		{fmt.Errorf("categories: %w: %w", upstream.ErrUpstream, context.DeadlineExceeded), fiber.StatusGatewayTimeout},
		{io.EOF, fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusOf(tt.err); got != tt.want {
			t.Errorf("statusOf(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
