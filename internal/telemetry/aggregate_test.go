package telemetry

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/domain"
)

func reading(ts string, current, power float64) domain.PowerReading {
	return domain.PowerReading{
		Timestamp:      ts,
		CurrentA:       current,
		CurrentB:       current,
		CurrentC:       current,
		RealPowerTotal: power,
	}
}

func withVoltage(r domain.PowerReading, v float64) domain.PowerReading {
	r.VoltageAB = domain.Float(v)
	r.VoltageBC = domain.Float(v)
	r.VoltageCA = domain.Float(v)
	return r
}

func aggregate(t *testing.T, readings []domain.PowerReading, opts Options) Series {
	t.Helper()
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	s, err := Aggregate(readings, opts)
	if err != nil {
		t.Fatalf("Aggregate returned error: %v", err)
	}
	return s
}

func TestAggregateDailyExample(t *testing.T) {
	readings := []domain.PowerReading{
		reading("01/06/2021 08:00:00", 1, 300),
		reading("01/06/2021 09:00:00", 3, 500),
	}
	s := aggregate(t, readings, Options{Granularity: Daily})
	if len(s.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(s.Rows))
	}
	row := s.Rows[0]
	if row.Timestamp != "2021-06-01" {
		t.Errorf("key = %q, want 2021-06-01", row.Timestamp)
	}
	if row.CurrentA != 2 {
		t.Errorf("Current_Phase_A_VALUE = %v, want 2", row.CurrentA)
	}
	if row.RealPowerTotal != 400 {
		t.Errorf("Real_Power_Total_VALUE = %v, want 400", row.RealPowerTotal)
	}
	if row.VoltageAB != nil || row.PowerFactor != nil {
		t.Errorf("metrics absent from input must not be invented: %+v", row)
	}
}

func TestAggregateEmptyInput(t *testing.T) {
	for _, g := range []Granularity{Today, Daily, Weekly, Monthly} {
		s := aggregate(t, nil, Options{Granularity: g})
		if s.Rows == nil || len(s.Rows) != 0 {
			t.Errorf("%s: expected empty non-nil rows, got %#v", g, s.Rows)
		}
		if len(s.Rejected) != 0 {
			t.Errorf("%s: unexpected rejections %v", g, s.Rejected)
		}
	}
}

func TestAggregateMonthlyCollapses(t *testing.T) {
	readings := []domain.PowerReading{
		reading("05/01/2022 10:00:00", 2, 100),
		reading("20/01/2022 10:00:00", 4, 300),
	}
	s := aggregate(t, readings, Options{Granularity: Monthly})
	if len(s.Rows) != 1 || s.Rows[0].Timestamp != "2022-01" {
		t.Fatalf("expected single 2022-01 row, got %+v", s.Rows)
	}
	if s.Rows[0].CurrentB != 3 || s.Rows[0].RealPowerTotal != 200 {
		t.Errorf("unexpected means: %+v", s.Rows[0])
	}
}

func TestAggregateLegacyGranularities(t *testing.T) {
	readings := []domain.PowerReading{
		reading("05/01/2022 10:00:00", 2, 100),
		reading("06/01/2022 10:00:00", 4, 300),
	}
	day := aggregate(t, readings, Options{Granularity: "day"})
	if day.Granularity != Daily || len(day.Rows) != 2 {
		t.Errorf("day: got %s with %d rows", day.Granularity, len(day.Rows))
	}
	month := aggregate(t, readings, Options{Granularity: "month"})
	if month.Granularity != Monthly || len(month.Rows) != 1 {
		t.Errorf("month: got %s with %d rows", month.Granularity, len(month.Rows))
	}
}

func TestAggregateWeeklyStartsOnSunday(t *testing.T) {
	readings := []domain.PowerReading{
		reading("12/06/2021 23:00:00", 1, 10), // Saturday
		reading("13/06/2021 00:30:00", 2, 20), // Sunday
		reading("19/06/2021 12:00:00", 4, 40), // Saturday
	}
	s := aggregate(t, readings, Options{Granularity: Weekly})
	if len(s.Rows) != 2 {
		t.Fatalf("expected 2 weeks, got %+v", s.Rows)
	}
	if s.Rows[0].Timestamp != "2021-06-06" {
		t.Errorf("first week = %q, want 2021-06-06", s.Rows[0].Timestamp)
	}
	if s.Rows[1].Timestamp != "2021-06-13" || s.Rows[1].CurrentA != 3 {
		t.Errorf("second week = %+v, want 2021-06-13 with mean 3", s.Rows[1])
	}
}

func TestAggregateSortsAcrossYearBoundary(t *testing.T) {
	readings := []domain.PowerReading{
		reading("03/02/2022 10:00:00", 1, 1),
		reading("28/12/2021 10:00:00", 1, 1),
		reading("15/11/2021 10:00:00", 1, 1),
		reading("02/01/2022 10:00:00", 1, 1),
	}
	for _, g := range []Granularity{Daily, Weekly, Monthly} {
		s := aggregate(t, readings, Options{Granularity: g})
		for i := 1; i < len(s.Rows); i++ {
			a, err := CanonicalDate(s.Rows[i-1].Timestamp, g)
			if err != nil {
				t.Fatal(err)
			}
			b, err := CanonicalDate(s.Rows[i].Timestamp, g)
			if err != nil {
				t.Fatal(err)
			}
			if a.After(b) {
				t.Errorf("%s: rows out of order: %q before %q", g, s.Rows[i-1].Timestamp, s.Rows[i].Timestamp)
			}
		}
	}
}

func TestAggregateOrderIndependent(t *testing.T) {
	var readings []domain.PowerReading
	for day := 1; day <= 28; day++ {
		for hour := 0; hour < 24; hour += 6 {
			ts := time.Date(2023, time.February, day, hour, 0, 0, 0, time.UTC).Format("02/01/2006 15:04:05")
			readings = append(readings, withVoltage(reading(ts, float64(day+hour), float64(day*hour)), float64(380+hour)))
		}
	}
	want := aggregate(t, readings, Options{Granularity: Weekly})

	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 5; trial++ {
		shuffled := append([]domain.PowerReading(nil), readings...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		got := aggregate(t, shuffled, Options{Granularity: Weekly})
		if len(got.Rows) != len(want.Rows) {
			t.Fatalf("row count changed: %d vs %d", len(got.Rows), len(want.Rows))
		}
		for i := range want.Rows {
			w, g := want.Rows[i], got.Rows[i]
			if w.Timestamp != g.Timestamp ||
				math.Abs(w.CurrentA-g.CurrentA) > 1e-9 ||
				math.Abs(w.RealPowerTotal-g.RealPowerTotal) > 1e-9 ||
				math.Abs(*w.VoltageAB-*g.VoltageAB) > 1e-9 {
				t.Errorf("trial %d row %d: %+v != %+v", trial, i, g, w)
			}
		}
	}
}

func TestAggregateOptionalMetricsExcludedFromMean(t *testing.T) {
	readings := []domain.PowerReading{
		withVoltage(reading("01/06/2021 08:00:00", 1, 100), 400),
		reading("01/06/2021 09:00:00", 1, 100),
		reading("02/06/2021 09:00:00", 1, 100),
	}
	s := aggregate(t, readings, Options{Granularity: Daily})
	if len(s.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(s.Rows))
	}
	if s.Rows[0].VoltageAB == nil || *s.Rows[0].VoltageAB != 400 {
		t.Errorf("missing voltage must be excluded, not averaged as zero: %+v", s.Rows[0].VoltageAB)
	}
	if s.Rows[1].VoltageAB == nil || *s.Rows[1].VoltageAB != 0 {
		t.Errorf("bucket without any voltage must report 0, got %v", s.Rows[1].VoltageAB)
	}
}

func TestAggregateAveragesPowerFactorWhenPresent(t *testing.T) {
	a := reading("01/06/2021 08:00:00", 1, 100)
	a.PowerFactor = domain.Float(0.8)
	b := reading("01/06/2021 09:00:00", 1, 100)
	b.PowerFactor = domain.Float(0.9)
	s := aggregate(t, []domain.PowerReading{a, b}, Options{Granularity: Daily})
	if s.Rows[0].PowerFactor == nil || math.Abs(*s.Rows[0].PowerFactor-0.85) > 1e-9 {
		t.Errorf("powerFactor mean = %v, want 0.85", s.Rows[0].PowerFactor)
	}
}

func TestAggregateRejectsMalformedTimestamps(t *testing.T) {
	readings := []domain.PowerReading{
		reading("01/06/2021 08:00:00", 1, 100),
		reading("2021-06-01 09:00:00", 5, 500),
		reading("13/13/2021 09:00:00", 5, 500),
	}
	s := aggregate(t, readings, Options{Granularity: Daily})
	if len(s.Rows) != 1 || s.Rows[0].CurrentA != 1 {
		t.Errorf("malformed readings leaked into buckets: %+v", s.Rows)
	}
	if len(s.Rejected) != 2 || s.Rejected[0].Index != 1 || s.Rejected[1].Index != 2 {
		t.Errorf("unexpected rejections: %+v", s.Rejected)
	}
}

func TestAggregateTodayFiltersWithoutCollapsing(t *testing.T) {
	now := time.Date(2024, time.March, 10, 12, 30, 0, 0, time.UTC)
	readings := []domain.PowerReading{
		reading("10/03/2024 07:59:00", 1, 1),
		reading("10/03/2024 08:00:00", 2, 2),
		reading("10/03/2024 08:00:30", 3, 3),
		reading("10/03/2024 12:30:45", 4, 4),
		reading("10/03/2024 12:31:00", 5, 5), // future
		reading("10/03/2024 17:00:00", 6, 6), // after end
		reading("bad", 7, 7),
	}
	s := aggregate(t, readings, Options{Granularity: Today, StartClock: "08:00", EndClock: "16:00", Now: now})
	if len(s.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d: %+v", len(s.Rows), s.Rows)
	}
	wantLabels := []string{"08:00:00", "08:00:30", "12:30:45"}
	for i, row := range s.Rows {
		if row.Timestamp != wantLabels[i] {
			t.Errorf("row %d label = %q, want %q", i, row.Timestamp, wantLabels[i])
		}
		if row.SourceTimestamp != readings[i+1].Timestamp {
			t.Errorf("row %d lost its source timestamp", i)
		}
	}
	if len(s.Rejected) != 1 {
		t.Errorf("expected the malformed reading to be rejected, got %+v", s.Rejected)
	}
}

func TestAggregateTodayPassesPowerFactorThrough(t *testing.T) {
	r := reading("10/03/2024 08:00:00", 1, 1)
	r.PowerFactor = domain.Float(0.912)
	s := aggregate(t, []domain.PowerReading{r}, Options{
		Granularity: "live",
		Now:         time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC),
	})
	if len(s.Rows) != 1 || s.Rows[0].PowerFactor == nil || *s.Rows[0].PowerFactor != 0.912 {
		t.Errorf("power factor not passed through: %+v", s.Rows)
	}
}

func TestAggregateInvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want error
	}{
		{"unknown granularity", Options{Granularity: "hourly"}, ErrUnknownGranularity},
		{"bad start clock", Options{Granularity: Today, StartClock: "25:00"}, ErrInvalidClock},
		{"bad end clock", Options{Granularity: Today, EndClock: "noon"}, ErrInvalidClock},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Aggregate(nil, tt.opts)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}
