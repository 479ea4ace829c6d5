package service

import (
	"math"
	"time"

	"github.com/ANIKETSHETTY47/energy-grid-analytics-go/aggregator"
	"github.com/ANIKETSHETTY47/energy-grid-analytics-go/converter"

	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/domain"
	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/telemetry"
)

const (
	defaultTariff       = 0.20 // per kWh
	peakShare           = 0.4
	movingAverageWindow = 12
	wattsPerKilowatt    = 1000
)

// Summary describes real power over the rows of one report view. Powers are
// in watts as reported by the meters. TotalKWh counts each row as one hour
// at its power and drives the cost estimate.
type Summary struct {
	OwnerID       string                `json:"owner_id"`
	Granularity   telemetry.Granularity `json:"granularity"`
	Rows          int                   `json:"rows"`
	TotalW        float64               `json:"total_w"`
	TotalKWh      float64               `json:"total_kwh"`
	TotalMWh      float64               `json:"total_mwh"`
	AverageW      float64               `json:"average_w"`
	PeakW         float64               `json:"peak_w"`
	PeakAt        string                `json:"peak_at,omitempty"`
	MinW          float64               `json:"min_w"`
	MovingAverage []float64             `json:"moving_average"`
	EstimatedCost float64               `json:"estimated_cost"`
	CostBreakdown map[string]float64    `json:"cost_breakdown"`
}

// WithTariff sets the energy price per kWh used for cost estimates.
func (s *PowerService) WithTariff(rate float64) *PowerService {
	if rate > 0 {
		s.tariff = rate
	}
	return s
}

// Summary re-aggregates the held readings like Report and summarises the
// real power of the resulting rows.
func (s *PowerService) Summary(owner string, view View) (*Summary, error) {
	rep, err := s.Report(owner, view)
	if err != nil {
		return nil, err
	}
	return Summarize(rep.OwnerID, rep.Series, s.tariff, s.loc), nil
}

// Summarize computes totals, extremes, a moving average and a peak/off-peak
// cost estimate over series.
func Summarize(owner string, series telemetry.Series, tariff float64, loc *time.Location) *Summary {
	sum := &Summary{
		OwnerID:       owner,
		Granularity:   series.Granularity,
		Rows:          len(series.Rows),
		MovingAverage: []float64{},
		CostBreakdown: map[string]float64{},
	}
	if len(series.Rows) == 0 {
		return sum
	}

	points := make([]aggregator.Point, len(series.Rows))
	sum.PeakW, sum.MinW = math.Inf(-1), math.Inf(1)
	for i, row := range series.Rows {
		points[i] = aggregator.Point{Value: row.RealPowerTotal, Timestamp: rowTime(row, series.Granularity, loc)}
		if row.RealPowerTotal > sum.PeakW {
			sum.PeakW, sum.PeakAt = row.RealPowerTotal, row.Timestamp
		}
		sum.MinW = min(sum.MinW, row.RealPowerTotal)
	}
	total := aggregator.Sum(points)
	sum.TotalW = round2(total)
	sum.AverageW = round2(aggregator.Average(points))
	if ma := aggregator.MovingAverage(points, min(movingAverageWindow, len(points))); ma != nil {
		sum.MovingAverage = ma
	}

	kwh := total / wattsPerKilowatt
	conv := &converter.EnergyConverter{}
	sum.TotalKWh = kwh
	sum.TotalMWh = conv.KWhToMWh(kwh)
	peak := conv.CalculateCost(kwh*peakShare, tariff, "peak")
	offPeak := conv.CalculateCost(kwh*(1-peakShare), tariff, "offpeak")
	sum.CostBreakdown["peak"] = round2(peak)
	sum.CostBreakdown["offpeak"] = round2(offPeak)
	sum.EstimatedCost = round2(peak + offPeak)
	return sum
}

// rowTime recovers the instant a row stands for: the source timestamp in
// today mode, the bucket's canonical date otherwise.
func rowTime(row domain.ChartRow, g telemetry.Granularity, loc *time.Location) time.Time {
	if g.Aggregates() {
		if t, err := telemetry.CanonicalDate(row.Timestamp, g); err == nil {
			return t
		}
		return time.Time{}
	}
	t, _ := telemetry.ParseTimestamp(row.SourceTimestamp, loc)
	return t
}
