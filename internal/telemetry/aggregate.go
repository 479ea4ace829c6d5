package telemetry

import (
	"cmp"
	"slices"
	"time"

	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/domain"
)

const (
	DefaultStartClock = "00:00"
	DefaultEndClock   = "23:59"
)

// Options selects how readings are turned into a series.
type Options struct {
	Granularity Granularity
	// StartClock and EndClock bound today mode, inclusive, as HH:MM.
	StartClock string
	EndClock   string
	// Now excludes future readings in today mode. Zero means time.Now().
	Now      time.Time
	Location *time.Location
}

// Rejection records a reading left out because its timestamp did not parse.
type Rejection struct {
	Index     int    `json:"index"`
	Timestamp string `json:"timestamp"`
	Reason    string `json:"reason"`
}

type Series struct {
	Granularity Granularity       `json:"granularity"`
	Rows        []domain.ChartRow `json:"rows"`
	Rejected    []Rejection       `json:"rejected,omitempty"`
}

// Aggregate builds the chart series for readings. It only fails on invalid
// options; unparseable readings are skipped and listed in Series.Rejected.
func Aggregate(readings []domain.PowerReading, opts Options) (Series, error) {
	opts, err := opts.normalize()
	if err != nil {
		return Series{}, err
	}
	series := Series{Granularity: opts.Granularity, Rows: make([]domain.ChartRow, 0)}

	parsed := make([]timedReading, 0, len(readings))
	for i, r := range readings {
		t, err := ParseTimestamp(r.Timestamp, opts.Location)
		if err != nil {
			series.Rejected = append(series.Rejected, Rejection{Index: i, Timestamp: r.Timestamp, Reason: err.Error()})
			continue
		}
		parsed = append(parsed, timedReading{at: t, reading: r})
	}

	if opts.Granularity == Today {
		series.Rows = filterToday(parsed, opts)
		return series, nil
	}
	series.Rows = bucketize(parsed, opts.Granularity)
	return series, nil
}

func (o Options) normalize() (Options, error) {
	g, err := ParseGranularity(string(o.Granularity))
	if err != nil {
		return o, err
	}
	o.Granularity = g
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	o.Now = o.Now.In(o.Location)
	if o.StartClock == "" {
		o.StartClock = DefaultStartClock
	}
	if o.EndClock == "" {
		o.EndClock = DefaultEndClock
	}
	if o.StartClock, err = parseClock(o.StartClock); err != nil {
		return o, err
	}
	if o.EndClock, err = parseClock(o.EndClock); err != nil {
		return o, err
	}
	return o, nil
}

type timedReading struct {
	at      time.Time
	reading domain.PowerReading
}

func filterToday(parsed []timedReading, opts Options) []domain.ChartRow {
	now := opts.Now.Truncate(time.Minute)
	rows := make([]domain.ChartRow, 0, len(parsed))
	for _, p := range parsed {
		clock := p.at.Format(clockLayout)
		if clock < opts.StartClock || clock > opts.EndClock {
			continue
		}
		if p.at.Truncate(time.Minute).After(now) {
			continue
		}
		r := p.reading
		rows = append(rows, domain.ChartRow{
			Timestamp:       p.at.Format(ClockLabelLayout),
			SourceTimestamp: r.Timestamp,
			CurrentA:        r.CurrentA,
			CurrentB:        r.CurrentB,
			CurrentC:        r.CurrentC,
			VoltageAB:       r.VoltageAB,
			VoltageBC:       r.VoltageBC,
			VoltageCA:       r.VoltageCA,
			RealPowerTotal:  r.RealPowerTotal,
			PowerFactor:     r.PowerFactor,
		})
	}
	return rows
}

type mean struct {
	sum float64
	n   int
}

func (m *mean) add(v float64) {
	m.sum += v
	m.n++
}

func (m *mean) addOptional(v *float64) {
	if v != nil {
		m.add(*v)
	}
}

// value is 0 for an empty group.
func (m mean) value() float64 {
	if m.n == 0 {
		return 0
	}
	return m.sum / float64(m.n)
}

type bucket struct {
	key  string
	date time.Time

	currentA, currentB, currentC, realPower mean
	voltageAB, voltageBC, voltageCA, pf     mean
}

// optionalMetrics tracks which optional metrics appear anywhere in the input.
// A metric seen in some readings is emitted for every bucket; one never seen
// is left out of the output entirely.
type optionalMetrics struct {
	voltageAB, voltageBC, voltageCA, pf bool
}

func (o *optionalMetrics) observe(r domain.PowerReading) {
	o.voltageAB = o.voltageAB || r.VoltageAB != nil
	o.voltageBC = o.voltageBC || r.VoltageBC != nil
	o.voltageCA = o.voltageCA || r.VoltageCA != nil
	o.pf = o.pf || r.PowerFactor != nil
}

func bucketize(parsed []timedReading, g Granularity) []domain.ChartRow {
	groups := make(map[string]*bucket)
	var present optionalMetrics
	for _, p := range parsed {
		key := BucketKey(p.at, g)
		b, ok := groups[key]
		if !ok {
			// Keys come from BucketKey, so they always parse back.
			date, _ := CanonicalDate(key, g)
			b = &bucket{key: key, date: date}
			groups[key] = b
		}
		r := p.reading
		present.observe(r)
		b.currentA.add(r.CurrentA)
		b.currentB.add(r.CurrentB)
		b.currentC.add(r.CurrentC)
		b.realPower.add(r.RealPowerTotal)
		b.voltageAB.addOptional(r.VoltageAB)
		b.voltageBC.addOptional(r.VoltageBC)
		b.voltageCA.addOptional(r.VoltageCA)
		b.pf.addOptional(r.PowerFactor)
	}

	buckets := make([]*bucket, 0, len(groups))
	for _, b := range groups {
		buckets = append(buckets, b)
	}
	slices.SortFunc(buckets, func(a, b *bucket) int {
		if c := a.date.Compare(b.date); c != 0 {
			return c
		}
		return cmp.Compare(a.key, b.key)
	})

	rows := make([]domain.ChartRow, 0, len(buckets))
	for _, b := range buckets {
		row := domain.ChartRow{
			Timestamp:      b.key,
			CurrentA:       b.currentA.value(),
			CurrentB:       b.currentB.value(),
			CurrentC:       b.currentC.value(),
			RealPowerTotal: b.realPower.value(),
		}
		if present.voltageAB {
			row.VoltageAB = domain.Float(b.voltageAB.value())
		}
		if present.voltageBC {
			row.VoltageBC = domain.Float(b.voltageBC.value())
		}
		if present.voltageCA {
			row.VoltageCA = domain.Float(b.voltageCA.value())
		}
		if present.pf {
			row.PowerFactor = domain.Float(b.pf.value())
		}
		rows = append(rows, row)
	}
	return rows
}
