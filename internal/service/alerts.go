package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/domain"
	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/metrics"
)

// Notifier publishes an operator notification.
type Notifier interface {
	SendAlert(ctx context.Context, subject, message string) error
}

// PowerFactorAlerter raises one notification per batch of readings whose
// power factor fell below the threshold.
type PowerFactorAlerter struct {
	notifier  Notifier
	threshold float64
}

func NewPowerFactorAlerter(n Notifier, threshold float64) *PowerFactorAlerter {
	return &PowerFactorAlerter{notifier: n, threshold: threshold}
}

// Check returns the readings below the threshold and, if any, sends a
// single alert listing them. Readings without a power factor or with a
// zero one (missing voltages) are ignored.
func (a *PowerFactorAlerter) Check(ctx context.Context, owner string, readings []domain.PowerReading) ([]domain.PowerReading, error) {
	var low []domain.PowerReading
	for _, r := range readings {
		if r.PowerFactor == nil || *r.PowerFactor <= 0 {
			continue
		}
		if *r.PowerFactor < a.threshold {
			low = append(low, r)
		}
	}
	if len(low) == 0 || a.notifier == nil {
		return low, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Power factor below %.2f on %s\n\n", a.threshold, owner)
	for i, r := range low {
		fmt.Fprintf(&b, "%d. %s  PF %.3f  P %.0f W\n", i+1, r.Timestamp, *r.PowerFactor, r.RealPowerTotal)
	}
	subject := fmt.Sprintf("Low Power Factor: %s", owner)
	if err := a.notifier.SendAlert(ctx, subject, b.String()); err != nil {
		return low, fmt.Errorf("send power factor alert: %w", err)
	}
	metrics.LowPowerFactorAlerts.Inc()
	log.Warn().Str("owner", owner).Int("readings", len(low)).Float64("threshold", a.threshold).Msg("low power factor alert sent")
	return low, nil
}

// CheckBuckets runs Check over archived buckets, using each bucket key as
// the reading label.
func (a *PowerFactorAlerter) CheckBuckets(ctx context.Context, owner string, rows []domain.ChartRow) ([]domain.PowerReading, error) {
	readings := make([]domain.PowerReading, len(rows))
	for i, r := range rows {
		readings[i] = domain.PowerReading{
			Timestamp:      r.Timestamp,
			RealPowerTotal: r.RealPowerTotal,
			PowerFactor:    r.PowerFactor,
		}
	}
	return a.Check(ctx, owner, readings)
}
