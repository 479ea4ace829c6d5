package telemetry

import (
	"math"

	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/domain"
)

// PowerFactor computes real / apparent power, where apparent power is
// sqrt(3) * mean line voltage * mean phase current. It is 0 whenever the
// apparent power is not positive or a voltage is missing.
func PowerFactor(r domain.PowerReading) float64 {
	if r.VoltageAB == nil || r.VoltageBC == nil || r.VoltageCA == nil {
		return 0
	}
	avgVoltage := (*r.VoltageAB + *r.VoltageBC + *r.VoltageCA) / 3
	avgCurrent := (r.CurrentA + r.CurrentB + r.CurrentC) / 3
	apparent := math.Sqrt(3) * avgVoltage * avgCurrent
	if !(apparent > 0) || math.IsInf(apparent, 0) {
		return 0
	}
	pf := r.RealPowerTotal / apparent
	if math.IsNaN(pf) || math.IsInf(pf, 0) {
		return 0
	}
	return pf
}

// DerivePowerFactor returns copies of readings with PowerFactor set, rounded
// to three decimals.
func DerivePowerFactor(readings []domain.PowerReading) []domain.PowerReading {
	out := make([]domain.PowerReading, len(readings))
	for i, r := range readings {
		pf := math.Round(PowerFactor(r)*1000) / 1000
		r.PowerFactor = &pf
		out[i] = r
	}
	return out
}
