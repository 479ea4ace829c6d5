package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/ANIKETSHETTY47/energy-grid-analytics-go/maintenance"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/validation"
)

const (
	defaultFailureRate     = 0.3
	defaultServiceInterval = 365
	// Plant equipment is assumed to run 20 hours a day.
	operatingHoursPerDay = 20
)

// MaintenanceQuery describes one piece of equipment for the lifetime outlook.
type MaintenanceQuery struct {
	InstallDate         string   `json:"install_date" query:"install_date" validate:"required,datetime=2006-01-02"`
	LastService         string   `json:"last_service" query:"last_service" validate:"required,datetime=2006-01-02"`
	HealthScore         *float64 `json:"health_score" query:"health_score" validate:"required,min=0,max=100"`
	FailureRatePerYear  float64  `json:"failure_rate_per_year" query:"failure_rate_per_year" validate:"min=0"`
	ServiceIntervalDays int      `json:"service_interval_days" query:"service_interval_days" validate:"min=0"`
}

type MaintenancePrediction struct {
	EquipmentID       int       `json:"equipment_id"`
	HoursRun          float64   `json:"hours_run"`
	CurrentHealth     float64   `json:"current_health"`
	FailureRisk30Days float64   `json:"failure_risk_30_days"`
	FailureRisk90Days float64   `json:"failure_risk_90_days"`
	NextServiceDate   time.Time `json:"next_service_date"`
	DaysUntilService  int       `json:"days_until_service"`
	Recommendation    string    `json:"recommendation"`
}

// MaintenanceService predicts when equipment needs attention and notifies
// when the outlook is poor.
type MaintenanceService struct {
	alerts Notifier
	loc    *time.Location
	now    func() time.Time
}

func NewMaintenanceService(alerts Notifier, loc *time.Location) *MaintenanceService {
	if loc == nil {
		loc = time.Local
	}
	return &MaintenanceService{alerts: alerts, loc: loc, now: time.Now}
}

func (s *MaintenanceService) Predict(ctx context.Context, equipmentID int, q MaintenanceQuery) (*MaintenancePrediction, error) {
	if equipmentID <= 0 {
		return nil, ErrEquipmentRequired
	}
	if err := validation.Struct(&q); err != nil {
		return nil, err
	}
	installed, err := time.ParseInLocation("2006-01-02", q.InstallDate, s.loc)
	if err != nil {
		return nil, err
	}
	lastService, err := time.ParseInLocation("2006-01-02", q.LastService, s.loc)
	if err != nil {
		return nil, err
	}
	if q.FailureRatePerYear == 0 {
		q.FailureRatePerYear = defaultFailureRate
	}
	if q.ServiceIntervalDays == 0 {
		q.ServiceIntervalDays = defaultServiceInterval
	}

	score := *q.HealthScore
	now := s.now()
	health := maintenance.AssetHealth{
		HoursRun:           hoursRun(installed, now),
		FailureRatePerYear: q.FailureRatePerYear,
		LastService:        lastService,
		ServiceInterval:    time.Duration(q.ServiceIntervalDays) * 24 * time.Hour,
	}
	risk30 := maintenance.FailureRisk(health.FailureRatePerYear, 30*24*time.Hour)
	risk90 := maintenance.FailureRisk(health.FailureRatePerYear, 90*24*time.Hour)
	next := maintenance.NextServiceDate(health)

	p := &MaintenancePrediction{
		EquipmentID:       equipmentID,
		HoursRun:          health.HoursRun,
		CurrentHealth:     score,
		FailureRisk30Days: round2(risk30 * 100),
		FailureRisk90Days: round2(risk90 * 100),
		NextServiceDate:   next,
		DaysUntilService:  int(next.Sub(now).Hours() / 24),
		Recommendation:    recommendation(risk30, score),
	}

	if risk30 > 0.5 || score < 75 {
		s.notify(ctx, p)
	}
	return p, nil
}

func hoursRun(installed, now time.Time) float64 {
	days := now.Sub(installed).Hours() / 24
	if days < 0 {
		return 0
	}
	return days * operatingHoursPerDay
}

func recommendation(risk, health float64) string {
	switch {
	case risk > 0.5 || health < 60:
		return "URGENT: Schedule immediate maintenance inspection"
	case risk > 0.3 || health < 75:
		return "Schedule maintenance within next 30 days"
	case risk > 0.15 || health < 85:
		return "Plan maintenance within next 90 days"
	}
	return "Equipment operating normally"
}

func (s *MaintenanceService) notify(ctx context.Context, p *MaintenancePrediction) {
	if s.alerts == nil {
		return
	}
	msg := fmt.Sprintf(
		"Equipment Maintenance Required\n\n"+
			"Equipment ID: %d\n"+
			"Current Health Score: %.2f%%\n"+
			"Failure Risk (30 days): %.2f%%\n"+
			"Predicted Maintenance Date: %s\n\n"+
			"Please schedule maintenance to prevent failures.",
		p.EquipmentID, p.CurrentHealth, p.FailureRisk30Days, p.NextServiceDate.Format("2006-01-02"),
	)
	if err := s.alerts.SendAlert(ctx, "Predictive Maintenance Alert", msg); err != nil {
		log.Error().Err(err).Int("equipment_id", p.EquipmentID).Msg("maintenance alert failed")
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
