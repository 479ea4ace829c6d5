package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/domain"
	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/validation"
)

var ErrEquipmentRequired = errors.New("equipment id is required")

type EquipmentSource interface {
	Locations(ctx context.Context, parentID int) ([]domain.Location, error)
	EquipmentTree(ctx context.Context, locationID int) ([]domain.EquipmentNode, error)
	LogEquipmentEvent(ctx context.Context, equipmentID int, entry domain.EquipmentLog) error
}

// LocationLevel is one step of the location drill-down. Final is set when
// the parent has no children, which makes the parent the chosen location.
type LocationLevel struct {
	ParentID  int               `json:"parent_id"`
	Locations []domain.Location `json:"locations"`
	Final     bool              `json:"final"`
}

// LogRequest is the equipment event form.
type LogRequest struct {
	Notes     string `json:"notes" validate:"notblank"`
	LogType   string `json:"log_type" validate:"required,oneof=FAILURE REPAIR REPLACEMENT"`
	EventDate string `json:"event_date" validate:"required,datetime=2006-01-02"`
	EventTime string `json:"event_time" validate:"required,datetime=15:04"`
}

type EquipmentService struct {
	source EquipmentSource
}

func NewEquipmentService(source EquipmentSource) *EquipmentService {
	return &EquipmentService{source: source}
}

func (s *EquipmentService) Locations(ctx context.Context, parentID int) (*LocationLevel, error) {
	locs, err := s.source.Locations(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if locs == nil {
		locs = []domain.Location{}
	}
	return &LocationLevel{
		ParentID:  parentID,
		Locations: locs,
		Final:     parentID != 0 && len(locs) == 0,
	}, nil
}

func (s *EquipmentService) Tree(ctx context.Context, locationID int) ([]domain.EquipmentNode, error) {
	nodes, err := s.source.EquipmentTree(ctx, locationID)
	if err != nil {
		return nil, err
	}
	if nodes == nil {
		nodes = []domain.EquipmentNode{}
	}
	return nodes, nil
}

// LogEvent validates req and submits it against equipmentID.
func (s *EquipmentService) LogEvent(ctx context.Context, equipmentID int, req LogRequest) (*domain.EquipmentLog, error) {
	if equipmentID <= 0 {
		return nil, ErrEquipmentRequired
	}
	req.LogType = strings.ToUpper(strings.TrimSpace(req.LogType))
	req.EventDate = strings.TrimSpace(req.EventDate)
	req.EventTime = strings.TrimSpace(req.EventTime)
	if err := validation.Struct(&req); err != nil {
		return nil, err
	}
	// "8:30" passes the layout check; store it zero padded.
	clock, _ := time.Parse("15:04", req.EventTime)
	entry := domain.EquipmentLog{
		Notes:          strings.TrimSpace(req.Notes),
		LogType:        req.LogType,
		EventTimestamp: req.EventDate + "T" + clock.Format("15:04") + ":00",
	}
	if err := s.source.LogEquipmentEvent(ctx, equipmentID, entry); err != nil {
		return nil, err
	}
	log.Info().Int("equipment_id", equipmentID).Str("log_type", entry.LogType).Str("event_timestamp", entry.EventTimestamp).Msg("equipment event logged")
	return &entry, nil
}
