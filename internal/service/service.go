// Package service holds the hub's use cases: power reports, spare parts,
// equipment logs and maintenance outlooks.
package service

import (
	"time"

	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/upstream"
)

type Services struct {
	Power       *PowerService
	SpareParts  *SparePartService
	Equipment   *EquipmentService
	Maintenance *MaintenanceService
}

// New wires every service against the plant API client. Optional backends
// (live feed, archive, exporter) are attached to Power by the caller.
func New(client *upstream.Client, alerts Notifier, loc *time.Location) *Services {
	return &Services{
		Power:       NewPowerService(client, loc),
		SpareParts:  NewSparePartService(client),
		Equipment:   NewEquipmentService(client),
		Maintenance: NewMaintenanceService(alerts, loc),
	}
}
