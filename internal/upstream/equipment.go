package upstream

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/domain"
)

// Locations lists the children of parentID, or the top level when parentID
// is 0.
func (c *Client) Locations(ctx context.Context, parentID int) ([]domain.Location, error) {
	var params url.Values
	if parentID != 0 {
		params = url.Values{"parent_id": {strconv.Itoa(parentID)}}
	}
	var out []domain.Location
	if err := c.getJSON(ctx, "locations", "/api/locations", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// EquipmentTree returns the equipment tree of a location, already nested by
// the API.
func (c *Client) EquipmentTree(ctx context.Context, locationID int) ([]domain.EquipmentNode, error) {
	params := url.Values{"location_id": {strconv.Itoa(locationID)}}
	var out []domain.EquipmentNode
	if err := c.getJSON(ctx, "equipment", "/api/equipment", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) LogEquipmentEvent(ctx context.Context, equipmentID int, entry domain.EquipmentLog) error {
	path := fmt.Sprintf("/equipment/%d/log_failure", equipmentID)
	return c.postJSON(ctx, "equipment_log", path, entry, nil)
}
