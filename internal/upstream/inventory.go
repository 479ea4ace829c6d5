package upstream

import (
	"context"

	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/domain"
)

func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	if err := c.getJSON(ctx, "sparepart_categories", "/sparepart/categories", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SearchItems(ctx context.Context, search domain.ItemSearch) ([]domain.CriticalItem, error) {
	var out []domain.CriticalItem
	if err := c.postJSON(ctx, "sparepart_items", "/sparepart/items", search, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AnalyticsOverview(ctx context.Context) (*domain.AnalyticsOverview, error) {
	var out domain.AnalyticsOverview
	if err := c.getJSON(ctx, "sparepart_overview", "/sparepart/analytics/overview", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ValueSummary(ctx context.Context) (*domain.ValueSummary, error) {
	var out domain.ValueSummary
	if err := c.getJSON(ctx, "sparepart_value_summary", "/sparepart/analytics/value-summary", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
