package service

import (
	"context"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/domain"
	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/validation"
)

const (
	Uncategorized = "UNCATEGORIZED"

	defaultPageLimit = 20
)

type InventorySource interface {
	Categories(ctx context.Context) ([]domain.Category, error)
	SearchItems(ctx context.Context, search domain.ItemSearch) ([]domain.CriticalItem, error)
	AnalyticsOverview(ctx context.Context) (*domain.AnalyticsOverview, error)
	ValueSummary(ctx context.Context) (*domain.ValueSummary, error)
}

type CategoryGroup struct {
	Type       string            `json:"type"`
	Categories []domain.Category `json:"categories"`
}

// ItemQuery is a spare-part search with paging.
type ItemQuery struct {
	SearchText    string   `json:"search_text"`
	CategoryIDs   []int    `json:"category_ids"`
	StockStatuses []string `json:"stock_statuses" validate:"omitempty,dive,oneof=SAFE CAUTION BELOW"`
	Page          int      `json:"page" validate:"min=0"`
	Limit         int      `json:"limit" validate:"min=0,max=500"`
}

type ItemPage struct {
	Items      []domain.CriticalItem `json:"items"`
	Page       int                   `json:"page"`
	Limit      int                   `json:"limit"`
	Total      int                   `json:"total"`
	TotalPages int                   `json:"total_pages"`
}

// DashboardFilter narrows the analytics dashboard. Empty means everything.
type DashboardFilter struct {
	CategoryIDs []int    `json:"category_ids"`
	Statuses    []string `json:"statuses" validate:"omitempty,dive,oneof=SAFE CAUTION BELOW"`
}

type StatusSlice struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type Dashboard struct {
	TotalItems   int                            `json:"total_items"`
	TotalSafe    int                            `json:"total_safe"`
	TotalCaution int                            `json:"total_caution"`
	TotalBelow   int                            `json:"total_below"`
	ByCategory   []domain.CategoryStatusSummary `json:"by_category"`
	ValueByCat   []domain.CategoryValue         `json:"value_by_category"`
	StatusChart  []StatusSlice                  `json:"status_chart"`
}

type SparePartService struct {
	source InventorySource
}

func NewSparePartService(source InventorySource) *SparePartService {
	return &SparePartService{source: source}
}

func (s *SparePartService) Categories(ctx context.Context) ([]domain.Category, error) {
	return s.source.Categories(ctx)
}

// GroupedCategories groups categories by type, keeping the order in which
// each type first appears.
func (s *SparePartService) GroupedCategories(ctx context.Context) ([]CategoryGroup, error) {
	cats, err := s.source.Categories(ctx)
	if err != nil {
		return nil, err
	}
	return GroupCategories(cats), nil
}

func GroupCategories(cats []domain.Category) []CategoryGroup {
	groups := make([]CategoryGroup, 0)
	index := make(map[string]int)
	for _, c := range cats {
		t := c.Type
		if t == "" {
			t = Uncategorized
		}
		i, ok := index[t]
		if !ok {
			i = len(groups)
			index[t] = i
			groups = append(groups, CategoryGroup{Type: t})
		}
		groups[i].Categories = append(groups[i].Categories, c)
	}
	return groups
}

// SearchItems runs the search and returns the requested page of results.
func (s *SparePartService) SearchItems(ctx context.Context, q ItemQuery) (*ItemPage, error) {
	q.StockStatuses = upperAll(q.StockStatuses)
	if err := validation.Struct(&q); err != nil {
		return nil, err
	}
	items, err := s.source.SearchItems(ctx, normalizeSearch(q))
	if err != nil {
		return nil, err
	}
	return Paginate(items, q.Page, q.Limit), nil
}

func normalizeSearch(q ItemQuery) domain.ItemSearch {
	search := domain.ItemSearch{SearchText: strings.TrimSpace(q.SearchText)}
	if len(q.CategoryIDs) > 0 {
		search.CategoryIDs = q.CategoryIDs
	}
	if len(q.StockStatuses) > 0 {
		search.StockStatuses = q.StockStatuses
	}
	return search
}

// Paginate slices items into 1-based pages. A page past the end is empty.
func Paginate(items []domain.CriticalItem, page, limit int) *ItemPage {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if page <= 0 {
		page = 1
	}
	total := len(items)
	p := &ItemPage{
		Items:      []domain.CriticalItem{},
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: (total + limit - 1) / limit,
	}
	start := (page - 1) * limit
	if start < total {
		p.Items = items[start:min(start+limit, total)]
	}
	return p
}

// Dashboard fetches the overview and value summary together and applies f.
func (s *SparePartService) Dashboard(ctx context.Context, f DashboardFilter) (*Dashboard, error) {
	f.Statuses = upperAll(f.Statuses)
	if err := validation.Struct(&f); err != nil {
		return nil, err
	}

	var (
		overview *domain.AnalyticsOverview
		values   *domain.ValueSummary
		cats     []domain.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		overview, err = s.source.AnalyticsOverview(gctx)
		return err
	})
	g.Go(func() (err error) {
		values, err = s.source.ValueSummary(gctx)
		return err
	})
	if len(f.CategoryIDs) > 0 {
		g.Go(func() (err error) {
			cats, err = s.source.Categories(gctx)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return FilterDashboard(overview, values, cats, f), nil
}

// FilterDashboard narrows analytics to the selected categories and zeroes
// the totals of statuses that were not selected.
func FilterDashboard(overview *domain.AnalyticsOverview, values *domain.ValueSummary, cats []domain.Category, f DashboardFilter) *Dashboard {
	names := make(map[string]bool)
	for _, c := range cats {
		if slices.Contains(f.CategoryIDs, c.ID) {
			names[c.Name] = true
		}
	}
	byCat := overview.ByCategory
	valueByCat := values.ByCategory
	if len(names) > 0 {
		byCat = slices.DeleteFunc(slices.Clone(byCat), func(c domain.CategoryStatusSummary) bool { return !names[c.CategoryName] })
		valueByCat = slices.DeleteFunc(slices.Clone(valueByCat), func(c domain.CategoryValue) bool { return !names[c.CategoryName] })
	}

	d := &Dashboard{ByCategory: byCat, ValueByCat: valueByCat}
	if d.ByCategory == nil {
		d.ByCategory = []domain.CategoryStatusSummary{}
	}
	if d.ValueByCat == nil {
		d.ValueByCat = []domain.CategoryValue{}
	}
	for _, c := range byCat {
		d.TotalSafe += c.SafeCount
		d.TotalCaution += c.CautionCount
		d.TotalBelow += c.BelowCount
	}
	selected := func(status string) bool {
		return len(f.Statuses) == 0 || slices.Contains(f.Statuses, status)
	}
	if !selected(domain.StockSafe) {
		d.TotalSafe = 0
	}
	if !selected(domain.StockCaution) {
		d.TotalCaution = 0
	}
	if !selected(domain.StockBelow) {
		d.TotalBelow = 0
	}
	d.TotalItems = d.TotalSafe + d.TotalCaution + d.TotalBelow

	d.StatusChart = make([]StatusSlice, 0, 3)
	for _, sl := range []StatusSlice{{"Safe", d.TotalSafe}, {"Caution", d.TotalCaution}, {"Below", d.TotalBelow}} {
		if sl.Value > 0 {
			d.StatusChart = append(d.StatusChart, sl)
		}
	}
	return d
}

func upperAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
