package domain

// Stock statuses reported by the spare-part API.
const (
	StockSafe    = "SAFE"
	StockCaution = "CAUTION"
	StockBelow   = "BELOW"
)

var StockStatuses = []string{StockSafe, StockCaution, StockBelow}

type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type CriticalItem struct {
	MaterialID   string  `json:"material_id"`
	ShortDesc    string  `json:"short_desc"`
	LongDesc     string  `json:"long_desc,omitempty"`
	CategoryName string  `json:"category_name"`
	MinStock     float64 `json:"min_stock"`
	CurrentStock float64 `json:"current_stock"`
	StockStatus  string  `json:"stock_status"`
	Price        float64 `json:"price"`
	Status       string  `json:"status,omitempty"`
	Location     string  `json:"location,omitempty"`
}

// ItemSearch is the body of the spare-part search call. Empty criteria are
// omitted so the API treats them as "any".
type ItemSearch struct {
	SearchText    string   `json:"search_text,omitempty"`
	CategoryIDs   []int    `json:"category_ids,omitempty"`
	StockStatuses []string `json:"stock_statuses,omitempty"`
}

type CategoryStatusSummary struct {
	CategoryName string `json:"category_name"`
	SafeCount    int    `json:"safe_count"`
	CautionCount int    `json:"caution_count"`
	BelowCount   int    `json:"below_count"`
	TotalItems   int    `json:"total_items"`
}

type AnalyticsOverview struct {
	TotalItems   int                     `json:"total_items"`
	TotalSafe    int                     `json:"total_safe"`
	TotalCaution int                     `json:"total_caution"`
	TotalBelow   int                     `json:"total_below"`
	ByCategory   []CategoryStatusSummary `json:"by_category"`
}

type CategoryValue struct {
	CategoryName string  `json:"category_name"`
	TotalValue   float64 `json:"total_value"`
}

type ValueSummary struct {
	GrandTotalValue float64         `json:"grand_total_value"`
	ByCategory      []CategoryValue `json:"by_category"`
}
