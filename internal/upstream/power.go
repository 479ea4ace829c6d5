package upstream

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"

	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/domain"
)

// ReportQuery selects one owner's readings. Dates are YYYY-MM-DD and are
// left out of the form when empty.
type ReportQuery struct {
	OwnerID   string
	StartDate string
	EndDate   string
}

type reportEnvelope struct {
	Result []domain.PowerReading `json:"result"`
}

// PowerReport posts the query as multipart form data and returns the raw
// readings in the order the API sent them.
func (c *Client) PowerReport(ctx context.Context, q ReportQuery) ([]domain.PowerReading, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	fields := [][2]string{{"owner_id", q.OwnerID}, {"start_date", q.StartDate}, {"end_date", q.EndDate}}
	for i, f := range fields {
		if i > 0 && f[1] == "" {
			continue
		}
		if err := form.WriteField(f[0], f[1]); err != nil {
			return nil, err
		}
	}
	if err := form.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.reportPath, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	b, err := c.do("power_report", req)
	if err != nil {
		return nil, err
	}
	var env reportEnvelope
	if err := decode("power_report", b, &env); err != nil {
		return nil, err
	}
	if env.Result == nil {
		return []domain.PowerReading{}, nil
	}
	return env.Result, nil
}
