package satoru

import (
	"context"
	"net/http"

	"github.com/antoniojosev/crm-satoru/internal/domain"
)

// DashboardStats fetches the aggregate platform snapshot for the dashboard
// home page.
func (c *Client) DashboardStats(ctx context.Context, sessionID string) (*domain.DashboardStats, error) {
	var stats domain.DashboardStats
	err := c.send(ctx, "dashboard.stats", sessionID, c.jsonRequest(http.MethodGet, "/dashboard/stats", nil), &stats)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
