package domain

import "time"

// Activity is a recent platform event surfaced on the dashboard home.
type Activity struct {
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

// DashboardStats is the aggregate snapshot shown on the dashboard home.
// Field names mirror the core API wire format.
type DashboardStats struct {
	TotalProjects    int        `json:"totalProjects"`
	ActiveProjects   int        `json:"activeProjects"`
	TotalInvestors   int        `json:"totalInvestors"`
	PendingKyc       int        `json:"pendingKyc"`
	TotalRaised      float64    `json:"totalRaised"`
	TotalTokensSold  int64      `json:"totalTokensSold"`
	MonthlyGrowth    float64    `json:"monthlyGrowth,omitempty"`
	RecentActivities []Activity `json:"recentActivities,omitempty"`
}
