package domain

import "time"

// ProjectStatus is the lifecycle state of an investment project.
type ProjectStatus string

// Project status constants.
const (
	ProjectStatusDraft     ProjectStatus = "DRAFT"
	ProjectStatusFunding   ProjectStatus = "FUNDING"
	ProjectStatusActive    ProjectStatus = "ACTIVE"
	ProjectStatusCompleted ProjectStatus = "COMPLETED"
	ProjectStatusCancelled ProjectStatus = "CANCELLED"
)

// statusTransitions is the authoritative client-side transition table.
// COMPLETED and CANCELLED are terminal. The core API remains the real
// enforcer; this table only gates what the dashboard offers.
var statusTransitions = map[ProjectStatus][]ProjectStatus{
	ProjectStatusDraft:     {ProjectStatusFunding, ProjectStatusCancelled},
	ProjectStatusFunding:   {ProjectStatusActive, ProjectStatusCancelled},
	ProjectStatusActive:    {ProjectStatusCompleted, ProjectStatusCancelled},
	ProjectStatusCompleted: {},
	ProjectStatusCancelled: {},
}

// LegalTransitions returns the set of statuses the given status may move to.
// The result is a copy; it is empty (never nil) for terminal or unknown
// statuses.
func LegalTransitions(from ProjectStatus) []ProjectStatus {
	next := statusTransitions[from]
	out := make([]ProjectStatus, len(next))
	copy(out, next)
	return out
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to ProjectStatus) bool {
	for _, s := range statusTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition is ever offered out of the status.
func (s ProjectStatus) IsTerminal() bool {
	return len(statusTransitions[s]) == 0 && s.Valid()
}

// Valid reports whether the value is a known project status.
func (s ProjectStatus) Valid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// ValidProjectStatuses returns all known project statuses in lifecycle order.
func ValidProjectStatuses() []ProjectStatus {
	return []ProjectStatus{
		ProjectStatusDraft,
		ProjectStatusFunding,
		ProjectStatusActive,
		ProjectStatusCompleted,
		ProjectStatusCancelled,
	}
}

// Project is a tokenized real-estate investment project. Field names mirror
// the core API wire format.
type Project struct {
	ID                string         `json:"id"`
	Name              string         `json:"name"`
	Slug              string         `json:"slug"`
	Description       string         `json:"description"`
	Location          string         `json:"location"`
	Images            []string       `json:"images"`
	Documents         []string       `json:"documents"`
	TokenPrice        float64        `json:"tokenPrice"`
	TotalTokens       int64          `json:"totalTokens"`
	TokensSold        int64          `json:"tokensSold"`
	MinInvestment     float64        `json:"minInvestment"`
	MaxInvestment     *float64       `json:"maxInvestment,omitempty"`
	ExpectedReturn    float64        `json:"expectedReturn"`
	ExpectedReturnMax *float64       `json:"expectedReturnMax,omitempty"`
	ProjectValue      float64        `json:"projectValue"`
	Status            ProjectStatus  `json:"status"`
	StartDate         *time.Time     `json:"startDate,omitempty"`
	EndDate           *time.Time     `json:"endDate,omitempty"`
	Metadata          map[string]any `json:"metadata,omitempty"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
}

// RaisedAmount is the capital raised so far (tokenPrice × tokensSold).
// tokensSold ≤ totalTokens is enforced server-side; the client trusts it.
func (p *Project) RaisedAmount() float64 {
	return p.TokenPrice * float64(p.TokensSold)
}

// TargetAmount is the full raise target (tokenPrice × totalTokens).
func (p *Project) TargetAmount() float64 {
	return p.TokenPrice * float64(p.TotalTokens)
}
