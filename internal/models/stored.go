// internal/models/stored.go
package models

import "time"

// ApplicationStatus is the admin-facing state of a stored application.
type ApplicationStatus string

const (
	StatusPending  ApplicationStatus = "pending"
	StatusApproved ApplicationStatus = "approved"
	StatusRejected ApplicationStatus = "rejected"
)

// StoredApplication is a persisted terminal outcome.
type StoredApplication struct {
	ID              string            `json:"id"`
	Data            ApplicationRecord `json:"data"`
	Status          ApplicationStatus `json:"status"`
	Sanction        *SanctionRecord   `json:"sanctionData,omitempty"`
	RejectionReason string            `json:"rejectionReason,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

// Clone returns a copy that shares no pointers with a.
func (a StoredApplication) Clone() StoredApplication {
	a.Data = a.Data.Clone()
	if a.Sanction != nil {
		s := *a.Sanction
		a.Sanction = &s
	}
	return a
}

// DashboardStats summarises stored applications for the admin view.
type DashboardStats struct {
	Total    int `json:"total"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	Pending  int `json:"pending"`
}

// NewDashboardStats counts applications by status.
func NewDashboardStats(apps []StoredApplication) DashboardStats {
	stats := DashboardStats{Total: len(apps)}
	for _, app := range apps {
		switch app.Status {
		case StatusApproved:
			stats.Approved++
		case StatusRejected:
			stats.Rejected++
		case StatusPending:
			stats.Pending++
		}
	}
	return stats
}

// Percent returns n as a whole-number share of the total.
func (s DashboardStats) Percent(n int) int {
	if s.Total == 0 {
		return 0
	}
	return int(float64(n)/float64(s.Total)*100 + 0.5)
}
