package model

// AdminStats is the result of the admin_dashboard_stats procedure.
type AdminStats struct {
	TotalClients       int `json:"total_clients"`
	ActiveJobs         int `json:"active_jobs"`
	TotalCandidates    int `json:"total_candidates"`
	SelectedCandidates int `json:"selected_candidates"`
}

// HiringStatusCount is one row of the hiring_status_breakdown procedure.
type HiringStatusCount struct {
	Status HiringStatus `json:"status"`
	Count  int          `json:"count"`
}

// ClientOverview is what the admin view lists per client.
type ClientOverview struct {
	Profile   Profile     `json:"profile"`
	ActiveJob *JobPosting `json:"active_job,omitempty"`
}
