package model

import "time"

// JobStatus tracks a posting through one hiring cycle.
type JobStatus string

const (
	JobActive JobStatus = "active"
	JobFilled JobStatus = "filled"
	JobClosed JobStatus = "closed"
)

// JobPosting carries the answers from the intake wizard.
//
// A user has at most one active posting at a time; JobService enforces it.
type JobPosting struct {
	ID     string    `json:"id"`
	UserID string    `json:"user_id"`
	Status JobStatus `json:"status"`

	// Step 1: company & role
	CompanyName    string `json:"company_name"`
	JobTitle       string `json:"job_title"`
	Department     string `json:"department"`
	EmploymentType string `json:"employment_type"`
	Location       string `json:"location"`
	RemotePolicy   string `json:"remote_policy"`

	// Step 2: requirements
	ExperienceLevel string   `json:"experience_level"`
	Languages       []string `json:"languages"`
	Skills          string   `json:"skills"`
	SalaryMin       int      `json:"salary_min"`
	SalaryMax       int      `json:"salary_max"`

	// Step 3: challenges & team
	Challenges  []string `json:"challenges"`
	TeamSize    string   `json:"team_size"`
	Description string   `json:"description"`

	// Step 4: schedule
	Timezone     string `json:"timezone"`
	ContactNotes string `json:"contact_notes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CanCreateNewJob reports whether none of jobs is still active.
func CanCreateNewJob(jobs []JobPosting) bool {
	for _, j := range jobs {
		if j.Status == JobActive {
			return false
		}
	}
	return true
}
