// Package intake is the four-step job intake wizard: the form state a client
// fills in, the calendar they pick a kickoff call from, and the submission
// that turns it into a job posting.
package intake

import (
	"strings"

	"github.com/sakif/asynchire/internal/model"
)

// LanguageOptions and ChallengeOptions are the choices offered by the two
// multi-select fields.
var (
	LanguageOptions = []string{
		"Go", "Python", "JavaScript", "TypeScript", "Java", "C#", "Ruby", "Rust", "Kotlin", "Swift", "PHP", "SQL",
	}
	ChallengeOptions = []string{
		"Scaling infrastructure",
		"Shipping faster",
		"Improving code quality",
		"Building a new product",
		"Data and analytics",
		"Security and compliance",
		"Mentoring the team",
	}
)

// CompanyRole is step 1.
type CompanyRole struct {
	CompanyName    string `json:"company_name"`
	JobTitle       string `json:"job_title"`
	Department     string `json:"department"`
	EmploymentType string `json:"employment_type"`
	Location       string `json:"location"`
	RemotePolicy   string `json:"remote_policy"`
}

// Requirements is step 2.
type Requirements struct {
	ExperienceLevel string   `json:"experience_level"`
	Languages       []string `json:"languages"`
	Skills          string   `json:"skills"`
	SalaryMin       int      `json:"salary_min"`
	SalaryMax       int      `json:"salary_max"`
}

// ChallengesTeam is step 3.
type ChallengesTeam struct {
	Challenges  []string `json:"challenges"`
	TeamSize    string   `json:"team_size"`
	Description string   `json:"description"`
}

// Schedule is step 4. Date is YYYY-MM-DD and TimeSlot is HH:MM; both empty
// means no kickoff call was booked.
type Schedule struct {
	Date         string `json:"date"`
	TimeSlot     string `json:"time_slot"`
	Timezone     string `json:"timezone"`
	ContactNotes string `json:"contact_notes"`
}

// Form holds every answer. Each step owns exactly one of the four slices.
type Form struct {
	CompanyRole    CompanyRole    `json:"company_role"`
	Requirements   Requirements   `json:"requirements"`
	ChallengesTeam ChallengesTeam `json:"challenges_team"`
	Schedule       Schedule       `json:"schedule"`
}

// HasMeeting reports whether both a date and a time were chosen.
func (f Form) HasMeeting() bool {
	return f.Schedule.Date != "" && f.Schedule.TimeSlot != ""
}

// Payload flattens the form into the job posting that gets inserted.
func (f Form) Payload(userID string) *model.JobPosting {
	return &model.JobPosting{
		UserID: userID,
		Status: model.JobActive,

		CompanyName:    strings.TrimSpace(f.CompanyRole.CompanyName),
		JobTitle:       strings.TrimSpace(f.CompanyRole.JobTitle),
		Department:     f.CompanyRole.Department,
		EmploymentType: f.CompanyRole.EmploymentType,
		Location:       f.CompanyRole.Location,
		RemotePolicy:   f.CompanyRole.RemotePolicy,

		ExperienceLevel: f.Requirements.ExperienceLevel,
		Languages:       cloneList(f.Requirements.Languages),
		Skills:          f.Requirements.Skills,
		SalaryMin:       f.Requirements.SalaryMin,
		SalaryMax:       f.Requirements.SalaryMax,

		Challenges:  cloneList(f.ChallengesTeam.Challenges),
		TeamSize:    f.ChallengesTeam.TeamSize,
		Description: f.ChallengesTeam.Description,

		Timezone:     f.Schedule.Timezone,
		ContactNotes: f.Schedule.ContactNotes,
	}
}

// clone returns a deep copy so callers can't mutate the wizard's lists.
func (f Form) clone() Form {
	f.Requirements.Languages = cloneList(f.Requirements.Languages)
	f.ChallengesTeam.Challenges = cloneList(f.ChallengesTeam.Challenges)
	return f
}

// toggle adds v when absent and removes it when present.
func toggle(list []string, v string) []string {
	for i, item := range list {
		if item == v {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return append(list, v)
}

func cloneList(list []string) []string {
	if list == nil {
		return nil
	}
	out := make([]string, len(list))
	copy(out, list)
	return out
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
