package intake

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sakif/asynchire/internal/apperror"
)

// Step indexes the wizard's pages.
type Step int

const (
	StepCompanyRole Step = iota
	StepRequirements
	StepChallengesTeam
	StepSchedule
)

// StepNames are the page titles, indexed by Step.
var StepNames = [...]string{
	StepCompanyRole:    "Company & Role",
	StepRequirements:   "Requirements",
	StepChallengesTeam: "Challenges & Team",
	StepSchedule:       "Schedule",
}

const lastStep = StepSchedule

func (s Step) String() string {
	if s < 0 || s > lastStep {
		return "unknown"
	}
	return StepNames[s]
}

// View is the wizard state a page renders.
type View struct {
	Step             Step     `json:"step"`
	StepName         string   `json:"step_name"`
	Steps            []string `json:"steps"`
	Form             Form     `json:"form"`
	Calendar         Month    `json:"calendar"`
	TimeSlots        []string `json:"time_slots"`
	LanguageOptions  []string `json:"language_options"`
	ChallengeOptions []string `json:"challenge_options"`
}

// Wizard is one browser's in-progress intake. It is safe for concurrent use.
//
// Next and Back never validate: any field may be empty when moving on.
type Wizard struct {
	now func() time.Time

	mu    sync.Mutex
	owner string
	step  Step
	form  Form
}

func NewWizard() *Wizard {
	return &Wizard{now: time.Now}
}

func (w *Wizard) Next() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step < lastStep {
		w.step++
	}
	return w.step
}

func (w *Wizard) Back() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step > StepCompanyRole {
		w.step--
	}
	return w.step
}

func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// Form returns a copy of the answers so far.
func (w *Wizard) Form() Form {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.form.clone()
}

// View snapshots the wizard together with the calendar for today.
func (w *Wizard) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()

	steps := make([]string, len(StepNames))
	copy(steps, StepNames[:])
	return View{
		Step:             w.step,
		StepName:         w.step.String(),
		Steps:            steps,
		Form:             w.form.clone(),
		Calendar:         Calendar(w.now()),
		TimeSlots:        TimeSlots(),
		LanguageOptions:  LanguageOptions,
		ChallengeOptions: ChallengeOptions,
	}
}

// SetFields assigns text answers by their JSON name. Either every value is
// applied or, on the first bad one, none is.
func (w *Wizard) SetFields(values map[string]string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	f := w.form.clone()
	for name, v := range values {
		if err := w.setField(&f, name, v); err != nil {
			return err
		}
	}
	w.form = f
	return nil
}

func (w *Wizard) setField(f *Form, name, v string) error {
	switch name {
	case "company_name":
		f.CompanyRole.CompanyName = v
	case "job_title":
		f.CompanyRole.JobTitle = v
	case "department":
		f.CompanyRole.Department = v
	case "employment_type":
		f.CompanyRole.EmploymentType = v
	case "location":
		f.CompanyRole.Location = v
	case "remote_policy":
		f.CompanyRole.RemotePolicy = v
	case "experience_level":
		f.Requirements.ExperienceLevel = v
	case "skills":
		f.Requirements.Skills = v
	case "salary_min", "salary_max":
		n, err := parseSalary(name, v)
		if err != nil {
			return err
		}
		if name == "salary_min" {
			f.Requirements.SalaryMin = n
		} else {
			f.Requirements.SalaryMax = n
		}
	case "team_size":
		f.ChallengesTeam.TeamSize = v
	case "description":
		f.ChallengesTeam.Description = v
	case "date":
		if v != "" && !Selectable(v, w.now()) {
			return apperror.ValidationFailed(name, "date must be today or later this month")
		}
		f.Schedule.Date = v
	case "time_slot":
		if v != "" && !contains(TimeSlots(), v) {
			return apperror.ValidationFailed(name, "time slot must be a half hour between 09:00 and 17:00")
		}
		f.Schedule.TimeSlot = v
	case "timezone":
		f.Schedule.Timezone = v
	case "contact_notes":
		f.Schedule.ContactNotes = v
	default:
		return apperror.ValidationFailed(name, "unknown intake field "+strconv.Quote(name))
	}
	return nil
}

func parseSalary(field, v string) (int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, apperror.ValidationFailed(field, "salary must be a whole, non-negative number")
	}
	return n, nil
}

// ToggleLanguage adds or removes one language. Toggling twice restores the
// list.
func (w *Wizard) ToggleLanguage(lang string) error {
	if !contains(LanguageOptions, lang) {
		return apperror.ValidationFailed("languages", "unknown language "+strconv.Quote(lang))
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.form.Requirements.Languages = toggle(w.form.Requirements.Languages, lang)
	return nil
}

func (w *Wizard) ToggleChallenge(challenge string) error {
	if !contains(ChallengeOptions, challenge) {
		return apperror.ValidationFailed("challenges", "unknown challenge "+strconv.Quote(challenge))
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.form.ChallengesTeam.Challenges = toggle(w.form.ChallengesTeam.Challenges, challenge)
	return nil
}

// Claim makes userID the owner of the draft. A draft started by someone else
// is discarded first, so a browser that switches user never shows the
// previous user's answers.
func (w *Wizard) Claim(userID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.owner == userID {
		return
	}
	w.owner = userID
	w.step = StepCompanyRole
	w.form = Form{}
}

// Reset clears the answers and returns to step 1.
func (w *Wizard) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.step = StepCompanyRole
	w.form = Form{}
}
