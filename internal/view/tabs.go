package view

import "github.com/sakif/asynchire/internal/model"

// Tab is one section of the client dashboard.
type Tab string

const (
	TabOverview   Tab = "overview"
	TabJob        Tab = "job"
	TabIntake     Tab = "intake"
	TabCandidates Tab = "candidates"
	TabHistory    Tab = "history"
)

// TabSet is the visible tabs in display order plus the one opened by default.
type TabSet struct {
	Visible         []Tab `json:"visible"`
	Default         Tab   `json:"default"`
	CanCreateNewJob bool  `json:"can_create_new_job"`
}

// Has reports whether t is visible (and so selectable).
func (ts TabSet) Has(t Tab) bool {
	for _, v := range ts.Visible {
		if v == t {
			return true
		}
	}
	return false
}

// Select returns requested when it is visible and the default otherwise.
func (ts TabSet) Select(requested Tab) Tab {
	if ts.Has(requested) {
		return requested
	}
	return ts.Default
}

// Tabs derives the dashboard tabs from the profile's hiring status, the
// user's postings and the candidates of their current posting.
//
// Candidates shows once videos are ready (or a pick was made) and at least
// one candidate is ready or selected. History shows after a pick. The
// default tab follows the pipeline: History when Picked, Candidates when
// Videos Ready and visible, Overview otherwise.
func Tabs(profile *model.Profile, jobs []model.JobPosting, candidates []model.Candidate) TabSet {
	var status model.HiringStatus
	if profile != nil {
		status = profile.HiringStatus
	}

	ts := TabSet{
		Visible:         []Tab{TabOverview, TabJob},
		Default:         TabOverview,
		CanCreateNewJob: model.CanCreateNewJob(jobs),
	}
	if ts.CanCreateNewJob {
		ts.Visible = append(ts.Visible, TabIntake)
	}

	reviewable := status == model.StatusVideosReady || status == model.StatusPicked
	if reviewable && hasReviewable(candidates) {
		ts.Visible = append(ts.Visible, TabCandidates)
	}
	if status == model.StatusPicked {
		ts.Visible = append(ts.Visible, TabHistory)
	}

	switch {
	case status == model.StatusPicked:
		ts.Default = TabHistory
	case status == model.StatusVideosReady && ts.Has(TabCandidates):
		ts.Default = TabCandidates
	}
	return ts
}

func hasReviewable(candidates []model.Candidate) bool {
	for _, c := range candidates {
		if c.Status == model.CandidateReady || c.Status == model.CandidateSelected {
			return true
		}
	}
	return false
}
