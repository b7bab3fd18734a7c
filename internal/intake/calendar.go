package intake

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Day is one cell of the month grid.
type Day struct {
	Date       string `json:"date"`
	Day        int    `json:"day"`
	Today      bool   `json:"today"`
	Selectable bool   `json:"selectable"`
}

// Month is the date picker's view of the current month.
//
// PrevEnabled and NextEnabled are always false: the picker only ever shows
// the current month.
type Month struct {
	Year          int    `json:"year"`
	Month         string `json:"month"`
	LeadingBlanks int    `json:"leading_blanks"`
	Days          []Day  `json:"days"`
	PrevEnabled   bool   `json:"prev_enabled"`
	NextEnabled   bool   `json:"next_enabled"`
}

// Calendar builds the grid for the month containing now. A day is
// selectable when it is today or later. LeadingBlanks is the weekday of the
// 1st (Sunday = 0), for laying out a Sunday-first grid.
func Calendar(now time.Time) Month {
	y, m, today := now.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, now.Location())
	daysIn := first.AddDate(0, 1, -1).Day()

	month := Month{
		Year:          y,
		Month:         m.String(),
		LeadingBlanks: int(first.Weekday()),
		Days:          make([]Day, 0, daysIn),
	}
	for d := 1; d <= daysIn; d++ {
		month.Days = append(month.Days, Day{
			Date:       time.Date(y, m, d, 0, 0, 0, 0, now.Location()).Format(dateLayout),
			Day:        d,
			Today:      d == today,
			Selectable: d >= today,
		})
	}
	return month
}

// Selectable reports whether date (YYYY-MM-DD) can be picked on the
// calendar shown at now.
func Selectable(date string, now time.Time) bool {
	t, err := time.ParseInLocation(dateLayout, date, now.Location())
	if err != nil {
		return false
	}
	y, m, d := now.Date()
	ty, tm, td := t.Date()
	return ty == y && tm == m && td >= d
}

// TimeSlots returns the bookable kickoff times: every half hour from 09:00
// to 17:00 inclusive.
func TimeSlots() []string {
	slots := make([]string, 0, 17)
	for minutes := 9 * 60; minutes <= 17*60; minutes += 30 {
		slots = append(slots, fmt.Sprintf("%02d:%02d", minutes/60, minutes%60))
	}
	return slots
}
