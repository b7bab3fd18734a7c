package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/asynchire/internal/model"
	"github.com/sakif/asynchire/internal/repository"
)

var _ repository.MeetingRepository = (*DB)(nil)

func (db *DB) CreateMeeting(ctx context.Context, m *model.Meeting) error {
	m.ID = xid.New().String()
	m.CreatedAt = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO meetings (id, user_id, job_id, scheduled_date, time_slot, timezone, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.UserID, nullString(m.JobID), m.ScheduledDate, m.TimeSlot, m.Timezone, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting meeting for %s: %w", m.UserID, translate("meetings", err))
	}
	return nil
}

func (db *DB) ListMeetingsByUser(ctx context.Context, userID string) ([]model.Meeting, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, job_id, scheduled_date, time_slot, timezone, created_at
		 FROM meetings WHERE user_id = ?
		 ORDER BY scheduled_date, time_slot`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing meetings for %s: %w", userID, translate("meetings", err))
	}
	defer rows.Close()

	var meetings []model.Meeting
	for rows.Next() {
		var (
			m     model.Meeting
			jobID sql.NullString
		)
		if err := rows.Scan(&m.ID, &m.UserID, &jobID, &m.ScheduledDate, &m.TimeSlot,
			&m.Timezone, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning meeting row: %w", err)
		}
		if jobID.Valid {
			m.JobID = &jobID.String
		}
		meetings = append(meetings, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating meetings: %w", err)
	}
	return meetings, nil
}
