package sqlite

import (
	"context"
	"fmt"

	"github.com/sakif/asynchire/internal/model"
	"github.com/sakif/asynchire/internal/repository"
)

var _ repository.StatsRepository = (*DB)(nil)

// AdminDashboardStats is the local rendition of the admin_dashboard_stats
// stored procedure.
func (db *DB) AdminDashboardStats(ctx context.Context) (*model.AdminStats, error) {
	var stats model.AdminStats
	err := db.conn.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM user_profiles WHERE role = ?),
			(SELECT COUNT(*) FROM job_postings  WHERE status = ?),
			(SELECT COUNT(*) FROM candidates),
			(SELECT COUNT(*) FROM candidates    WHERE status = ?)`,
		string(model.RoleClient), string(model.JobActive), string(model.CandidateSelected),
	).Scan(&stats.TotalClients, &stats.ActiveJobs, &stats.TotalCandidates, &stats.SelectedCandidates)
	if err != nil {
		return nil, fmt.Errorf("sqlite: rpc admin_dashboard_stats: %w", translate("user_profiles", err))
	}
	return &stats, nil
}

// HiringStatusBreakdown is the local rendition of the hiring_status_breakdown
// stored procedure. Every status appears, including those with zero clients,
// in pipeline order.
func (db *DB) HiringStatusBreakdown(ctx context.Context) ([]model.HiringStatusCount, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT hiring_status, COUNT(*) FROM user_profiles
		 WHERE role = ?
		 GROUP BY hiring_status`,
		string(model.RoleClient),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: rpc hiring_status_breakdown: %w", translate("user_profiles", err))
	}
	defer rows.Close()

	counts := make(map[model.HiringStatus]int, len(model.HiringStatuses))
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("sqlite: scanning breakdown row: %w", err)
		}
		counts[model.HiringStatus(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating breakdown: %w", err)
	}

	breakdown := make([]model.HiringStatusCount, 0, len(model.HiringStatuses))
	for _, s := range model.HiringStatuses {
		breakdown = append(breakdown, model.HiringStatusCount{Status: s, Count: counts[s]})
	}
	return breakdown, nil
}
