package models

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type sqlStatsRepo struct{ store }

func NewSQLStatsRepository(db *sql.DB, timeout time.Duration) StatsRepository {
	return &sqlStatsRepo{newStore(db, timeout)}
}

// UserStats compares TIMESTAMPTZ values against now, so "upcoming" does not depend on
// the server's local zone.
func (r *sqlStatsRepo) UserStats(ctx context.Context, userID int64, now time.Time) (*UserStats, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	var s UserStats
	err := r.db.QueryRowContext(ctx, `
		SELECT
		  (SELECT COUNT(*) FROM events WHERE created_by = $1),
		  COUNT(a.id),
		  COUNT(a.id) FILTER (WHERE a.confirmed),
		  COUNT(a.id) FILTER (WHERE NOT a.confirmed AND e.starts_at >= $2),
		  COUNT(a.id) FILTER (WHERE e.starts_at >= $2)
		FROM attendees a
		JOIN events e ON e.id = a.event_id
		WHERE a.user_id = $1`, userID, now,
	).Scan(&s.CreatedEvents, &s.AttendingEvents, &s.ConfirmedEvents, &s.PendingEvents, &s.UpcomingEvents)
	if err != nil {
		return nil, fmt.Errorf("user stats: %w", err)
	}
	return &s, nil
}
