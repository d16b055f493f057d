package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type sqlAttendeeRepo struct{ store }

func NewSQLAttendeeRepository(db *sql.DB, timeout time.Duration) AttendeeRepository {
	return &sqlAttendeeRepo{newStore(db, timeout)}
}

const attendeeColumns = `id, user_id, event_id, confirmed, created_at`

func scanAttendee(row interface{ Scan(...any) error }) (*Attendee, error) {
	var a Attendee
	if err := row.Scan(&a.ID, &a.UserID, &a.EventID, &a.Confirmed, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// GetOrCreate leans on UNIQUE(user_id, event_id): a concurrent insert of the same pair
// turns into DO NOTHING here, and the follow-up read returns the surviving row.
func (r *sqlAttendeeRepo) GetOrCreate(ctx context.Context, userID, eventID int64) (*Attendee, bool, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	a, err := scanAttendee(r.db.QueryRowContext(ctx,
		`INSERT INTO attendees(user_id, event_id) VALUES ($1, $2)
		 ON CONFLICT (user_id, event_id) DO NOTHING
		 RETURNING `+attendeeColumns, userID, eventID))
	if err == nil {
		return a, true, nil
	}
	if foreignKeyViolation(err) {
		return nil, false, ErrMissingReference
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("attend: %w", err)
	}

	a, err = scanAttendee(r.db.QueryRowContext(ctx,
		`SELECT `+attendeeColumns+` FROM attendees WHERE user_id = $1 AND event_id = $2`, userID, eventID))
	if err != nil {
		return nil, false, fmt.Errorf("attend: %w", err)
	}
	return a, false, nil
}

func (r *sqlAttendeeRepo) Create(ctx context.Context, userID, eventID int64) (*Attendee, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	a, err := scanAttendee(r.db.QueryRowContext(ctx,
		`INSERT INTO attendees(user_id, event_id) VALUES ($1, $2) RETURNING `+attendeeColumns,
		userID, eventID))
	if uniqueViolation(err) == constraintUserEvent {
		return nil, ErrAlreadyRegistered
	}
	if foreignKeyViolation(err) {
		return nil, ErrMissingReference
	}
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return a, nil
}

func (r *sqlAttendeeRepo) Get(ctx context.Context, userID, eventID int64) (*Attendee, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	a, err := scanAttendee(r.db.QueryRowContext(ctx,
		`SELECT `+attendeeColumns+` FROM attendees WHERE user_id = $1 AND event_id = $2`, userID, eventID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get attendee: %w", err)
	}
	return a, nil
}

func (r *sqlAttendeeRepo) SetConfirmed(ctx context.Context, userID, eventID int64, confirmed bool) (*Attendee, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	a, err := scanAttendee(r.db.QueryRowContext(ctx,
		`UPDATE attendees SET confirmed = $3 WHERE user_id = $1 AND event_id = $2 RETURNING `+attendeeColumns,
		userID, eventID, confirmed))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("set confirmed: %w", err)
	}
	return a, nil
}

func (r *sqlAttendeeRepo) Delete(ctx context.Context, userID, eventID int64) error {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM attendees WHERE user_id = $1 AND event_id = $2`, userID, eventID)
	if err != nil {
		return fmt.Errorf("cancel attendance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sqlAttendeeRepo) ListByEvent(ctx context.Context, eventID int64) ([]Attendee, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx,
		`SELECT a.id, a.user_id, a.event_id, a.confirmed, a.created_at, `+userColumns+`
		 FROM attendees a
		 JOIN users u ON u.id = a.user_id
		 LEFT JOIN user_profiles p ON p.user_id = u.id
		 WHERE a.event_id = $1
		 ORDER BY a.id`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list attendees: %w", err)
	}
	defer rows.Close()

	out := make([]Attendee, 0)
	for rows.Next() {
		var (
			a         Attendee
			u         User
			profileID sql.NullInt64
			phone     sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.UserID, &a.EventID, &a.Confirmed, &a.CreatedAt,
			&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.DateJoined,
			&profileID, &phone); err != nil {
			return nil, fmt.Errorf("scan attendee: %w", err)
		}
		if profileID.Valid {
			u.Profile = &UserProfile{UserID: profileID.Int64}
			if phone.Valid {
				p := phone.String
				u.Profile.Phone = &p
			}
		}
		a.User = &u
		out = append(out, a)
	}
	return out, rows.Err()
}
