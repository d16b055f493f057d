package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

type sqlEventRepo struct{ store }

func NewSQLEventRepository(db *sql.DB, timeout time.Duration) EventRepository {
	return &sqlEventRepo{newStore(db, timeout)}
}

func (r *sqlEventRepo) Create(ctx context.Context, e *Event) error {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO events(title, description, location, starts_at, created_by)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		e.Title, e.Description, e.Location, e.StartsAt, e.CreatedBy,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if foreignKeyViolation(err) {
		return ErrMissingReference
	}
	if err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func (r *sqlEventRepo) GetByID(ctx context.Context, id int64) (*Event, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	var e Event
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, description, location, starts_at, created_by, created_at, updated_at
		 FROM events WHERE id = $1`, id,
	).Scan(&e.ID, &e.Title, &e.Description, &e.Location, &e.StartsAt, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &e, nil
}

func (r *sqlEventRepo) Update(ctx context.Context, e *Event) error {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	err := r.db.QueryRowContext(ctx,
		`UPDATE events
		 SET title = $2, description = $3, location = $4, starts_at = $5, updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at`,
		e.ID, e.Title, e.Description, e.Location, e.StartsAt,
	).Scan(&e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return nil
}

// Delete removes the event; its attendee rows go with it via ON DELETE CASCADE.
func (r *sqlEventRepo) Delete(ctx context.Context, id int64) error {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// $1 is always the viewer id.
const eventDetailSelect = `
SELECT e.id, e.title, e.description, e.location, e.starts_at, e.created_by, e.created_at, e.updated_at,
       u.id, u.username, u.email, u.password, u.first_name, u.last_name, u.date_joined, p.user_id, p.phone,
       COUNT(a.id),
       COUNT(a.id) FILTER (WHERE a.confirmed),
       COUNT(a.id) FILTER (WHERE NOT a.confirmed),
       (SELECT va.confirmed FROM attendees va WHERE va.event_id = e.id AND va.user_id = $1)
FROM events e
JOIN users u ON u.id = e.created_by
LEFT JOIN user_profiles p ON p.user_id = u.id
LEFT JOIN attendees a ON a.event_id = e.id`

const eventDetailGroup = ` GROUP BY e.id, u.id, p.user_id, p.phone`

func scanEventDetail(row interface{ Scan(...any) error }) (*EventDetail, error) {
	var (
		d         EventDetail
		profileID sql.NullInt64
		phone     sql.NullString
		viewer    sql.NullBool
	)
	err := row.Scan(
		&d.ID, &d.Title, &d.Description, &d.Location, &d.StartsAt, &d.CreatedBy, &d.CreatedAt, &d.UpdatedAt,
		&d.Creator.ID, &d.Creator.Username, &d.Creator.Email, &d.Creator.PasswordHash,
		&d.Creator.FirstName, &d.Creator.LastName, &d.Creator.DateJoined, &profileID, &phone,
		&d.AttendeeCount, &d.ConfirmedCount, &d.PendingCount, &viewer,
	)
	if err != nil {
		return nil, err
	}
	if profileID.Valid {
		d.Creator.Profile = &UserProfile{UserID: profileID.Int64}
		if phone.Valid {
			p := phone.String
			d.Creator.Profile.Phone = &p
		}
	}
	switch {
	case !viewer.Valid:
		d.ViewerStatus = StatusNotRegistered
	case viewer.Bool:
		d.ViewerStatus = StatusConfirmed
	default:
		d.ViewerStatus = StatusPending
	}
	return &d, nil
}

func (r *sqlEventRepo) Detail(ctx context.Context, id, viewerID int64) (*EventDetail, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	d, err := scanEventDetail(r.db.QueryRowContext(ctx,
		eventDetailSelect+` WHERE e.id = $2`+eventDetailGroup, viewerID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("event detail: %w", err)
	}
	return d, nil
}

func (r *sqlEventRepo) List(ctx context.Context, f EventFilter) ([]EventDetail, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	query, vals := buildEventListQuery(f)
	rows, err := r.db.QueryContext(ctx, query, vals...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	out := make([]EventDetail, 0)
	for rows.Next() {
		d, err := scanEventDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func buildEventListQuery(f EventFilter) (string, []any) {
	a := &args{}
	a.add(f.ViewerID)

	var where []string
	if s := strings.TrimSpace(f.Search); s != "" {
		p := a.add(likePattern(s))
		where = append(where, fmt.Sprintf(
			"(e.title ILIKE %[1]s OR u.username ILIKE %[1]s OR e.description ILIKE %[1]s OR e.location ILIKE %[1]s)", p))
	}
	if !f.From.IsZero() {
		where = append(where, "e.starts_at >= "+a.add(f.From))
	}
	if !f.To.IsZero() {
		where = append(where, "e.starts_at < "+a.add(f.To))
	}
	if f.CreatedBy != 0 {
		where = append(where, "e.created_by = "+a.add(f.CreatedBy))
	}
	if f.AttendeeID != 0 {
		where = append(where, "EXISTS (SELECT 1 FROM attendees ma WHERE ma.event_id = e.id AND ma.user_id = "+a.add(f.AttendeeID)+")")
	}

	var b strings.Builder
	b.WriteString(eventDetailSelect)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(eventDetailGroup)
	if f.Order == SortAsc {
		b.WriteString(" ORDER BY e.starts_at ASC, e.id ASC")
	} else {
		b.WriteString(" ORDER BY e.starts_at DESC, e.id DESC")
	}
	return b.String(), a.vals
}
