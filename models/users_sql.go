package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type sqlUserRepo struct{ store }

func NewSQLUserRepository(db *sql.DB, timeout time.Duration) UserRepository {
	return &sqlUserRepo{newStore(db, timeout)}
}

const userColumns = `u.id, u.username, u.email, u.password, u.first_name, u.last_name, u.date_joined, p.user_id, p.phone`

const userFrom = ` FROM users u LEFT JOIN user_profiles p ON p.user_id = u.id `

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var (
		u         User
		profileID sql.NullInt64
		phone     sql.NullString
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.DateJoined, &profileID, &phone); err != nil {
		return nil, err
	}
	if profileID.Valid {
		u.Profile = &UserProfile{UserID: profileID.Int64}
		if phone.Valid {
			p := phone.String
			u.Profile.Phone = &p
		}
	}
	return &u, nil
}

func (r *sqlUserRepo) Create(ctx context.Context, u *User, phone *string) error {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO users(username, email, password, first_name, last_name)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id, date_joined`,
			u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName,
		).Scan(&u.ID, &u.DateJoined)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_profiles(user_id, phone) VALUES ($1, $2)`, u.ID, phone); err != nil {
			return err
		}
		u.Profile = &UserProfile{UserID: u.ID, Phone: phone}
		return nil
	})
	switch uniqueViolation(err) {
	case constraintUsername:
		return ErrDuplicateUsername
	case constraintEmail:
		return ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *sqlUserRepo) getOne(ctx context.Context, where string, arg any) (*User, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+userFrom+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *sqlUserRepo) GetByID(ctx context.Context, id int64) (*User, error) {
	return r.getOne(ctx, `WHERE u.id = $1`, id)
}

func (r *sqlUserRepo) GetByUsername(ctx context.Context, username string) (*User, error) {
	return r.getOne(ctx, `WHERE u.username = $1`, username)
}

func (r *sqlUserRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, `WHERE u.email = lower($1)`, email)
}

func (r *sqlUserRepo) exists(ctx context.Context, query string, arg any) (bool, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	var ok bool
	if err := r.db.QueryRowContext(ctx, query, arg).Scan(&ok); err != nil {
		return false, fmt.Errorf("user exists: %w", err)
	}
	return ok, nil
}

func (r *sqlUserRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username)
}

func (r *sqlUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = lower($1))`, email)
}

func (r *sqlUserRepo) UpdateProfile(ctx context.Context, u *User, profile *UserProfile) error {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE users SET first_name = $2, last_name = $3 WHERE id = $1`,
			u.ID, u.FirstName, u.LastName)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		if profile == nil {
			return nil
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO user_profiles(user_id, phone) VALUES ($1, $2)
			 ON CONFLICT (user_id) DO UPDATE SET phone = EXCLUDED.phone`,
			u.ID, profile.Phone)
		return err
	})
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if profile != nil {
		u.Profile = profile
	}
	return nil
}

func (r *sqlUserRepo) UpdatePassword(ctx context.Context, id int64, hash string) error {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `UPDATE users SET password = $2 WHERE id = $1`, id, hash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the user; profile, events and attendance rows go with it via
// ON DELETE CASCADE.
func (r *sqlUserRepo) Delete(ctx context.Context, id int64) error {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
