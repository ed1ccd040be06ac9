package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/GoCodeAlone/dayplan/internal/apperr"
	"github.com/GoCodeAlone/dayplan/store"
)

// User is a registered account.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	Name         string    `db:"name" json:"name"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// Session is one login of a user.
type Session struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"userId"`
	ExpiresAt time.Time `db:"expires_at" json:"expiresAt"`
	UserAgent string    `db:"user_agent" json:"userAgent"`
	IPAddress string    `db:"ip_address" json:"ipAddress"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Repo persists users and sessions.
type Repo struct {
	db store.DBTX
}

// NewRepo builds a Repo on db.
func NewRepo(db store.DBTX) *Repo {
	return &Repo{db: db}
}

// CreateUser inserts u. A taken email yields apperr.ErrConflict.
func (r *Repo) CreateUser(ctx context.Context, u *User) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO users (id, email, name, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`),
		u.ID, u.Email, u.Name, u.PasswordHash, u.CreatedAt, u.UpdatedAt,
	)
	if store.IsUniqueViolation(err) {
		return fmt.Errorf("email %w", apperr.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// UserByEmail looks a user up by normalised email.
func (r *Repo) UserByEmail(ctx context.Context, email string) (*User, error) {
	return r.user(ctx, "email", email)
}

// UserByID looks a user up by id.
func (r *Repo) UserByID(ctx context.Context, id string) (*User, error) {
	return r.user(ctx, "id", id)
}

func (r *Repo) user(ctx context.Context, column, value string) (*User, error) {
	var u User
	err := r.db.GetContext(ctx, &u, r.db.Rebind(`
		SELECT id, email, name, password_hash, created_at, updated_at FROM users WHERE `+column+` = ?`), value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("user")
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// CreateSession inserts s.
func (r *Repo) CreateSession(ctx context.Context, s *Session) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO sessions (id, user_id, expires_at, user_agent, ip_address, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`),
		s.ID, s.UserID, s.ExpiresAt, s.UserAgent, s.IPAddress, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// ActiveSession returns the session id if it exists and has not expired
// at now.
func (r *Repo) ActiveSession(ctx context.Context, id string, now time.Time) (*Session, error) {
	var s Session
	err := r.db.GetContext(ctx, &s, r.db.Rebind(`
		SELECT id, user_id, expires_at, user_agent, ip_address, created_at
		FROM sessions WHERE id = ? AND expires_at > ?`), id, now.UTC())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("session")
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &s, nil
}

// DeleteSession removes a session. Deleting a missing session is not an
// error.
func (r *Repo) DeleteSession(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM sessions WHERE id = ?`), id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes sessions that expired at or before now and
// returns how many went.
func (r *Repo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM sessions WHERE expires_at <= ?`), now.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return res.RowsAffected()
}
