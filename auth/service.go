package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/GoCodeAlone/dayplan/internal/apperr"
	"github.com/GoCodeAlone/dayplan/internal/validate"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultSessionTTL is how long a login stays valid without config.
	DefaultSessionTTL = 7 * 24 * time.Hour
	minPassword       = 8
	maxPassword       = 72 // bcrypt input limit, in bytes
)

// Options tunes a Service.
type Options struct {
	SessionTTL time.Duration
	// BcryptCost defaults to bcrypt.DefaultCost. Tests lower it.
	BcryptCost int
	Logger     *slog.Logger
}

// Service registers users and manages their sessions.
type Service struct {
	users  *Repo
	tokens *TokenIssuer
	ttl    time.Duration
	cost   int
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds a Service over db.
func NewService(db *sqlx.DB, tokens *TokenIssuer, opts Options) *Service {
	s := &Service{
		users:  NewRepo(db),
		tokens: tokens,
		ttl:    opts.SessionTTL,
		cost:   opts.BcryptCost,
		logger: opts.Logger,
		now:    time.Now,
	}
	if s.ttl <= 0 {
		s.ttl = DefaultSessionTTL
	}
	if s.cost == 0 {
		s.cost = bcrypt.DefaultCost
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// RegisterInput is the body of a registration.
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// LoginInput is the body of a login. UserAgent and IPAddress are filled
// from the request by the HTTP layer.
type LoginInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	UserAgent string `json:"-"`
	IPAddress string `json:"-"`
}

// LoginResult carries the issued token.
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      *User     `json:"user"`
}

// Register creates an account. Emails are compared case-insensitively.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	var f apperr.Fields
	email := normalizeEmail(&f, in.Email)
	if n := utf8.RuneCountInString(in.Password); n < minPassword {
		f.Add("password", "must be at least 8 characters")
	} else if len(in.Password) > maxPassword {
		f.Add("password", "must be at most 72 bytes")
	}
	name := validate.OptionalTitle(&f, "name", &in.Name)
	if err := f.Err(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := s.now().UTC()
	u := &User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info("user registered", slog.String("user", u.ID))
	return u, nil
}

// Login checks credentials and opens a session. Unknown emails and wrong
// passwords both yield apperr.ErrUnauthorized.
func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	u, err := s.users.UserByEmail(ctx, email)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, fmt.Errorf("invalid credentials: %w", apperr.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", apperr.ErrUnauthorized)
	}

	now := s.now().UTC()
	sess := &Session{
		ID:        uuid.New().String(),
		UserID:    u.ID,
		ExpiresAt: now.Add(s.ttl),
		UserAgent: in.UserAgent,
		IPAddress: in.IPAddress,
		CreatedAt: now,
	}
	if err := s.users.CreateSession(ctx, sess); err != nil {
		return nil, err
	}
	token, err := s.tokens.Issue(u.ID, sess.ID, sess.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, ExpiresAt: sess.ExpiresAt, User: u}, nil
}

// Authenticate resolves a bearer token into a Principal. The token must
// verify and its session must still exist, be unexpired and belong to the
// token's subject.
func (s *Service) Authenticate(ctx context.Context, token string) (Principal, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", apperr.ErrUnauthorized, err)
	}
	sess, err := s.users.ActiveSession(ctx, claims.SessionID, s.now())
	if errors.Is(err, apperr.ErrNotFound) {
		return Principal{}, fmt.Errorf("%w: session expired or revoked", apperr.ErrUnauthorized)
	}
	if err != nil {
		return Principal{}, err
	}
	if sess.UserID != claims.Subject {
		return Principal{}, fmt.Errorf("%w: session mismatch", apperr.ErrUnauthorized)
	}
	return Principal{UserID: sess.UserID, SessionID: sess.ID}, nil
}

// Logout ends the caller's session.
func (s *Service) Logout(ctx context.Context) error {
	p, err := RequirePrincipal(ctx)
	if err != nil {
		return err
	}
	return s.users.DeleteSession(ctx, p.SessionID)
}

// Me returns the caller's account.
func (s *Service) Me(ctx context.Context) (*User, error) {
	p, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	return s.users.UserByID(ctx, p.UserID)
}

// PurgeExpiredSessions deletes every expired session.
func (s *Service) PurgeExpiredSessions(ctx context.Context) error {
	n, err := s.users.DeleteExpired(ctx, s.now())
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Info("purged expired sessions", slog.Int64("count", n))
	}
	return nil
}

func normalizeEmail(f *apperr.Fields, raw string) string {
	email := strings.ToLower(strings.TrimSpace(raw))
	at := strings.IndexByte(email, '@')
	switch {
	case email == "":
		f.Add("email", "is required")
	case at <= 0 || at == len(email)-1 || strings.ContainsAny(email, " \t"):
		f.Add("email", "must be a valid email address")
	case utf8.RuneCountInString(email) > validate.MaxTitle:
		f.Add("email", "must be at most 200 characters")
	}
	return email
}
