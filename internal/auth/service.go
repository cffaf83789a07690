package auth

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"math/big"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrEmpIDTaken         = errors.New("employee id already registered")
	ErrRateLimited        = errors.New("too many requests")
	ErrInvalidResetCode   = errors.New("invalid reset code")
	ErrResetCodeExpired   = errors.New("reset code expired")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

const (
	RoleCandidate = "candidate"
	RoleAdmin     = "admin"
)

type Service struct {
	db                *sql.DB
	tokens            *TokenManager
	bcryptCost        int
	resetTTL          time.Duration
	resetCooldown     time.Duration
	loginMaxFailures  int
	loginLockDuration time.Duration
	mailer            ResetMailer
}

type ServiceConfig struct {
	Tokens            *TokenManager
	BcryptCost        int
	ResetTTL          time.Duration
	ResetCooldown     time.Duration
	LoginMaxFailures  int
	LoginLockDuration time.Duration
	Mailer            ResetMailer
}

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	EmpID     string    `json:"emp_id"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type RegisterInput struct {
	Email    string
	EmpID    string
	Password string
	FullName string
}

func NewService(db *sql.DB, cfg ServiceConfig) *Service {
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = 15 * time.Minute
	}
	if cfg.ResetCooldown <= 0 {
		cfg.ResetCooldown = time.Minute
	}
	if cfg.LoginMaxFailures <= 0 {
		cfg.LoginMaxFailures = 5
	}
	if cfg.LoginLockDuration <= 0 {
		cfg.LoginLockDuration = 10 * time.Minute
	}
	return &Service{
		db:                db,
		tokens:            cfg.Tokens,
		bcryptCost:        cfg.BcryptCost,
		resetTTL:          cfg.ResetTTL,
		resetCooldown:     cfg.ResetCooldown,
		loginMaxFailures:  cfg.LoginMaxFailures,
		loginLockDuration: cfg.LoginLockDuration,
		mailer:            cfg.Mailer,
	}
}

// Register creates a candidate account. Employee id and email are both
// unique login identifiers.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	empID := strings.ToUpper(strings.TrimSpace(in.EmpID))
	fullName := strings.TrimSpace(in.FullName)

	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("invalid email address")
	}
	if empID == "" {
		return nil, fmt.Errorf("employee id is required")
	}
	if fullName == "" {
		return nil, fmt.Errorf("full name is required")
	}
	if len(in.Password) < 8 {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)
	`, email).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, ErrEmailTaken
	}
	if err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE emp_id = $1)
	`, empID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check emp id: %w", err)
	}
	if exists {
		return nil, ErrEmpIDTaken
	}

	user := &User{
		ID:       uuid.NewString(),
		Email:    email,
		EmpID:    empID,
		FullName: fullName,
		Role:     RoleCandidate,
		IsActive: true,
	}
	if err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (id, email, emp_id, full_name, role, password_hash, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, now())
		RETURNING created_at
	`, user.ID, user.Email, user.EmpID, user.FullName, user.Role, string(hash)).Scan(&user.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return user, nil
}

// AuthenticatePassword verifies a login by email or employee id and returns
// the user plus a signed bearer token. Repeated failures lock the account
// identifier for a cooldown window.
func (s *Service) AuthenticatePassword(ctx context.Context, identifier, password string) (*User, string, time.Time, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	if identifier == "" || password == "" {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}

	locked, until, err := s.isGuardLocked(ctx, "login", identifier)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if locked {
		log.Printf(`{"event":"login_locked","identifier":%q,"until":%q}`, identifier, until.Format(time.RFC3339))
		return nil, "", time.Time{}, ErrRateLimited
	}

	var (
		user User
		hash string
	)
	err = s.db.QueryRowContext(ctx, `
		SELECT id, email, emp_id, full_name, role, password_hash, is_active, created_at
		FROM users
		WHERE email = $1 OR emp_id = upper($1)
	`, identifier).Scan(&user.ID, &user.Email, &user.EmpID, &user.FullName, &user.Role, &hash, &user.IsActive, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			_ = s.registerFailure(ctx, "login", identifier)
			return nil, "", time.Time{}, ErrInvalidCredentials
		}
		return nil, "", time.Time{}, fmt.Errorf("load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		_ = s.registerFailure(ctx, "login", identifier)
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, "", time.Time{}, ErrForbidden
	}

	_ = s.clearGuard(ctx, "login", identifier)

	token, expiresAt, err := s.tokens.Issue(&user)
	if err != nil {
		return nil, "", time.Time{}, fmt.Errorf("issue token: %w", err)
	}
	return &user, token, expiresAt, nil
}

// UserFromToken resolves a bearer token to its live user record, so a
// deactivated account loses access even with an unexpired token.
func (s *Service) UserFromToken(ctx context.Context, token string) (*User, error) {
	userID, err := s.tokens.Parse(token)
	if err != nil {
		return nil, ErrUnauthorized
	}

	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrForbidden
	}
	return user, nil
}

func (s *Service) GetUserByID(ctx context.Context, userID string) (*User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, emp_id, full_name, role, is_active, created_at
		FROM users
		WHERE id = $1
	`, userID).Scan(&user.ID, &user.Email, &user.EmpID, &user.FullName, &user.Role, &user.IsActive, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &user, nil
}

// RequestPasswordReset issues a one-time code to the account email. The
// response never reveals whether the email exists.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil
	}

	var userID string
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM users WHERE email = $1 AND is_active = TRUE
	`, email).Scan(&userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("load user for reset: %w", err)
	}

	var lastSent sql.NullTime
	if err := s.db.QueryRowContext(ctx, `
		SELECT max(created_at) FROM password_resets WHERE user_id = $1
	`, userID).Scan(&lastSent); err != nil {
		return fmt.Errorf("check reset cooldown: %w", err)
	}
	if lastSent.Valid && time.Since(lastSent.Time) < s.resetCooldown {
		return ErrRateLimited
	}

	code, err := generateResetCode()
	if err != nil {
		return fmt.Errorf("generate reset code: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO password_resets (user_id, code, expires_at, created_at)
		VALUES ($1, $2, now() + $3::interval, now())
	`, userID, code, fmt.Sprintf("%d seconds", int(s.resetTTL.Seconds()))); err != nil {
		return fmt.Errorf("store reset code: %w", err)
	}

	if s.mailer == nil {
		log.Printf(`{"event":"reset_code_issued","email":%q,"delivery":"skipped, mailer not configured"}`, email)
		return nil
	}
	if err := s.mailer.SendResetCode(ctx, email, code); err != nil {
		return fmt.Errorf("send reset code: %w", err)
	}
	return nil
}

// ConfirmPasswordReset swaps the password if the code matches and has not
// expired. Used codes are consumed.
func (s *Service) ConfirmPasswordReset(ctx context.Context, email, code, newPassword string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	code = strings.TrimSpace(code)
	if len(newPassword) < 8 {
		return ErrWeakPassword
	}

	var (
		resetID   int64
		userID    string
		expiresAt time.Time
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT pr.id, pr.user_id, pr.expires_at
		FROM password_resets pr
		JOIN users u ON u.id = pr.user_id
		WHERE u.email = $1 AND pr.code = $2 AND pr.consumed_at IS NULL
		ORDER BY pr.created_at DESC
		LIMIT 1
	`, email, code).Scan(&resetID, &userID, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrInvalidResetCode
		}
		return fmt.Errorf("load reset code: %w", err)
	}
	if time.Now().After(expiresAt) {
		return ErrResetCodeExpired
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reset tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		UPDATE users SET password_hash = $2 WHERE id = $1
	`, userID, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE password_resets SET consumed_at = now() WHERE id = $1
	`, resetID); err != nil {
		return fmt.Errorf("consume reset code: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reset: %w", err)
	}
	return nil
}

// EnsureAdmin seeds or repairs the configured admin account on startup.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}
	if len(password) < 8 {
		return ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, emp_id, full_name, role, password_hash, is_active, created_at)
		VALUES ($1, $2, 'ADMIN', 'Portal Administrator', $3, $4, TRUE, now())
		ON CONFLICT (email)
		DO UPDATE SET role = EXCLUDED.role, password_hash = EXCLUDED.password_hash, is_active = TRUE
	`, uuid.NewString(), email, RoleAdmin, string(hash)); err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}
	return nil
}

func (s *Service) isGuardLocked(ctx context.Context, purpose, subjectKey string) (bool, time.Time, error) {
	var (
		failures    int
		lockedUntil sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT failure_count, locked_until
		FROM auth_guards
		WHERE purpose = $1 AND subject_key = $2
	`, purpose, subjectKey).Scan(&failures, &lockedUntil)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, time.Time{}, nil
		}
		return false, time.Time{}, fmt.Errorf("load auth guard: %w", err)
	}
	if lockedUntil.Valid && time.Now().Before(lockedUntil.Time) {
		return true, lockedUntil.Time, nil
	}
	return false, time.Time{}, nil
}

func (s *Service) registerFailure(ctx context.Context, purpose, subjectKey string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO auth_guards (purpose, subject_key, failure_count, locked_until, updated_at)
		VALUES ($1, $2, 1, NULL, now())
		ON CONFLICT (purpose, subject_key)
		DO UPDATE SET
			failure_count = auth_guards.failure_count + 1,
			locked_until = CASE
				WHEN auth_guards.failure_count + 1 >= $3 THEN now() + $4::interval
				ELSE auth_guards.locked_until
			END,
			updated_at = now()
	`, purpose, subjectKey, s.loginMaxFailures, fmt.Sprintf("%d seconds", int(s.loginLockDuration.Seconds())))
	if err != nil {
		return fmt.Errorf("register auth failure: %w", err)
	}
	return nil
}

func (s *Service) clearGuard(ctx context.Context, purpose, subjectKey string) error {
	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM auth_guards WHERE purpose = $1 AND subject_key = $2
	`, purpose, subjectKey); err != nil {
		return fmt.Errorf("clear auth guard: %w", err)
	}
	return nil
}

func generateResetCode() (string, error) {
	const digits = 6
	max := big.NewInt(10)
	code := make([]byte, 0, digits)
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code = append(code, byte('0'+n.Int64()))
	}
	return string(code), nil
}
