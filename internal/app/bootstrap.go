package app

import (
	"context"
	"database/sql"

	"elderline/internal/auth"
)

// EnsureAdmin seeds the configured admin account on startup so a fresh
// deployment has a working back office login.
func EnsureAdmin(ctx context.Context, db *sql.DB, cfg Config) error {
	svc := auth.NewService(db, auth.ServiceConfig{})
	return svc.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
}
