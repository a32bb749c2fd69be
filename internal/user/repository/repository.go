package repository

import (
	"context"
	"time"

	"github.com/ScholarChen20/travel-agent/internal/user/domain"
)

// Repository defines the principal lookups the core needs from the
// relational store.
type Repository interface {
	// GetByID returns the user for id, or nil if not found.
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// GetByLogin returns the user whose username or email equals login, or nil if not found.
	GetByLogin(ctx context.Context, login string) (*domain.User, error)
	// UpdateLastLogin records a successful login.
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}
