package repository

import (
	"context"

	"telegram-marketplace-bot/internal/domain/model"
)

// SessionRepository is the port for the per-user flow session store.
//
// Implementations must serialize access per user key; sessions of different
// users are fully independent. Stores are transient by contract: losing
// sessions on restart only aborts in-progress forms.
type SessionRepository interface {
	// Get returns the user's in-progress session or domain.ErrSessionNotFound.
	Get(ctx context.Context, userID int64) (*model.Session, error)
	// Save creates or replaces the session and renews its expiry.
	Save(ctx context.Context, s *model.Session) error
	// Delete removes the session. Deleting an absent session is not an error.
	Delete(ctx context.Context, userID int64) error
}
