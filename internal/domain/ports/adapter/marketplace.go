package adapter

import (
	"context"

	"telegram-marketplace-bot/internal/domain/model"
)

// Marketplace is the hex port for the remote marketplace API.
type Marketplace interface {
	// LookupUser fetches the seller record for a Telegram user.
	// Returns domain.ErrNotFound when the user has never registered.
	LookupUser(ctx context.Context, telegramID int64) (*model.SellerInfo, error)

	// Categories returns the full flat category tree.
	Categories(ctx context.Context) ([]model.Category, error)

	// SubmitLot publishes a finished listing. Submission is one-shot: the
	// caller never retries.
	SubmitLot(ctx context.Context, lot *model.Lot) error

	// SubmitSellerProfile registers a seller. One-shot as well.
	SubmitSellerProfile(ctx context.Context, profile *model.SellerProfile) error
}
