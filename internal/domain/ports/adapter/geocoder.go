package adapter

import (
	"context"

	"telegram-marketplace-bot/internal/domain/model"
)

// Geocoder resolves raw coordinates into an address. Returns
// domain.ErrUnresolved when the provider cannot name the location.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lon float64) (*model.Place, error)
}
