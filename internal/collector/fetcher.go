// Package collector fetches company fundamentals from market-data providers.
package collector

import (
	"context"

	"HalalScreener/internal/model"
)

// Fetcher retrieves the profile the screen runs on. Any failure, including an
// empty upstream result, is reported as a *model.DataError.
type Fetcher interface {
	FetchProfile(ctx context.Context, ticker string) (*model.CompanyProfile, error)
	Name() string
}
