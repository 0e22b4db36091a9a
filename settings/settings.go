// Package settings persists the administrator and fee percentage so a
// ledger backed by a durable store resumes with the same configuration.
package settings

import (
	"context"
	"errors"
	"time"

	"github.com/xraph/fundflow/fee"
	"github.com/xraph/fundflow/types"
)

var ErrSettingsNotFound = errors.New("fundflow: settings not found")

type Settings struct {
	Admin         types.Identity `json:"admin"`
	FeePercentage fee.Percentage `json:"fee_percentage"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type Store interface {
	GetSettings(ctx context.Context) (*Settings, error)
	PutSettings(ctx context.Context, s *Settings) error
}
