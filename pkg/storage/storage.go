package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clearsol/omtracker/pkg/types"
	"github.com/levenlabs/go-lflag"
)

var (
	ErrSiteNotFound = errors.New("site not found")
	ErrTierNotFound = errors.New("rate tier not found")
	ErrSPVNotFound  = errors.New("spv not found")
)

// Database defines the interface for persisting portfolio data. The fee
// engine only ever reads from it; all writes come from the entry and import
// boundaries.
type Database interface {
	// Settings
	GetSettings(ctx context.Context) (types.Settings, int, error)
	SetSettings(ctx context.Context, settings types.Settings, version int) error

	// Sites
	ListSites(ctx context.Context) ([]types.Site, error)
	GetSite(ctx context.Context, siteID string) (types.Site, error)
	CreateSite(ctx context.Context, site types.Site) error
	UpdateSite(ctx context.Context, site types.Site) error
	DeleteSite(ctx context.Context, siteID string) error
	// ReplaceSites deletes every existing site and inserts the given ones.
	// Callers observe the replacement as all-or-nothing.
	ReplaceSites(ctx context.Context, sites []types.Site) error

	// Rate tiers
	ListRateTiers(ctx context.Context) ([]types.RateTier, error)
	UpdateRateTierRate(ctx context.Context, tierID string, ratePerKWp float64) error

	// SPVs
	ListSPVs(ctx context.Context) ([]types.SPV, error)
	GetSPVByCode(ctx context.Context, code string) (types.SPV, error)

	// Audit log
	InsertAudit(ctx context.Context, entry types.AuditEntry) error
	GetAuditLog(ctx context.Context, start, end time.Time) ([]types.AuditEntry, error)

	// Lifecycle
	Close() error
}

// Configured sets up the storage provider based on flags.
func Configured() Database {
	provider := lflag.String("storage-provider", "firestore", "Storage provider to use (available: firestore)")

	var p struct{ Database }

	fs := configuredFirestore()

	lflag.Do(func() {
		switch *provider {
		case "firestore":
			if err := fs.Validate(); err != nil {
				panic(fmt.Sprintf("firestore validation failed: %v", err))
			}
			p.Database = fs
			if err := fs.Init(context.Background()); err != nil {
				panic(fmt.Sprintf("firestore init failed: %v", err))
			}
		default:
			panic(fmt.Sprintf("unknown storage provider: %s", *provider))
		}
	})

	return &p
}
