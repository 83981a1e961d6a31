package storage

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/clearsol/omtracker/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirestoreProvider(t *testing.T) {
	// Check if emulator is running or configured
	// We assume it is running on localhost:8087 as per task
	os.Setenv("FIRESTORE_EMULATOR_HOST", "127.0.0.1:8087")

	// Use a test project ID
	projectID := "test-project-id"

	// Use a random database for isolation
	randDB := fmt.Sprintf("test-db-%d", time.Now().UnixNano())
	f := &FirestoreProvider{
		projectID: projectID,
		database:  randDB,
	}

	ctx := context.Background()
	require.NoError(t, f.Init(ctx))
	defer f.Close()

	t.Run("Validate", func(t *testing.T) {
		require.NoError(t, f.Validate())
	})

	t.Run("SeededDefaults", func(t *testing.T) {
		tiers, err := f.ListRateTiers(ctx)
		require.NoError(t, err)
		require.Len(t, tiers, 3)
		assert.Equal(t, "<20MW", tiers[0].Name)
		assert.Equal(t, 2.0, tiers[0].RatePerKWp)
		assert.Nil(t, tiers[2].MaxCapacityMW)

		spvs, err := f.ListSPVs(ctx)
		require.NoError(t, err)
		require.Len(t, spvs, len(DefaultSPVs))
		// ordered by code
		assert.Equal(t, "AD1", spvs[0].Code)
	})

	t.Run("Settings", func(t *testing.T) {
		settings := types.Settings{
			Currency:       "GBP",
			CurrencySymbol: "£",
		}
		require.NoError(t, f.SetSettings(ctx, settings, 1))

		gotSettings, version, err := f.GetSettings(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, version)
		assert.Equal(t, settings.Currency, gotSettings.Currency)
		assert.Equal(t, settings.CurrencySymbol, gotSettings.CurrencySymbol)
	})

	t.Run("SiteCRUD", func(t *testing.T) {
		site := types.Site{
			ID:             "site-1",
			Name:           "Alpha Rooftop",
			SystemSizeKWp:  500,
			ContractStatus: "Yes",
			PMCost:         500,
			CCTVCost:       200,
			CleaningCost:   300,
			SPVCode:        "OS2",
			CreatedAt:      time.Now().UTC().Truncate(time.Second),
			UpdatedAt:      time.Now().UTC().Truncate(time.Second),
		}
		require.NoError(t, f.CreateSite(ctx, site))

		got, err := f.GetSite(ctx, "site-1")
		require.NoError(t, err)
		assert.Equal(t, site.Name, got.Name)
		assert.Equal(t, site.SystemSizeKWp, got.SystemSizeKWp)

		site.SystemSizeKWp = 600
		require.NoError(t, f.UpdateSite(ctx, site))
		got, err = f.GetSite(ctx, "site-1")
		require.NoError(t, err)
		assert.Equal(t, 600.0, got.SystemSizeKWp)

		sites, err := f.ListSites(ctx)
		require.NoError(t, err)
		require.Len(t, sites, 1)

		require.NoError(t, f.DeleteSite(ctx, "site-1"))
		_, err = f.GetSite(ctx, "site-1")
		assert.ErrorIs(t, err, ErrSiteNotFound)
	})

	t.Run("ReplaceSites", func(t *testing.T) {
		old := types.Site{ID: "old-1", Name: "Old Site", SystemSizeKWp: 100}
		require.NoError(t, f.CreateSite(ctx, old))

		replacement := []types.Site{
			{ID: "new-1", Name: "Beta", SystemSizeKWp: 250},
			{ID: "new-2", Name: "Alpha", SystemSizeKWp: 750},
		}
		require.NoError(t, f.ReplaceSites(ctx, replacement))

		sites, err := f.ListSites(ctx)
		require.NoError(t, err)
		require.Len(t, sites, 2)
		// old site is gone and listing is ordered by name
		assert.Equal(t, "Alpha", sites[0].Name)
		assert.Equal(t, "Beta", sites[1].Name)
	})

	t.Run("UpdateRateTierRate", func(t *testing.T) {
		require.NoError(t, f.UpdateRateTierRate(ctx, "2", 1.95))
		tiers, err := f.ListRateTiers(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1.95, tiers[1].RatePerKWp)
		// bounds untouched
		require.NotNil(t, tiers[1].MaxCapacityMW)
		assert.Equal(t, 30.0, *tiers[1].MaxCapacityMW)

		err = f.UpdateRateTierRate(ctx, "missing", 1.0)
		assert.ErrorIs(t, err, ErrTierNotFound)
	})

	t.Run("SPVByCode", func(t *testing.T) {
		spv, err := f.GetSPVByCode(ctx, "FS")
		require.NoError(t, err)
		assert.Equal(t, "Fylde Solar Ltd", spv.Name)

		_, err = f.GetSPVByCode(ctx, "NOPE")
		assert.ErrorIs(t, err, ErrSPVNotFound)
	})

	t.Run("AuditLog", func(t *testing.T) {
		base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		for i := 0; i < 3; i++ {
			entry := types.AuditEntry{
				Timestamp: base.Add(time.Duration(i) * time.Minute),
				Table:     "sites",
				RecordID:  fmt.Sprintf("site-%d", i),
				Action:    "update",
			}
			require.NoError(t, f.InsertAudit(ctx, entry))
		}

		entries, err := f.GetAuditLog(ctx, base, base.Add(2*time.Minute))
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "site-0", entries[0].RecordID)
		assert.Equal(t, "site-1", entries[1].RecordID)
	})
}
