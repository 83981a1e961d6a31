package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/clearsol/omtracker/pkg/log"
	"github.com/clearsol/omtracker/pkg/storage"
	"github.com/clearsol/omtracker/pkg/types"
	"github.com/google/uuid"
	"github.com/levenlabs/go-lflag"
)

// seed populates the emulator with a demo portfolio for local frontend work.
func main() {
	os.Setenv("FIRESTORE_EMULATOR_HOST", "127.0.0.1:8087")
	s := storage.Configured()
	lflag.Configure()

	ctx := context.Background()

	log.Ctx(ctx).InfoContext(ctx, "seeding demo portfolio")

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	spvs, err := s.ListSPVs(ctx)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to list spvs", "error", err)
		os.Exit(1)
	}

	siteNames := []string{
		"Ashford Depot", "Birchwood Retail Park", "Carlton Mill", "Dunmore Farm",
		"Eastgate Logistics", "Fenwick Works", "Greenhill Estate", "Harlow Distribution",
		"Ivybridge Yard", "Kelso Warehouse", "Langley Cold Store", "Morden Industrial",
	}

	now := time.Now().UTC()
	sites := make([]types.Site, 0, len(siteNames))
	for i, name := range siteNames {
		size := 100 + rng.Float64()*1900 // 100-2000 kWp
		contract := "No"
		if rng.Float64() < 0.7 {
			contract = types.ContractStatusYes
		}
		date := now.AddDate(0, -rng.Intn(36), 0).Format("2006-01-02")

		site := types.Site{
			ID:             uuid.NewString(),
			Name:           name,
			SystemSizeKWp:  float64(int(size*10)) / 10,
			SiteType:       "Rooftop",
			ContractStatus: contract,
			OnboardDate:    &date,
			PMCost:         float64(rng.Intn(10)) * 100,
			CCTVCost:       float64(rng.Intn(5)) * 100,
			CleaningCost:   float64(rng.Intn(8)) * 100,
			SourceSheet:    "seed",
			SourceRow:      i + 1,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if len(spvs) > 0 && rng.Float64() < 0.8 {
			spv := spvs[rng.Intn(len(spvs))]
			site.SPVID = spv.ID
			site.SPVCode = spv.Code
		}
		sites = append(sites, site)
	}

	if err := s.ReplaceSites(ctx, sites); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to replace sites", "error", err)
		os.Exit(1)
	}

	if err := s.InsertAudit(ctx, types.AuditEntry{
		Timestamp: now,
		Table:     "sites",
		Action:    "import",
		Detail:    fmt.Sprintf("seeded %d demo sites", len(sites)),
		UserEmail: "seed@localhost",
	}); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to insert audit entry", "error", err)
		os.Exit(1)
	}

	log.Ctx(ctx).InfoContext(ctx, "seeded demo portfolio", "sites", len(sites))

	if err := s.Close(); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to close storage", "error", err)
	}
}
