package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/clearsol/omtracker/pkg/fees"
	"github.com/clearsol/omtracker/pkg/log"
	"github.com/clearsol/omtracker/pkg/types"
	"github.com/levenlabs/go-lflag"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// DefaultSPVs are seeded into an empty database so SPV assignment works out
// of the box.
var DefaultSPVs = []types.SPV{
	{ID: "1", Code: "OS2", Name: "Olympus Solar 2 Ltd"},
	{ID: "2", Code: "AD1", Name: "AMPYR Distributed Energy 1 Ltd"},
	{ID: "3", Code: "FS", Name: "Fylde Solar Ltd"},
	{ID: "4", Code: "ESI8", Name: "Eden Sustainable Investments 8 Ltd"},
	{ID: "5", Code: "ESI1", Name: "Eden Sustainable Investments 1 Ltd"},
	{ID: "6", Code: "ESI10", Name: "Eden Sustainable Investments 10 Ltd"},
	{ID: "7", Code: "UV1", Name: "ULTRAVOLT SPV1 LIMITED"},
	{ID: "8", Code: "SKY", Name: "Skylight Energy Ltd"},
}

// auditDocIDLayout is a fixed-width RFC3339 layout so document IDs sort
// lexicographically for range queries.
const auditDocIDLayout = "2006-01-02T15:04:05.000000000Z"

// FirestoreProvider implements the Database interface using Google Cloud
// Firestore. It persists sites, SPVs, rate tiers, settings, and the audit
// log to Firestore collections.
type FirestoreProvider struct {
	client    *firestore.Client
	projectID string
	database  string
}

// configuredFirestore sets up the Firestore provider.
// It registers flags for configuration.
func configuredFirestore() *FirestoreProvider {
	projectID := lflag.String("firestore-project-id", "", "Google Cloud Project ID for Firestore")
	database := lflag.String("firestore-database", "", "Google Cloud Firestore Database")
	emulator := lflag.String("firestore-emulator", "", "Use Firestore emulator")

	f := &FirestoreProvider{}

	lflag.Do(func() {
		f.projectID = *projectID
		f.database = *database

		// set this because that's how firestore client expects it
		if *emulator != "" {
			os.Setenv("FIRESTORE_EMULATOR_HOST", *emulator)
		}
	})

	return f
}

// Validate checks if the provider is properly configured.
func (f *FirestoreProvider) Validate() error {
	// Project ID verification could be here, but we allow empty if inferred.
	return nil
}

// Init initializes the Firestore client and seeds default rate tiers and SPVs
// into empty collections. Seeding is an explicit setup step here rather than
// an implicit side effect of loading the calculation packages.
func (f *FirestoreProvider) Init(ctx context.Context) error {
	projectID := f.projectID
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}
	database := f.database
	if database == "" {
		database = firestore.DefaultDatabaseID
	}
	client, err := firestore.NewClientWithDatabase(ctx, projectID, database)
	if err != nil {
		return fmt.Errorf("failed to create firestore client (project=%s, database=%s): %w", projectID, database, err)
	}
	f.client = client

	if err := f.seedDefaults(ctx); err != nil {
		return fmt.Errorf("failed to seed defaults: %w", err)
	}
	return nil
}

func (f *FirestoreProvider) seedDefaults(ctx context.Context) error {
	tiers, err := f.ListRateTiers(ctx)
	if err != nil {
		return err
	}
	if len(tiers) == 0 {
		log.Ctx(ctx).InfoContext(ctx, "seeding default rate tiers")
		for _, tier := range fees.DefaultRateTiers {
			if err := f.setRateTier(ctx, tier); err != nil {
				return err
			}
		}
	}

	spvs, err := f.ListSPVs(ctx)
	if err != nil {
		return err
	}
	if len(spvs) == 0 {
		log.Ctx(ctx).InfoContext(ctx, "seeding default SPVs")
		for _, spv := range DefaultSPVs {
			jsonBytes, err := json.Marshal(spv)
			if err != nil {
				return fmt.Errorf("failed to marshal spv %s: %w", spv.ID, err)
			}
			_, err = f.client.Collection("spvs").Doc(spv.ID).Set(ctx, map[string]interface{}{
				"json": string(jsonBytes),
				"code": spv.Code,
			})
			if err != nil {
				return fmt.Errorf("failed to seed spv %s: %w", spv.ID, err)
			}
		}
	}
	return nil
}

// Close closes the Firestore client connection.
func (f *FirestoreProvider) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

// GetSettings retrieves the dynamic configuration from the "config/settings"
// document.
func (f *FirestoreProvider) GetSettings(ctx context.Context) (types.Settings, int, error) {
	doc, err := f.client.Collection("config").Doc("settings").Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			// Return default settings if not found
			return types.Settings{}, 0, nil
		}
		return types.Settings{}, 0, fmt.Errorf("failed to fetch settings doc: %w", err)
	}

	// Read version if available (default 0)
	var version int
	if v, err := doc.DataAt("version"); err == nil {
		if vInt, ok := v.(int64); ok {
			version = int(vInt)
		}
	}

	var s types.Settings
	if err := unmarshalDocJSON(doc, &s); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "bad settings doc", slog.Any("err", err))
		return types.Settings{}, 0, err
	}
	return s, version, nil
}

// SetSettings saves the dynamic configuration to the "config/settings"
// document. It stores the settings as a JSON string for portability.
func (f *FirestoreProvider) SetSettings(ctx context.Context, settings types.Settings, version int) error {
	jsonBytes, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	_, err = f.client.Collection("config").Doc("settings").Set(ctx, map[string]interface{}{
		"json":    string(jsonBytes),
		"version": version,
	})
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// unmarshalDocJSON decodes the "json" string field every record document
// carries.
func unmarshalDocJSON(doc *firestore.DocumentSnapshot, out interface{}) error {
	val, err := doc.DataAt("json")
	if err != nil {
		return fmt.Errorf("document %s missing 'json' field: %w", doc.Ref.ID, err)
	}
	jsonStr, ok := val.(string)
	if !ok {
		return fmt.Errorf("document %s 'json' field is not a string", doc.Ref.ID)
	}
	if err := json.Unmarshal([]byte(jsonStr), out); err != nil {
		return fmt.Errorf("failed to unmarshal document %s: %w", doc.Ref.ID, err)
	}
	return nil
}

// ListSites retrieves all sites from the "sites" collection ordered by name.
func (f *FirestoreProvider) ListSites(ctx context.Context) ([]types.Site, error) {
	iter := f.client.Collection("sites").OrderBy("name", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var sites []types.Site
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error iterating sites: %w", err)
		}

		var site types.Site
		if err := unmarshalDocJSON(doc, &site); err != nil {
			log.Ctx(ctx).WarnContext(ctx, "bad site doc", slog.String("siteID", doc.Ref.ID), slog.Any("err", err))
			// Skip malformed documents
			continue
		}
		sites = append(sites, site)
	}
	return sites, nil
}

// GetSite retrieves a site from the "sites" collection.
func (f *FirestoreProvider) GetSite(ctx context.Context, siteID string) (types.Site, error) {
	doc, err := f.client.Collection("sites").Doc(siteID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return types.Site{}, fmt.Errorf("%w: %s", ErrSiteNotFound, siteID)
		}
		return types.Site{}, fmt.Errorf("failed to get site %s: %w", siteID, err)
	}

	var site types.Site
	if err := unmarshalDocJSON(doc, &site); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "bad site doc", slog.String("siteID", siteID), slog.Any("err", err))
		return types.Site{}, err
	}
	return site, nil
}

func siteDocData(site types.Site) (map[string]interface{}, error) {
	jsonBytes, err := json.Marshal(site)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal site %s: %w", site.ID, err)
	}
	return map[string]interface{}{
		"json": string(jsonBytes),
		// duplicated top-level so firestore can order listings
		"name": site.Name,
	}, nil
}

// CreateSite creates a new site document in the "sites" collection.
func (f *FirestoreProvider) CreateSite(ctx context.Context, site types.Site) error {
	data, err := siteDocData(site)
	if err != nil {
		return err
	}
	if _, err := f.client.Collection("sites").Doc(site.ID).Create(ctx, data); err != nil {
		return fmt.Errorf("failed to create site %s: %w", site.ID, err)
	}
	return nil
}

// UpdateSite replaces a site document in the "sites" collection.
func (f *FirestoreProvider) UpdateSite(ctx context.Context, site types.Site) error {
	data, err := siteDocData(site)
	if err != nil {
		return err
	}
	if _, err := f.client.Collection("sites").Doc(site.ID).Set(ctx, data); err != nil {
		return fmt.Errorf("failed to update site %s: %w", site.ID, err)
	}
	return nil
}

// DeleteSite removes a site document from the "sites" collection.
func (f *FirestoreProvider) DeleteSite(ctx context.Context, siteID string) error {
	if _, err := f.client.Collection("sites").Doc(siteID).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete site %s: %w", siteID, err)
	}
	return nil
}

// ReplaceSites atomically deletes all existing sites and writes the given
// ones in a single transaction, so a reimport never leaves a mixed
// collection behind.
func (f *FirestoreProvider) ReplaceSites(ctx context.Context, sites []types.Site) error {
	coll := f.client.Collection("sites")
	err := f.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		existing, err := tx.DocumentRefs(coll).GetAll()
		if err != nil {
			return fmt.Errorf("failed to list existing sites: %w", err)
		}
		for _, ref := range existing {
			if err := tx.Delete(ref); err != nil {
				return err
			}
		}
		for _, site := range sites {
			data, err := siteDocData(site)
			if err != nil {
				return err
			}
			if err := tx.Create(coll.Doc(site.ID), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace sites: %w", err)
	}
	return nil
}

// ListRateTiers retrieves all rate tiers ordered ascending by their lower
// capacity bound, which is the order the tier resolver requires.
func (f *FirestoreProvider) ListRateTiers(ctx context.Context) ([]types.RateTier, error) {
	iter := f.client.Collection("rate_tiers").OrderBy("minCapacityMW", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var tiers []types.RateTier
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error iterating rate tiers: %w", err)
		}

		var tier types.RateTier
		if err := unmarshalDocJSON(doc, &tier); err != nil {
			log.Ctx(ctx).WarnContext(ctx, "bad rate tier doc", slog.String("tierID", doc.Ref.ID), slog.Any("err", err))
			continue
		}
		tiers = append(tiers, tier)
	}
	return tiers, nil
}

func (f *FirestoreProvider) setRateTier(ctx context.Context, tier types.RateTier) error {
	jsonBytes, err := json.Marshal(tier)
	if err != nil {
		return fmt.Errorf("failed to marshal rate tier %s: %w", tier.ID, err)
	}
	_, err = f.client.Collection("rate_tiers").Doc(tier.ID).Set(ctx, map[string]interface{}{
		"json":          string(jsonBytes),
		"minCapacityMW": tier.MinCapacityMW,
	})
	if err != nil {
		return fmt.Errorf("failed to save rate tier %s: %w", tier.ID, err)
	}
	return nil
}

// UpdateRateTierRate updates a single tier's rate per kWp, leaving its
// capacity bounds untouched.
func (f *FirestoreProvider) UpdateRateTierRate(ctx context.Context, tierID string, ratePerKWp float64) error {
	doc, err := f.client.Collection("rate_tiers").Doc(tierID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("%w: %s", ErrTierNotFound, tierID)
		}
		return fmt.Errorf("failed to get rate tier %s: %w", tierID, err)
	}

	var tier types.RateTier
	if err := unmarshalDocJSON(doc, &tier); err != nil {
		return err
	}
	tier.RatePerKWp = ratePerKWp
	return f.setRateTier(ctx, tier)
}

// ListSPVs retrieves all SPVs ordered by code.
func (f *FirestoreProvider) ListSPVs(ctx context.Context) ([]types.SPV, error) {
	iter := f.client.Collection("spvs").OrderBy("code", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var spvs []types.SPV
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error iterating spvs: %w", err)
		}

		var spv types.SPV
		if err := unmarshalDocJSON(doc, &spv); err != nil {
			log.Ctx(ctx).WarnContext(ctx, "bad spv doc", slog.String("spvID", doc.Ref.ID), slog.Any("err", err))
			continue
		}
		spvs = append(spvs, spv)
	}
	return spvs, nil
}

// GetSPVByCode retrieves an SPV by its code.
func (f *FirestoreProvider) GetSPVByCode(ctx context.Context, code string) (types.SPV, error) {
	iter := f.client.Collection("spvs").Where("code", "==", code).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return types.SPV{}, fmt.Errorf("%w: %s", ErrSPVNotFound, code)
	}
	if err != nil {
		return types.SPV{}, fmt.Errorf("failed to query spv %s: %w", code, err)
	}

	var spv types.SPV
	if err := unmarshalDocJSON(doc, &spv); err != nil {
		return types.SPV{}, err
	}
	return spv, nil
}

// InsertAudit adds an entry to the "audit_log" collection as a JSON blob.
// The document ID is a fixed-width timestamp for efficient range queries.
func (f *FirestoreProvider) InsertAudit(ctx context.Context, entry types.AuditEntry) error {
	jsonBytes, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}

	docID := entry.Timestamp.UTC().Format(auditDocIDLayout)
	_, err = f.client.Collection("audit_log").Doc(docID).Set(ctx, map[string]interface{}{
		"json":      string(jsonBytes),
		"timestamp": entry.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

// GetAuditLog retrieves audit entries within the specified time range.
// Uses document ID range queries for efficient filtering without reading all
// documents.
func (f *FirestoreProvider) GetAuditLog(ctx context.Context, start, end time.Time) ([]types.AuditEntry, error) {
	coll := f.client.Collection("audit_log")
	startDocID := start.UTC().Format(auditDocIDLayout)
	endDocID := end.UTC().Format(auditDocIDLayout)

	iter := coll.
		Where(firestore.DocumentID, ">=", coll.Doc(startDocID)).
		Where(firestore.DocumentID, "<", coll.Doc(endDocID)).
		OrderBy(firestore.DocumentID, firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	var entries []types.AuditEntry
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error iterating audit log: %w", err)
		}

		var entry types.AuditEntry
		if err := unmarshalDocJSON(doc, &entry); err != nil {
			log.Ctx(ctx).WarnContext(ctx, "bad audit doc", slog.String("docID", doc.Ref.ID), slog.Any("err", err))
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
