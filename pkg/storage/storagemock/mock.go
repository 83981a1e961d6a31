package storagemock

import (
	"context"
	"time"

	"github.com/clearsol/omtracker/pkg/storage"
	"github.com/clearsol/omtracker/pkg/types"
	"github.com/stretchr/testify/mock"
)

type MockDatabase struct {
	mock.Mock
}

var _ storage.Database = (*MockDatabase)(nil)

func (m *MockDatabase) GetSettings(ctx context.Context) (types.Settings, int, error) {
	args := m.Called(ctx)
	if len(args) > 0 {
		return args.Get(0).(types.Settings), args.Int(1), args.Error(2)
	}
	return types.Settings{}, 0, nil
}

func (m *MockDatabase) SetSettings(ctx context.Context, settings types.Settings, version int) error {
	args := m.Called(ctx, settings, version)
	return args.Error(0)
}

func (m *MockDatabase) ListSites(ctx context.Context) ([]types.Site, error) {
	args := m.Called(ctx)
	if len(args) > 0 {
		return args.Get(0).([]types.Site), args.Error(1)
	}
	return nil, nil
}

func (m *MockDatabase) GetSite(ctx context.Context, siteID string) (types.Site, error) {
	args := m.Called(ctx, siteID)
	if len(args) > 0 {
		return args.Get(0).(types.Site), args.Error(1)
	}
	return types.Site{}, nil
}

func (m *MockDatabase) CreateSite(ctx context.Context, site types.Site) error {
	args := m.Called(ctx, site)
	return args.Error(0)
}

func (m *MockDatabase) UpdateSite(ctx context.Context, site types.Site) error {
	args := m.Called(ctx, site)
	return args.Error(0)
}

func (m *MockDatabase) DeleteSite(ctx context.Context, siteID string) error {
	args := m.Called(ctx, siteID)
	return args.Error(0)
}

func (m *MockDatabase) ReplaceSites(ctx context.Context, sites []types.Site) error {
	args := m.Called(ctx, sites)
	return args.Error(0)
}

func (m *MockDatabase) ListRateTiers(ctx context.Context) ([]types.RateTier, error) {
	args := m.Called(ctx)
	if len(args) > 0 {
		return args.Get(0).([]types.RateTier), args.Error(1)
	}
	return nil, nil
}

func (m *MockDatabase) UpdateRateTierRate(ctx context.Context, tierID string, ratePerKWp float64) error {
	args := m.Called(ctx, tierID, ratePerKWp)
	return args.Error(0)
}

func (m *MockDatabase) ListSPVs(ctx context.Context) ([]types.SPV, error) {
	args := m.Called(ctx)
	if len(args) > 0 {
		return args.Get(0).([]types.SPV), args.Error(1)
	}
	return nil, nil
}

func (m *MockDatabase) GetSPVByCode(ctx context.Context, code string) (types.SPV, error) {
	args := m.Called(ctx, code)
	if len(args) > 0 {
		return args.Get(0).(types.SPV), args.Error(1)
	}
	return types.SPV{}, nil
}

func (m *MockDatabase) InsertAudit(ctx context.Context, entry types.AuditEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockDatabase) GetAuditLog(ctx context.Context, start, end time.Time) ([]types.AuditEntry, error) {
	args := m.Called(ctx, start, end)
	if len(args) > 0 {
		return args.Get(0).([]types.AuditEntry), args.Error(1)
	}
	return nil, nil
}

func (m *MockDatabase) Close() error {
	args := m.Called()
	return args.Error(0)
}
