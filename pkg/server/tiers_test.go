package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/clearsol/omtracker/pkg/fees"
	"github.com/clearsol/omtracker/pkg/storage"
	"github.com/clearsol/omtracker/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestListTiers(t *testing.T) {
	_, mockDB, handler := newTestServer(t)

	mockDB.On("ListRateTiers", mock.Anything).Return(fees.DefaultRateTiers, nil)

	req := httptest.NewRequest("GET", "/api/tiers", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	resp := w.Result()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tiers []types.RateTier
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tiers))
	require.Len(t, tiers, 3)
	assert.Equal(t, "<20MW", tiers[0].Name)
	assert.Nil(t, tiers[2].MaxCapacityMW)
}

func TestUpdateTierRate(t *testing.T) {
	_, mockDB, handler := newTestServer(t)

	mockDB.On("UpdateRateTierRate", mock.Anything, "missing", mock.Anything).Return(storage.ErrTierNotFound)
	mockDB.On("UpdateRateTierRate", mock.Anything, "1", 2.5).Return(nil)
	mockDB.On("InsertAudit", mock.Anything, mock.AnythingOfType("types.AuditEntry")).Return(nil)

	t.Run("Negative Rate", func(t *testing.T) {
		req := httptest.NewRequest("PUT", "/api/tiers/1", strings.NewReader(`{"ratePerKWp": -1}`))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
		assert.Contains(t, w.Body.String(), "rate cannot be negative")
	})

	t.Run("Not Found", func(t *testing.T) {
		req := httptest.NewRequest("PUT", "/api/tiers/missing", strings.NewReader(`{"ratePerKWp": 2.5}`))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Result().StatusCode)
	})

	t.Run("Updated", func(t *testing.T) {
		req := httptest.NewRequest("PUT", "/api/tiers/1", strings.NewReader(`{"ratePerKWp": 2.5}`))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Result().StatusCode)
		mockDB.AssertCalled(t, "UpdateRateTierRate", mock.Anything, "1", 2.5)
	})
}
