package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clearsol/omtracker/pkg/fees"
	"github.com/clearsol/omtracker/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestListSPVs(t *testing.T) {
	_, mockDB, handler := newTestServer(t)

	mockDB.On("ListSPVs", mock.Anything).Return([]types.SPV{
		{ID: "spv-1", Code: "OS2", Name: "Oak Solar 2"},
		{ID: "spv-2", Code: "AD1", Name: "Alder 1"},
	}, nil)
	mockDB.On("ListSites", mock.Anything).Return([]types.Site{
		{ID: "site-1", SystemSizeKWp: 500, ContractStatus: types.ContractStatusYes, SPVCode: "OS2"},
		{ID: "site-2", SystemSizeKWp: 250, SPVCode: "OS2"},
		{ID: "site-3", SystemSizeKWp: 100},
	}, nil)
	mockDB.On("ListRateTiers", mock.Anything).Return(fees.DefaultRateTiers, nil)

	req := httptest.NewRequest("GET", "/api/spvs", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	resp := w.Result()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var summaries []types.SPVSummary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summaries))
	require.Len(t, summaries, 2)
	assert.Equal(t, "OS2", summaries[0].SPV.Code)
	assert.Equal(t, 2, summaries[0].TotalSites)
	assert.Equal(t, 1, summaries[0].ContractedSites)
	assert.Equal(t, 750.0, summaries[0].TotalCapacityKWp)
	assert.Equal(t, 500.0, summaries[0].ContractedCapacityKWp)
	assert.Equal(t, 0, summaries[1].TotalSites)
}
