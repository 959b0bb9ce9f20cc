package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fullstackslife/guild-scout-reports/internal/config"
	"github.com/fullstackslife/guild-scout-reports/internal/credibility"
	"github.com/fullstackslife/guild-scout-reports/internal/model"
	"github.com/fullstackslife/guild-scout-reports/internal/reconcile"
	"github.com/fullstackslife/guild-scout-reports/internal/store"
)

func newTestServer(t *testing.T) (*httptest.Server, *env) {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "scout-test.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))

	e := &env{
		Store:       st,
		Engine:      reconcile.NewEngine(),
		Accumulator: credibility.NewAccumulator(st),
	}
	srv := httptest.NewServer(newRouter(e, config.ServerConfig{}))
	t.Cleanup(func() {
		srv.Close()
		e.Close()
	})
	return srv, e
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestServer_Health(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[map[string]string](t, resp)
	assert.Equal(t, "ok", body["status"])
}

func TestServer_Reconcile(t *testing.T) {
	srv, e := newTestServer(t)

	pair := model.ReportPair{
		ReportID:      "report-1",
		ContributorID: "villager-7",
		Guild:         "iron-pact",
		Manual:        &model.ScoutReport{Might: model.Num(1_000_000), Food: model.Num(50_000)},
		Parsed:        &model.ScoutReport{Might: model.Num(1_005_000), Food: model.Num(50_000)},
	}

	resp := postJSON(t, srv.URL+"/reconcile", pair)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	rec := decodeBody[model.ReconciliationRecord](t, resp)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "report-1", rec.ReportID)
	require.NotNil(t, rec.Result)
	assert.Equal(t, 2, rec.Result.FieldsCompared)
	assert.Equal(t, 100.0, rec.Result.OverallMatchPercent)

	// The record is queryable and the profile lands once the background
	// update drains.
	got, err := http.Get(srv.URL + "/reconciliations/" + rec.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, got.StatusCode)
	got.Body.Close()

	e.Accumulator.Wait()
	profile, err := e.Store.GetProfile(context.Background(), "villager-7", "iron-pact")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, 1, profile.TotalEntries)
}

func TestServer_Reconcile_Validation(t *testing.T) {
	srv, _ := newTestServer(t)

	missingContributor := postJSON(t, srv.URL+"/reconcile", model.ReportPair{
		Manual: &model.ScoutReport{},
	})
	assert.Equal(t, http.StatusBadRequest, missingContributor.StatusCode)
	missingContributor.Body.Close()

	missingManual := postJSON(t, srv.URL+"/reconcile", model.ReportPair{
		ContributorID: "villager-7",
	})
	assert.Equal(t, http.StatusBadRequest, missingManual.StatusCode)
	missingManual.Body.Close()

	resp, err := http.Post(srv.URL+"/reconcile", "application/json", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestServer_GetProfile(t *testing.T) {
	srv, e := newTestServer(t)

	resp, err := http.Get(srv.URL + "/profiles/villager-7?guild=iron-pact")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	_, err = e.Accumulator.Update(context.Background(), "villager-7", "iron-pact",
		&model.ReconciliationResult{OverallMatchPercent: 100, FieldsCompared: 1, MatchingFields: 1,
			Fields: map[string]model.FieldComparison{"might": {Match: true}}})
	require.NoError(t, err)

	resp, err = http.Get(srv.URL + "/profiles/villager-7?guild=iron-pact")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	profile := decodeBody[model.CredibilityProfile](t, resp)
	assert.Equal(t, 1, profile.TotalEntries)
	assert.Equal(t, model.TierNew, profile.Tier)
}

func TestServer_GetReconciliation_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/reconciliations/no-such-id")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}
