//go:build integration

package e2e

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/light-bringer/catalog-mirror/internal/app/catalog/repo"
	"github.com/light-bringer/catalog-mirror/internal/config"
	"github.com/light-bringer/catalog-mirror/internal/pkg/obs"
	"github.com/light-bringer/catalog-mirror/internal/services"
	httphandler "github.com/light-bringer/catalog-mirror/internal/transport/http"
	"github.com/light-bringer/catalog-mirror/tests/testutil"
)

// Suite is a running service backed by SQLite and a fake upstream feed.
type Suite struct {
	Feed *testutil.FeedServer
	API  *httptest.Server
	Svc  *services.ServiceOptions
}

func setupTest(t *testing.T, capacity int) *Suite {
	t.Helper()

	feed := testutil.NewFeedServer(t)
	cfg := config.Config{
		FeedURL:      feed.URL,
		FetchTimeout: 5 * time.Second,
		FeedMaxPages: 1,
		Capacity:     capacity,
		SyncInterval: time.Hour,
		SyncHistory:  10,
		StoreDriver:  repo.DriverSQLite,
		SQLitePath:   filepath.Join(t.TempDir(), "catalog.db"),
	}

	clk := testutil.NewTickingClock()
	store, err := repo.OpenSQLite(cfg.SQLitePath, clk)
	require.NoError(t, err)

	logger := obs.Discard()
	svc := services.Wire(cfg, logger, clk, store)
	api := httptest.NewServer(httphandler.NewRouter(svc.HTTPHandler, logger))
	t.Cleanup(func() {
		api.Close()
		svc.Close()
	})

	return &Suite{Feed: feed, API: api, Svc: svc}
}

func (s *Suite) do(t *testing.T, method, path string) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, s.API.URL+path, nil)
	require.NoError(t, err)
	resp, err := s.API.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func (s *Suite) sync(t *testing.T) httphandler.SyncResult {
	t.Helper()
	code, body := s.do(t, http.MethodPost, "/api/v1/sync")
	var res httphandler.SyncResult
	require.NoError(t, json.Unmarshal(body, &res), "status %d: %s", code, body)
	return res
}

func (s *Suite) page(t *testing.T, page, size int) httphandler.RecordPage {
	t.Helper()
	code, body := s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/products?page=%d&size=%d", page, size))
	require.Equal(t, http.StatusOK, code)
	var res httphandler.RecordPage
	require.NoError(t, json.Unmarshal(body, &res))
	return res
}

func products(from, to int) []*testutil.ProductBuilder {
	out := make([]*testutil.ProductBuilder, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, testutil.NewProductBuilder(int64(i)).
			WithTitle(fmt.Sprintf("Product %d", i)).
			WithHandle(fmt.Sprintf("product-%d", i)))
	}
	return out
}
