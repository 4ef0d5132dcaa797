package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/reqvest/internal/config"
	"github.com/rickgao/reqvest/internal/model"
	"github.com/rickgao/reqvest/internal/reference"
	"github.com/rickgao/reqvest/internal/session"
)

func writeFixtures(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	listings := filepath.Join(dir, "tickers.json")
	f, err := os.Create(listings)
	require.NoError(t, err)
	require.NoError(t, reference.WriteArray(f, []model.Listing{
		{Ticker: "AAPL", Name: "Apple Inc.", Market: "stocks"},
		{Ticker: "GOOGL", Name: "Alphabet Inc. Class A", Market: "stocks"},
		{Ticker: "GOOG", Name: "Alphabet Inc. Class C", Market: "stocks"},
	}))
	require.NoError(t, f.Close())

	cfgPath := filepath.Join(dir, "reqvest.yaml")
	cfg := "log:\n  level: error\nlistings:\n  path: " + listings + "\nvotes:\n  backend: memory\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0644))
	return cfgPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "none.env")))
	err := cmd.Execute()
	return out.String(), err
}

func TestResolveCmd(t *testing.T) {
	cfgPath := writeFixtures(t)

	out, err := run(t, "resolve", "--config", cfgPath, "--json", "aapl, Alphabet, 123")
	require.NoError(t, err)

	var views []outcomeView
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	require.Len(t, views, 3)
	assert.Equal(t, outcomeView{Token: "AAPL", Kind: "confirmed", Ticker: "AAPL", Method: "ticker", Score: 100}, views[0])
	assert.Equal(t, "ambiguous", views[1].Kind)
	assert.Equal(t, []string{"GOOG", "GOOGL"}, views[1].Candidates)
	assert.Equal(t, "unmatched", views[2].Kind)
}

func TestResolveCmd_Table(t *testing.T) {
	cfgPath := writeFixtures(t)

	out, err := run(t, "resolve", "--config", cfgPath, "Apple")
	require.NoError(t, err)
	assert.Contains(t, out, "TOKEN")
	assert.Contains(t, out, "APPLE")
	assert.Contains(t, out, "confirmed")
}

func TestResolveCmd_MissingListings(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "reqvest.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("listings:\n  path: "+filepath.Join(dir, "nope.json")+"\n"), 0644))

	_, err := run(t, "resolve", "--config", cfgPath, "AAPL")
	assert.Error(t, err)
}

func TestExplicitConfigMustExist(t *testing.T) {
	_, err := run(t, "resolve", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "AAPL")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}

func TestVotesCountCmd_Memory(t *testing.T) {
	cfgPath := writeFixtures(t)

	out, err := run(t, "votes", "count", "--config", cfgPath, "g1")
	require.NoError(t, err)
	assert.Contains(t, out, "No requests have been made yet.")
}

func TestVotesResetCmd_RequiresYes(t *testing.T) {
	cfgPath := writeFixtures(t)

	_, err := run(t, "votes", "reset", "--config", cfgPath, "g1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "reqvest dev"))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(config.LogConfig{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "k", "v")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	_, err = newLogger(config.LogConfig{Level: "loud", Format: "text"}, &buf)
	assert.Error(t, err)
	_, err = newLogger(config.LogConfig{Level: "info", Format: "xml"}, &buf)
	assert.Error(t, err)
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestHealthHandler(t *testing.T) {
	idx, err := reference.Build([]model.Listing{{Ticker: "AAPL", Name: "Apple Inc"}}, reference.Options{})
	require.NoError(t, err)

	sessions := session.NewManager(nil, nil)
	_, err = sessions.Open(session.Key{Namespace: "g1", UserID: "u1"}, "alice",
		[]session.Term{{Token: "ALPHABET", Candidates: []string{"GOOG", "GOOGL"}}}, nil)
	require.NoError(t, err)

	deps := healthDeps{
		db:          fakePinger{},
		index:       idx,
		sessions:    sessions,
		connections: func() int { return 2 },
		metricsPath: "/metrics",
		logger:      slog.Default(),
	}

	t.Run("healthy", func(t *testing.T) {
		rr := httptest.NewRecorder()
		newHealthHandler(deps).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
		require.Equal(t, http.StatusOK, rr.Code)

		var body struct {
			Status     string                     `json:"status"`
			Components map[string]json.RawMessage `json:"components"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, "healthy", body.Status)
		assert.JSONEq(t, `{"open":1}`, string(body.Components["sessions"]))
		assert.JSONEq(t, `{"connections":2}`, string(body.Components["gateway"]))
		assert.JSONEq(t, `"connected"`, string(body.Components["postgres"]))
	})

	t.Run("database down", func(t *testing.T) {
		down := deps
		down.db = fakePinger{err: errors.New("connection refused")}
		rr := httptest.NewRecorder()
		newHealthHandler(down).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.Contains(t, rr.Body.String(), "connection refused")
	})

	t.Run("debug sessions", func(t *testing.T) {
		rr := httptest.NewRecorder()
		newHealthHandler(deps).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/debug/sessions", nil))
		require.Equal(t, http.StatusOK, rr.Code)

		var infos []session.Info
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &infos))
		require.Len(t, infos, 1)
		assert.Equal(t, "ALPHABET", infos[0].Term)
	})

	t.Run("metrics", func(t *testing.T) {
		rr := httptest.NewRecorder()
		newHealthHandler(deps).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "reqvest_session_open")
	})
}
