package cmd

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sternrassler/mlb-roster-client/internal/testutil"
	"github.com/Sternrassler/mlb-roster-client/pkg/cache"
	"github.com/Sternrassler/mlb-roster-client/pkg/config"
	"github.com/Sternrassler/mlb-roster-client/pkg/pipeline"
	"github.com/Sternrassler/mlb-roster-client/pkg/roster"
)

func newMockLeague(t *testing.T) *testutil.MockStatsAPI {
	t.Helper()
	mock := testutil.NewMockStatsAPI()
	t.Cleanup(mock.Close)

	mock.AddTeam(roster.Team{ID: 147, Name: "New York Yankees", League: "American League", Division: "American League East"},
		testutil.Player(1, "Aaron Judge", "Outfielder", "RF"),
		testutil.Player(2, "Gerrit Cole", "Pitcher", "P"),
	)
	mock.AddTeam(roster.Team{ID: 119, Name: "Los Angeles Dodgers", League: "National League", Division: "National League West"},
		testutil.Player(3, "Mookie Betts", "Infielder", "SS"),
		testutil.Player(4, "Will Smith", "Catcher", "C"),
	)
	return mock
}

func memoryConfig(upstreamURL string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Upstream.BaseURL = upstreamURL
	cfg.Upstream.Season = 2024
	cfg.Cache.Backend = config.CacheMemory
	cfg.Cache.MinPlayers = 1
	cfg.Pipeline.BatchSize = 1
	return cfg
}

func TestPlayersCommandStructure(t *testing.T) {
	assert.Equal(t, "players", playersCmd.Use)
	assert.NotEmpty(t, playersCmd.Long)
	assert.NotNil(t, playersCmd.RunE)

	for _, name := range []string{"direct", "refresh", "search", "position", "page", "page-size", "batch-size", "backend-url", "wait"} {
		assert.NotNil(t, playersCmd.Flags().Lookup(name), "missing flag --%s", name)
	}
}

func TestPipelineConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Pipeline.BatchSize = 4
	cfg.Pipeline.MaxConcurrency = 2
	cfg.Pipeline.Shuffle = "incoming"
	cfg.Pipeline.Seed = 9
	cfg.Upstream.Season = 2022
	cfg.Upstream.Timeout = 7 * time.Second

	pc := pipelineConfig(cfg)

	assert.Equal(t, 4, pc.BatchSize)
	assert.Equal(t, 2, pc.Batch.MaxConcurrency)
	assert.Equal(t, 2022, pc.Batch.Season)
	assert.Equal(t, 7*time.Second, pc.Batch.Timeout)
	assert.Equal(t, 7*time.Second, pc.DirectoryTimeout)
	assert.Equal(t, roster.ShuffleIncoming, pc.Shuffle)
	assert.Equal(t, uint64(9), pc.Seed)
}

func TestOpenResources_Backends(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Cache.Backend = config.CacheMemory

		res, err := openResources(ctx, cfg)
		require.NoError(t, err)
		defer res.Close()

		assert.NotNil(t, res.store)
		assert.NotNil(t, res.tracker)
		assert.Nil(t, res.sqlite)
	})

	t.Run("sqlite", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Cache.SQLitePath = filepath.Join(t.TempDir(), "cache.db")

		res, err := openResources(ctx, cfg)
		require.NoError(t, err)
		defer res.Close()

		assert.NotNil(t, res.sqlite)
		_, err = res.store.Load(ctx)
		assert.ErrorIs(t, err, cache.ErrCacheMiss)
	})

	t.Run("unreachable redis", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Cache.Backend = config.CacheRedis
		cfg.Cache.RedisAddr = "127.0.0.1:1"

		_, err := openResources(ctx, cfg)
		assert.Error(t, err)
	})
}

func TestAggregate_Direct(t *testing.T) {
	mock := newMockLeague(t)
	cfg := memoryConfig(mock.URL())
	ctx := context.Background()

	res, err := openResources(ctx, cfg)
	require.NoError(t, err)
	defer res.Close()

	source, err := newSource(cfg, true, res.tracker)
	require.NoError(t, err)
	ctrl, err := pipeline.New(source, res.store, pipelineConfig(cfg))
	require.NoError(t, err)

	snap, err := aggregate(ctx, ctrl, false, 5*time.Second)
	require.NoError(t, err)

	assert.Equal(t, pipeline.PhaseComplete, snap.Phase)
	assert.Len(t, snap.Players, 4)
	assert.Equal(t, 2, snap.TeamCount())

	// the second run restores from the shared store without touching upstream
	before := mock.RequestCount("")
	again, err := pipeline.New(source, res.store, pipelineConfig(cfg))
	require.NoError(t, err)
	snap, err = aggregate(ctx, again, false, 5*time.Second)
	require.NoError(t, err)
	assert.Len(t, snap.Players, 4)
	assert.Equal(t, before, mock.RequestCount(""))

	// refresh reloads
	refreshed, err := pipeline.New(source, res.store, pipelineConfig(cfg))
	require.NoError(t, err)
	snap, err = aggregate(ctx, refreshed, true, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), snap.Generation)
	assert.Len(t, snap.Players, 4)
	assert.Greater(t, mock.RequestCount(""), before)
}

func TestAggregate_DirectoryFailure(t *testing.T) {
	mock := testutil.NewMockStatsAPI()
	defer mock.Close()
	mock.SetResponse("/teams", testutil.NewNotFoundResponse())

	cfg := memoryConfig(mock.URL())
	res, err := openResources(context.Background(), cfg)
	require.NoError(t, err)
	defer res.Close()

	source, err := newSource(cfg, true, res.tracker)
	require.NoError(t, err)
	ctrl, err := pipeline.New(source, res.store, pipelineConfig(cfg))
	require.NoError(t, err)

	_, err = aggregate(context.Background(), ctrl, false, 5*time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load players")
}

func TestPrintPage(t *testing.T) {
	team := roster.Team{ID: 147, Name: "New York Yankees"}
	page := roster.Page{
		Items: roster.Flatten(team, []roster.RosterEntry{
			testutil.Player(99, "Aaron Judge", "Outfielder", "RF"),
		}),
		Page:       2,
		TotalPages: 3,
		Total:      25,
	}

	var buf bytes.Buffer
	require.NoError(t, printPage(&buf, page))

	out := buf.String()
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "Aaron Judge")
	assert.Contains(t, out, "New York Yankees")
	assert.Contains(t, out, "page 2 of 3 (25 players)")
}

func TestPrintPage_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printPage(&buf, roster.Page{Page: 1, TotalPages: 1}))
	assert.Equal(t, "No players found\n", buf.String())
}

func TestRunPlayers_EndToEnd(t *testing.T) {
	mock := newMockLeague(t)
	t.Setenv("MLB_UPSTREAM_BASE_URL", mock.URL())
	t.Setenv("UPSTREAM_BASE_URL", "")

	originals := []any{cfgFile, playersDirect, playersSearch, playersPosition, cacheStore, season}
	defer func() {
		cfgFile = originals[0].(string)
		playersDirect = originals[1].(bool)
		playersSearch = originals[2].(string)
		playersPosition = originals[3].(string)
		cacheStore = originals[4].(string)
		season = originals[5].(int)
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	}()

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs([]string{
		"players", "--direct", "--cache", "memory", "--season", "2024",
		"--position", "P", "--log-level", "error",
	})

	require.NoError(t, rootCmd.Execute(), "stderr: %s", errOut.String())

	assert.Contains(t, out.String(), "Gerrit Cole")
	assert.NotContains(t, out.String(), "Aaron Judge")
	assert.Contains(t, out.String(), fmt.Sprintf("page %d of %d (%d players)", 1, 1, 1))
	assert.Equal(t, "2024", mock.LastQuery("/teams", "season"))
}
