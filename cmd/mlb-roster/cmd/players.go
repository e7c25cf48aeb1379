package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sternrassler/mlb-roster-client/pkg/batch"
	"github.com/Sternrassler/mlb-roster-client/pkg/config"
	"github.com/Sternrassler/mlb-roster-client/pkg/pipeline"
	"github.com/Sternrassler/mlb-roster-client/pkg/roster"
)

var (
	playersDirect     bool
	playersRefresh    bool
	playersSearch     string
	playersPosition   string
	playersPage       int
	playersPageSize   int
	playersBatchSize  int
	playersBackendURL string
	playersWait       time.Duration
)

var playersCmd = &cobra.Command{
	Use:   "players",
	Short: "Aggregate every active roster and print one page of players",
	Long: `Players restores the aggregate player list from the cache, or loads the
team directory and fetches rosters batch by batch until every team is
covered. It then prints one page filtered by name/team search and position.

Examples:
  mlb-roster players --search judge
  mlb-roster players --position P --page 3
  mlb-roster players --direct --refresh --cache memory`,
	RunE: runPlayers,
}

func init() {
	playersCmd.Flags().BoolVar(&playersDirect, "direct", false,
		"Query the statistics provider directly instead of the relay backend")
	playersCmd.Flags().BoolVar(&playersRefresh, "refresh", false,
		"Discard the cached aggregate and reload from scratch")
	playersCmd.Flags().StringVarP(&playersSearch, "search", "s", "",
		"Case-insensitive substring of player or team name")
	playersCmd.Flags().StringVar(&playersPosition, "position", "all",
		"Position filter (all, P, C, IF, OF)")
	playersCmd.Flags().IntVar(&playersPage, "page", 1,
		"Page to print (1-based, clamped to the last page)")
	playersCmd.Flags().IntVar(&playersPageSize, "page-size", 0,
		"Override page size")
	playersCmd.Flags().IntVar(&playersBatchSize, "batch-size", 0,
		"Override teams per batch")
	playersCmd.Flags().StringVar(&playersBackendURL, "backend-url", "",
		"Override relay backend base URL")
	playersCmd.Flags().DurationVar(&playersWait, "wait", 2*time.Minute,
		"Maximum time to wait for the aggregate")
	rootCmd.AddCommand(playersCmd)
}

func runPlayers(cmd *cobra.Command, args []string) error {
	position, err := roster.ParsePositionFilter(playersPosition)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(func(o *config.Overrides) {
		o.PageSize = playersPageSize
		o.BatchSize = playersBatchSize
		o.BackendURL = playersBackendURL
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := openResources(ctx, cfg)
	if err != nil {
		return err
	}
	defer res.Close()

	source, err := newSource(cfg, playersDirect, res.tracker)
	if err != nil {
		return err
	}

	ctrl, err := pipeline.New(source, res.store, pipelineConfig(cfg))
	if err != nil {
		return err
	}

	snap, err := aggregate(ctx, ctrl, playersRefresh, playersWait)
	if err != nil {
		return err
	}

	page := roster.Project(snap.Players, roster.Query{
		Search:   playersSearch,
		Position: position,
		Page:     playersPage,
		PageSize: cfg.Pipeline.PageSize,
	})
	if snap.FailedTeams > 0 {
		cmd.PrintErrf("warning: %d team roster(s) could not be loaded\n", snap.FailedTeams)
	}
	return printPage(cmd.OutOrStdout(), page)
}

// pipelineConfig maps configuration onto the controller.
func pipelineConfig(cfg *config.Config) pipeline.Config {
	pc := pipeline.DefaultConfig()
	pc.BatchSize = cfg.Pipeline.BatchSize
	pc.Batch = batch.Config{
		MaxConcurrency: cfg.Pipeline.MaxConcurrency,
		Timeout:        cfg.Upstream.Timeout,
		Season:         cfg.Upstream.Season,
	}
	pc.DirectoryTimeout = cfg.Upstream.Timeout
	pc.Shuffle = roster.ShuffleMode(cfg.Pipeline.Shuffle)
	pc.Seed = cfg.Pipeline.Seed
	return pc
}

// aggregate runs the controller until the aggregate settles, optionally after
// a refresh, and stops it again.
func aggregate(ctx context.Context, ctrl *pipeline.Controller, refresh bool, wait time.Duration) (*pipeline.Snapshot, error) {
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- ctrl.Run(runCtx) }()
	defer func() {
		cancel()
		<-done
	}()

	waitCtx, cancelWait := context.WithTimeout(ctx, wait)
	defer cancelWait()

	var minGeneration uint64
	if refresh {
		if err := ctrl.Refresh(waitCtx); err != nil {
			return nil, fmt.Errorf("refresh: %w", err)
		}
		minGeneration = 1
	}

	snap, err := ctrl.WaitFor(waitCtx, func(s *pipeline.Snapshot) bool {
		return s.Generation >= minGeneration && s.Phase.Settled()
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("aggregate not ready after %s (%d of %d teams)", wait, snap.Cursor, snap.TeamCount())
		}
		return nil, err
	}
	if snap.Phase == pipeline.PhaseError {
		return nil, fmt.Errorf("load players: %w", snap.Err)
	}
	return snap, nil
}

func printPage(out io.Writer, page roster.Page) error {
	if page.Total == 0 {
		_, err := fmt.Fprintln(out, "No players found")
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tPOS\tNO\tTEAM\tSTATUS")
	for _, p := range page.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			p.Person.FullName,
			p.Position.Abbreviation,
			p.JerseyNumber,
			p.Team.Name,
			p.Status.Code,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(out, "\npage %d of %d (%d players)\n", page.Page, page.TotalPages, page.Total)
	return err
}
