package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/mlb-roster-client/internal/server"
	"github.com/Sternrassler/mlb-roster-client/pkg/client"
	"github.com/Sternrassler/mlb-roster-client/pkg/config"
)

var (
	servePort int
	serveHost string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the roster relay backend",
	Long: `Serve relays team and roster queries to the statistics provider under
/api/mlb, wrapping every response in a {success, data} envelope. It also
exposes /health and Prometheus metrics at /metrics.

Example:
  mlb-roster serve --port 3000
  PORT=8080 mlb-roster serve`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0,
		"Override listen port (default 3000, env PORT)")
	serveCmd.Flags().StringVar(&serveHost, "host", "",
		"Listen host (default: all interfaces)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(func(o *config.Overrides) { o.Port = servePort })
	if err != nil {
		return err
	}
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := openResources(ctx, cfg)
	if err != nil {
		return err
	}
	defer res.Close()

	c, err := newUpstreamClient(cfg, cfg.Upstream.BaseURL, "statsapi-client", res.tracker)
	if err != nil {
		return err
	}

	srvCfg := server.DefaultConfig()
	srvCfg.Host = cfg.Server.Host
	srvCfg.Port = cfg.Server.Port
	srvCfg.MaxConcurrency = cfg.Pipeline.MaxConcurrency

	log.Info().
		Str("upstream", cfg.Upstream.BaseURL).
		Str("user_agent", cfg.Upstream.UserAgent).
		Msg("Starting relay backend")

	return server.New(client.NewStatsAPI(c, cfg.Upstream.Season), srvCfg).ListenAndServe(ctx)
}
