package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"modmigrate/internal/runner"
	"modmigrate/pkg/config"
	"modmigrate/pkg/convert"
	"modmigrate/pkg/docstore"
	"modmigrate/pkg/identity"
	"modmigrate/pkg/logger"
	"modmigrate/pkg/source"
)

// migrateCmd converts every thread in the legacy database.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Convert legacy thread logs into the document store",
	Long: `Convert every thread in a legacy modmail SQLite database into the
canonical document schema and persist the documents locally.

Example usage:
  modmigrate migrate --from ./dragorydb.sqlite --to ./.logs --guild-id 1234
  modmigrate migrate --from https://host/dump.sqlite --to ./.logs \
    --guild-id 1234 --log-url https://logs.example.com --roster mods.yaml`,
	RunE: runMigrate,
}

var (
	fromArg         string
	toArg           string
	guildIDArg      string
	logURLArg       string
	logURLPrefixArg string
	directoryURLArg string
	rosterArg       string
	workersArg      int
	metricsAddrArg  string
	keepDownloadArg bool
)

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().StringVar(&fromArg, "from", "", "source database: local path or http(s) URL")
	migrateCmd.Flags().StringVar(&toArg, "to", "", "document store path")
	migrateCmd.Flags().StringVar(&guildIDArg, "guild-id", "", "guild id stamped into every document")
	migrateCmd.Flags().StringVar(&logURLArg, "log-url", "", "base URL for public thread log links")
	migrateCmd.Flags().StringVar(&logURLPrefixArg, "log-url-prefix", "", "path prefix for log links (NONE disables)")
	migrateCmd.Flags().StringVar(&directoryURLArg, "directory-url", "", "identity directory base URL")
	migrateCmd.Flags().StringVar(&rosterArg, "roster", "", "roster YAML with known identities (tag index)")
	migrateCmd.Flags().IntVar(&workersArg, "workers", 0, "max concurrent thread conversions")
	migrateCmd.Flags().StringVar(&metricsAddrArg, "metrics-addr", "", "expose prometheus metrics on this address")
	migrateCmd.Flags().BoolVar(&keepDownloadArg, "keep-download", false, "keep the downloaded source file after the run")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	cfgPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.LoadEffective(cfgPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	applyFlags(cfg)

	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	logger.Init(level)

	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Addr != "" {
		go serveMetrics(cfg.Metrics.Addr)
	}

	report, err := run(ctx, cfg)
	if err != nil {
		return err
	}
	fmt.Print(report.Summary())
	return nil
}

// applyFlags lets explicit flags win over config file and env values.
func applyFlags(cfg *config.Config) {
	if fromArg != "" {
		if isURL(fromArg) {
			cfg.Source.URL = fromArg
			cfg.Source.Path = ""
		} else {
			cfg.Source.Path = fromArg
			cfg.Source.URL = ""
		}
	}
	if toArg != "" {
		cfg.Store.DBPath = toArg
	}
	if guildIDArg != "" {
		cfg.Run.GuildID = guildIDArg
	}
	if logURLArg != "" {
		cfg.Run.LogURL = logURLArg
	}
	if logURLPrefixArg != "" {
		cfg.Run.LogURLPrefix = logURLPrefixArg
	}
	if directoryURLArg != "" {
		cfg.Directory.URL = directoryURLArg
	}
	if rosterArg != "" {
		cfg.Directory.Roster = rosterArg
	}
	if workersArg > 0 {
		cfg.Run.Workers = workersArg
	}
	if metricsAddrArg != "" {
		cfg.Metrics.Addr = metricsAddrArg
	}
	if keepDownloadArg {
		cfg.Source.KeepDownload = true
	}
}

// run wires the row source, identity directory and document store together
// and executes the batch.
func run(ctx context.Context, cfg *config.Config) (*runner.Report, error) {
	dbPath := cfg.Source.Path
	if cfg.Source.URL != "" {
		fetched, err := source.Fetch(ctx, cfg.Source.URL, os.TempDir())
		if err != nil {
			return nil, err
		}
		if !cfg.Source.KeepDownload {
			defer os.Remove(fetched)
		}
		dbPath = fetched
	}

	src, err := source.Open(dbPath)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	var roster *identity.Roster
	if cfg.Directory.Roster != "" {
		roster, err = identity.LoadRoster(cfg.Directory.Roster)
		if err != nil {
			return nil, err
		}
		logger.Info("roster_loaded", "path", cfg.Directory.Roster, "identities", roster.Len())
	}
	dir := identity.NewRESTDirectory(cfg.Directory.URL, roster, cfg.Directory.Timeout.Duration())
	resolver := identity.NewResolver(dir)

	store, err := docstore.OpenPebble(cfg.Store.DBPath)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	r := &runner.Runner{
		Source:       src,
		Store:        store,
		Assembler:    convert.NewAssembler(resolver, dir),
		GuildID:      cfg.Run.GuildID,
		LogURL:       cfg.Run.LogURL,
		LogURLPrefix: cfg.Run.LogURLPrefix,
		Workers:      cfg.Run.Workers,
	}
	return r.Run(ctx)
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	logger.Info("metrics_listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Warn("metrics_listener_stopped", "error", err)
	}
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
