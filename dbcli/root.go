package dbcli

import (
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/alekitto/btree/config"
	"github.com/alekitto/btree/database"
	"github.com/alekitto/btree/metrics"
)

// env is what the root command prepares for its subcommands before they run.
type env struct {
	cfg      config.Config
	log      zerolog.Logger
	registry *prometheus.Registry
	metrics  *metrics.Collector
}

// load resolves the configuration and builds the logger and optional
// metrics registry.
func (e *env) load(cmd *cobra.Command) error {
	cfg, err := config.Load(cmd.Root().PersistentFlags())
	if err != nil {
		return err
	}

	log, err := cfg.Logger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	e.cfg = cfg
	e.log = log
	e.registry = nil
	e.metrics = nil
	if cfg.MetricsEnabled {
		e.registry = prometheus.NewRegistry()
		if e.metrics, err = metrics.New(e.registry); err != nil {
			return errors.Wrap(err, "failed to register metrics")
		}
	}
	return nil
}

func (e *env) openDatabase() (*database.Database, error) {
	return database.NewDatabase(database.Options{
		MaxSnapshots: e.cfg.MaxSnapshots,
		Logger:       e.log,
		Metrics:      e.metrics,
	})
}

// printMetrics writes the metrics summary when metrics are enabled.
func (e *env) printMetrics(w io.Writer) error {
	if e.registry == nil {
		return nil
	}
	summary, err := metrics.Summary(e.registry)
	if err != nil {
		return errors.Wrap(err, "failed to gather metrics")
	}
	_, err = fmt.Fprintf(w, "\n-- metrics --\n%s\n", summary)
	return err
}

// NewRootCmd builds a fresh command tree.
func NewRootCmd() *cobra.Command {
	e := &env{}

	root := &cobra.Command{
		Use:   "btree",
		Short: "In-memory ordered key-value store backed by 2-3-4 trees",
		Long: "A Command Line Interface (CLI) for working with named collections, " +
			"each backed by an order-4 B-tree, and point-in-time snapshots of them.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.load(cmd)
		},
	}

	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(newRunCmd(e))
	root.AddCommand(newDemoCmd(e))
	root.AddCommand(newBenchCmd(e))
	root.AddCommand(newVersionCmd())
	return root
}

// Root command for the CLI
var RootCmd = NewRootCmd()

// Execute runs the root command
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing CLI: %v\n", err)
		os.Exit(1)
	}
}
