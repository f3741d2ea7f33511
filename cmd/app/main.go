package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/maloquacious/goobtool/internal/config"
	"github.com/maloquacious/goobtool/internal/logger"
	"github.com/maloquacious/goobtool/internal/migrate"
	"github.com/maloquacious/goobtool/internal/store"
	"github.com/maloquacious/goobtool/internal/store/csvfile"
	"github.com/maloquacious/goobtool/internal/store/sqlite"
	"github.com/maloquacious/semver"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	version   = semver.Version{Minor: 2, PreRelease: "alpha", Build: semver.Commit()}
	buildDate = ""
)

var cfg config.Config

func main() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		logger.Default.Error("%v", err)
		os.Exit(1)
	}

	rootCmd := &cobra.Command{
		Use:           "app",
		Short:         "Goobergine migration tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags; environment values become the defaults
	rootCmd.PersistentFlags().StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database to migrate")
	rootCmd.PersistentFlags().StringVar(&cfg.RecordsPath, "records", cfg.RecordsPath, "CSV file tracking applied migrations")
	rootCmd.PersistentFlags().StringVar(&cfg.MigrationsDir, "migrations", cfg.MigrationsDir, "directory of NAME.up.sql/NAME.down.sql files")
	rootCmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			if buildDate != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (built %s)\n", version.String(), buildDate)
				return
			}
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}

	// migrate command group
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migration commands",
	}

	migrateUpCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations and revert ones whose files were removed",
		Args:  cobra.NoArgs,
		RunE:  runMigrateUp,
	}
	migrateDownCmd := &cobra.Command{
		Use:   "down NAME",
		Short: "Revert an applied migration using its recorded code",
		Args:  cobra.ExactArgs(1),
		RunE:  runMigrateDown,
	}
	migrateStatusCmd := &cobra.Command{
		Use:   "status",
		Short: "List migrations and whether they are applied",
		Args:  cobra.NoArgs,
		RunE:  runMigrateStatus,
	}

	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateStatusCmd)
	rootCmd.AddCommand(versionCmd, migrateCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

// env bundles what every migrate command needs.
// target is nil for commands that never run SQL.
type env struct {
	log     logger.Logger
	fs      afero.Fs
	target  *sqlite.Target
	records *csvfile.Store
	runner  *migrate.Runner
}

func openEnv(withTarget bool) (*env, error) {
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	log := logger.New(os.Stderr, level)

	e := &env{
		log: log,
		fs:  afero.NewOsFs(),
	}
	e.records = csvfile.New(e.fs, cfg.RecordsPath, log)

	var exec migrate.Executor
	if withTarget {
		e.target = sqlite.New(cfg.DBPath)
		if err := e.target.Open(); err != nil {
			return nil, err
		}
		exec = e.target
	}
	e.runner = migrate.NewRunner(exec, e.records, log)
	return e, nil
}

func (e *env) Close() error {
	if e.target != nil {
		return e.target.Close()
	}
	return nil
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	e, err := openEnv(true)
	if err != nil {
		return err
	}
	defer e.Close()

	defs, err := migrate.Load(e.fs, cfg.MigrationsDir)
	if err != nil {
		return err
	}
	done, err := e.runner.Apply(cmd.Context(), defs)
	if err != nil {
		return err
	}
	e.log.Info("applied %d migration(s)", len(done))
	return nil
}

func runMigrateDown(cmd *cobra.Command, args []string) error {
	e, err := openEnv(true)
	if err != nil {
		return err
	}
	defer e.Close()

	return e.runner.Revert(cmd.Context(), args[0])
}

// runMigrateStatus reads the record file only; the database is not opened.
func runMigrateStatus(cmd *cobra.Command, args []string) error {
	e, err := openEnv(false)
	if err != nil {
		return err
	}
	defer e.Close()

	exists, err := store.CheckExists(e.fs, e.records.Path())
	if err != nil {
		return err
	}
	if !exists {
		e.log.Info("no record file yet at %s", e.records.Path())
	}

	defs, err := migrate.Load(e.fs, cfg.MigrationsDir)
	if err != nil {
		return err
	}
	statuses, err := e.runner.Status(defs)
	if err != nil {
		return err
	}
	for _, s := range statuses {
		state := "pending"
		switch {
		case s.Stale:
			state = "applied (missing files)"
		case s.Applied:
			state = "applied"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-40s %s\n", s.Name, state)
	}
	return nil
}
