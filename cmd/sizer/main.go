package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"battery_sizer/internal/catalog"
	"battery_sizer/internal/config"
	"battery_sizer/internal/narrative"
	"battery_sizer/internal/sizing"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries what every subcommand needs once flags and environment have
// been resolved.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	tables *catalog.Tables
	notes  narrative.NoteSet

	tablesFile  string
	notesFile   string
	peakRate    float64
	offPeakRate float64
	verbose     bool
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:          "sizer",
		Short:        "Battery bank sizing for backup and off-grid storage",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = a.logger.Sync()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.tablesFile, "tables", "", "YAML file overriding the chemistry and environment tables (env SIZER_TABLES_FILE)")
	pf.StringVar(&a.notesFile, "notes", "", "YAML file overriding the regulatory notes (env SIZER_NOTES_FILE)")
	pf.Float64Var(&a.peakRate, "peak-rate", 0, "peak tariff in £/kWh (env SIZER_PEAK_RATE)")
	pf.Float64Var(&a.offPeakRate, "off-peak-rate", 0, "off-peak tariff in £/kWh (env SIZER_OFF_PEAK_RATE)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(calculateCmd(a))
	rootCmd.AddCommand(compareCmd(a))
	rootCmd.AddCommand(catalogCmd(a))
	rootCmd.AddCommand(serveCmd(a))
	return rootCmd
}

// setup reads the environment, applies flag overrides and loads the tables
// and notes.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.New()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("tables") {
		cfg.TablesFile = a.tablesFile
	}
	if flags.Changed("notes") {
		cfg.NotesFile = a.notesFile
	}
	if flags.Changed("peak-rate") {
		cfg.PeakRate = a.peakRate
	}
	if flags.Changed("off-peak-rate") {
		cfg.OffPeakRate = a.offPeakRate
	}
	a.cfg = cfg

	a.logger, err = newLogger(cfg, a.verbose)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}

	a.tables = catalog.Default()
	if cfg.TablesFile != "" {
		if a.tables, err = catalog.LoadFile(cfg.TablesFile); err != nil {
			return err
		}
		a.logger.Debug("loaded tables", zap.String("path", cfg.TablesFile))
	}

	a.notes = narrative.BS7671()
	if cfg.NotesFile != "" {
		if a.notes, err = narrative.LoadNotesFile(cfg.NotesFile); err != nil {
			return err
		}
		a.logger.Debug("loaded regulatory notes", zap.String("path", cfg.NotesFile), zap.String("name", a.notes.Name))
	}
	return nil
}

func (a *app) calculator(lookup sizing.Lookup) *sizing.Calculator {
	return sizing.NewCalculator(lookup,
		sizing.WithTariff(a.cfg.Tariff()),
		sizing.WithNotes(a.notes))
}

func newLogger(cfg *config.Config, verbose bool) (*zap.Logger, error) {
	lvl, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}
