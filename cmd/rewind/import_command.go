package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"rewind/internal/config"
	"rewind/internal/importer"
	"rewind/internal/sources"
)

type importFlags struct {
	dryRun      bool
	jsonOut     bool
	verbose     bool
	profile     string
	tag         string
	order       string
	windowDays  int
	excludes    []string
	excludeFile string
}

func newImportCommand(ctx *commandContext) *cobra.Command {
	flags := &importFlags{}

	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Import viewing history from a source export",
		Long: `Import viewing history into your Serializd diary.

Each subcommand reads one export format, resolves shows against TMDB,
collapses binge rewatch bursts, and logs whatever is not already in the
diary. Re-running the same import is safe: events already logged are
reported as skipped, never duplicated.

Examples:
  rewind import netflix ViewingActivity.csv --profile Michael
  rewind import plex com.plexapp.plugins.library.db --dry-run
  rewind import csv watched.csv --order newest --json`,
	}

	importCmd.AddCommand(newImportSourceCommand(ctx, flags, sources.KindNetflix,
		"netflix <viewing-activity.csv>", "Import a Netflix viewing activity export"))
	importCmd.AddCommand(newImportSourceCommand(ctx, flags, sources.KindPlex,
		"plex <library.db>", "Import watch history from a Plex library database"))
	importCmd.AddCommand(newImportSourceCommand(ctx, flags, sources.KindCSV,
		"csv <history.csv>", "Import a free-form CSV watch history"))

	pf := importCmd.PersistentFlags()
	pf.BoolVar(&flags.dryRun, "dry-run", false, "Report what would be written without writing")
	pf.BoolVar(&flags.jsonOut, "json", false, "Emit the run report as JSON")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")
	pf.StringVar(&flags.profile, "profile", "", "Only import events for this account or profile name")
	pf.StringVar(&flags.tag, "tag", "", "Tag applied to created entries (default per source)")
	pf.StringVar(&flags.order, "order", "", "Replay order: oldest or newest (default from config)")
	pf.IntVar(&flags.windowDays, "window-days", 0, "Rewatch dedup window in days (default from config)")
	pf.StringArrayVar(&flags.excludes, "exclude", nil, "Show title to exclude (repeatable)")
	pf.StringVar(&flags.excludeFile, "exclude-file", "", "File with one excluded show title per line")

	return importCmd
}

func newImportSourceCommand(ctx *commandContext, flags *importFlags, kind sources.Kind, use, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, ctx, flags, kind, args[0])
		},
	}
}

func runImport(cmd *cobra.Command, ctx *commandContext, flags *importFlags, kind sources.Kind, inputArg string) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}

	inputPath, err := config.ExpandPath(inputArg)
	if err != nil {
		return fmt.Errorf("resolve input path: %w", err)
	}

	logger, err := ctx.newLogger(cfg, flags.verbose)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	// One import at a time per state directory. Concurrent runs would race
	// on the diary index and double-write entries.
	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another rewind import is already running (lock %s)", cfg.LockPath())
	}
	defer func() { _ = lock.Unlock() }()

	parser, err := sources.New(kind, logger)
	if err != nil {
		return err
	}
	resolver, err := ctx.newResolver(cfg, logger)
	if err != nil {
		return fmt.Errorf("create TMDB client: %w", err)
	}
	diary, err := ctx.newDiary(cfg)
	if err != nil {
		return fmt.Errorf("create serializd client: %w", err)
	}

	excluded, err := collectExcludedShows(flags, cfg)
	if err != nil {
		return err
	}

	order := flags.order
	if order == "" {
		order = cfg.Import.Order
	}
	windowDays := flags.windowDays
	if windowDays == 0 {
		windowDays = cfg.Import.DedupWindowDays
	}

	signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	imp := importer.New(parser, resolver, diary, logger)
	result, err := imp.Run(signalCtx, importer.Options{
		InputPath:     inputPath,
		DryRun:        flags.dryRun,
		Profile:       flags.profile,
		ExcludedShows: excluded,
		WindowDays:    windowDays,
		Order:         order,
		Tag:           flags.tag,
	})
	if err != nil {
		return err
	}

	if flags.jsonOut {
		return writeJSON(cmd, result)
	}
	renderImportReport(cmd.OutOrStdout(), result)
	return nil
}

// collectExcludedShows merges the repeatable --exclude flag with the exclude
// file, preferring the flag-supplied file over the configured one.
func collectExcludedShows(flags *importFlags, cfg *config.Config) ([]string, error) {
	excluded := append([]string(nil), flags.excludes...)

	path := flags.excludeFile
	if path == "" {
		path = cfg.Import.ExcludePath
	}
	if path != "" {
		expanded, err := config.ExpandPath(path)
		if err != nil {
			return nil, fmt.Errorf("resolve exclude file: %w", err)
		}
		fromFile, err := readExcludeFile(expanded)
		if err != nil {
			return nil, err
		}
		excluded = append(excluded, fromFile...)
	}
	return excluded, nil
}
