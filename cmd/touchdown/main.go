package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vjranagit/touchdown/internal/config"
	"github.com/vjranagit/touchdown/pkg/landing"
	"github.com/vjranagit/touchdown/pkg/render"
	"github.com/vjranagit/touchdown/pkg/report"
	"github.com/vjranagit/touchdown/pkg/storage"
)

const (
	version = "0.3.0"
)

func main() {
	cobra.CheckErr(NewCmd().ExecuteContext(context.Background()))
}

// app carries the resolved configuration between the root and its subcommands
type app struct {
	cfg *config.Config
}

func NewCmd() *cobra.Command {
	cobra.EnableCommandSorting = false
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "touchdown [command] [flags] [args]",
		Short:         "touchdown analyses the landing phase of a flight telemetry export",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: a.setup,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Print(cmd.UsageString())
		},
	}
	rootCmd.PersistentFlags().StringP("config", "c", "", "`<File>` YAML configuration")
	rootCmd.PersistentFlags().StringArrayP("signal", "s", nil, "`<Uri>` signal of interest, repeatable; replaces the configured set")
	rootCmd.PersistentFlags().String("log-level", "", "`<Level>` debug, info, warn or error")
	rootCmd.PersistentFlags().String("cache-dir", "", "`<Dir>` cache parsed tables here")

	reportCmd := &cobra.Command{
		Use:   "report [flags] <export.csv | snapshot>",
		Short: "Print the landing report",
		RunE:  a.doReport,
	}
	reportCmd.Args = cobra.MaximumNArgs(1)
	reportCmd.Flags().Bool("snapshot", false, "read a snapshot instead of a CSV export; the argument, if any, is its path")
	reportCmd.Flags().StringP("plot", "p", "", "`<File>` also render every signal to a .pdf or .png")
	reportCmd.Flags().BoolP("table", "t", false, "print every metric as a table")

	plotCmd := &cobra.Command{
		Use:   "plot [flags] <export.csv>",
		Short: "Render every signal against elapsed time",
		RunE:  a.doPlot,
	}
	plotCmd.Args = cobra.ExactArgs(1)
	plotCmd.Flags().StringP("output", "o", "touchdown.pdf", "`<File>` .pdf or .png to write")

	signalsCmd := &cobra.Command{
		Use:   "signals [flags] <export.csv>",
		Short: "List the signals found in an export",
		RunE:  a.doSignals,
	}
	signalsCmd.Args = cobra.ExactArgs(1)

	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save or inspect a table snapshot",
	}
	snapshotSaveCmd := &cobra.Command{
		Use:   "save [flags] <export.csv> [snapshot]",
		Short: "Parse an export and save it as a snapshot",
		RunE:  a.doSnapshotSave,
	}
	snapshotSaveCmd.Args = cobra.RangeArgs(1, 2)
	snapshotLoadCmd := &cobra.Command{
		Use:   "load [flags] [snapshot]",
		Short: "Load a snapshot and list its signals",
		RunE:  a.doSnapshotLoad,
	}
	snapshotLoadCmd.Args = cobra.MaximumNArgs(1)
	snapshotCmd.AddCommand(snapshotSaveCmd, snapshotLoadCmd)

	serveCmd := &cobra.Command{
		Use:   "serve [flags] <export.csv>",
		Short: "Serve the report, series and plots over HTTP",
		RunE:  a.doServe,
	}
	serveCmd.Args = cobra.ExactArgs(1)
	serveCmd.Flags().StringP("listen", "l", "", "`<Addr>` listen address")
	serveCmd.Flags().BoolP("watch", "w", false, "reload when the export changes")

	rootCmd.AddCommand(
		reportCmd,
		plotCmd,
		signalsCmd,
		snapshotCmd,
		serveCmd,
	)
	return rootCmd
}

// setup loads the configuration, applies flag overrides and installs the logger
func (a *app) setup(cmd *cobra.Command, args []string) error {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	if signals, _ := cmd.Flags().GetStringArray("signal"); len(signals) > 0 {
		cfg.Source.Signals = signals
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	if dir, _ := cmd.Flags().GetString("cache-dir"); dir != "" {
		cfg.Storage.CacheDir = dir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()})))
	a.cfg = cfg
	return nil
}

// open loads an export through the load cache when one is configured
func (a *app) open(ctx context.Context, path string) (*storage.Store, error) {
	archiveCfg := a.cfg.ToArchiveConfig()
	if archiveCfg == nil {
		return storage.LoadCSV(ctx, path, a.cfg.Source.Signals...)
	}

	archive, err := storage.OpenArchive(archiveCfg)
	if err != nil {
		slog.Warn("cache unavailable, loading directly", "dir", archiveCfg.Path, "err", err)
		return storage.LoadCSV(ctx, path, a.cfg.Source.Signals...)
	}
	defer archive.Close()

	return storage.LoadCSVCached(ctx, archive, path, a.cfg.Source.Signals...)
}

func (a *app) doReport(cmd *cobra.Command, args []string) error {
	fromSnapshot, err := cmd.Flags().GetBool("snapshot")
	if err != nil {
		return err
	}
	plotPath, err := cmd.Flags().GetString("plot")
	if err != nil {
		return err
	}
	asTable, err := cmd.Flags().GetBool("table")
	if err != nil {
		return err
	}

	var store *storage.Store
	var title string
	switch {
	case fromSnapshot:
		title = a.cfg.Storage.SnapshotPath
		if len(args) == 1 {
			title = args[0]
		}
		store, err = storage.LoadSnapshot(title)
	case len(args) == 1:
		title = args[0]
		store, err = a.open(cmd.Context(), title)
	default:
		return errors.New("an export path or --snapshot is required")
	}
	if err != nil {
		return err
	}

	sum := landing.Summarize(landing.NewExtractor(store, a.cfg.ExtractorOptions()...))
	out := cmd.OutOrStdout()
	if asTable {
		report.WriteTable(out, sum, a.cfg.Render.TableStyle)
	} else if err := report.Write(out, sum); err != nil {
		return err
	}

	if plotPath == "" {
		return nil
	}
	return a.plot(store, filepath.Base(title), plotPath)
}

func (a *app) doPlot(cmd *cobra.Command, args []string) error {
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	store, err := a.open(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if err := a.plot(store, filepath.Base(args[0]), output); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Plot written to %s\n", output)
	return nil
}

// plot renders the configured signals, in configured order, to a file whose
// extension picks the sink
func (a *app) plot(store *storage.Store, title, path string) error {
	series := render.Panels(store, a.cfg.Source.Signals)
	layout := a.cfg.Layout(title)

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".pdf":
		return render.NewPDF(layout).Save(path, series)
	case ".png":
		sink := render.NewPNG(layout)
		sink.PanelWidth, sink.PanelHeight = a.cfg.Render.PanelWidth, a.cfg.Render.PanelHeight
		return sink.Save(path, series)
	default:
		return fmt.Errorf("unsupported plot format %q, use .pdf or .png", ext)
	}
}

func (a *app) doSignals(cmd *cobra.Command, args []string) error {
	store, err := a.open(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	report.WriteSignals(cmd.OutOrStdout(), store, a.cfg.Render.TableStyle)
	return nil
}

func (a *app) doSnapshotSave(cmd *cobra.Command, args []string) error {
	path := a.cfg.Storage.SnapshotPath
	if len(args) == 2 {
		path = args[1]
	}

	store, err := a.open(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if err := store.SaveLevel(path, a.cfg.Storage.CompressionLevel); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %d rows of %d signals to %s\n", store.Len(), len(store.Signals()), path)
	return nil
}

func (a *app) doSnapshotLoad(cmd *cobra.Command, args []string) error {
	path := a.cfg.Storage.SnapshotPath
	if len(args) == 1 {
		path = args[0]
	}

	store, err := storage.LoadSnapshot(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Snapshot %s: origin %s\n", path, store.Origin().Format(storage.TimestampLayout))
	report.WriteSignals(cmd.OutOrStdout(), store, a.cfg.Render.TableStyle)
	return nil
}
