package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"nativekeymap"
	"nativekeymap/internal/config"
	"nativekeymap/internal/daemon"
)

// app carries the resolved configuration and the seams commands use.
type app struct {
	out io.Writer

	cfgPath string
	cfg     config.Config

	// flag overrides
	display string
	format  string
	level   string

	logLevel *slog.LevelVar

	layouts    func(display string) daemon.Layouts
	newWatcher func(opts nativekeymap.Options) daemon.ChangeWatcher
}

func newApp(out io.Writer) *app {
	return &app{
		out:      out,
		logLevel: new(slog.LevelVar),
		layouts: func(display string) daemon.Layouts {
			return daemon.Native{Display: display}
		},
		newWatcher: func(opts nativekeymap.Options) daemon.ChangeWatcher {
			return nativekeymap.NewWatcher(opts)
		},
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "keymapctl",
		Short:         "Inspect the active keyboard layout",
		Long:          "Print what every physical key types under each modifier, identify the active layout, and stream changes.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.SetOut(a.out)

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgPath, "config", config.DefaultPath(), "config file path")
	flags.StringVar(&a.display, "display", "", "X display (default $DISPLAY)")
	flags.StringVarP(&a.format, "output", "o", "", "output format: json or yaml")
	flags.StringVar(&a.level, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newDumpCmd(a),
		newLayoutCmd(a),
		newISOCmd(a),
		newWatchCmd(a),
		newServeCmd(a),
		newQueryCmd(a),
		newConfigCmd(a),
	)
	return root
}

// setup loads the config file, applies flag overrides and installs the
// logger on stderr.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("display") {
		cfg.Display = a.display
	}
	if a.format != "" {
		cfg.OutputFormat = a.format
	}
	if a.level != "" {
		cfg.Log.Level = a.level
	}
	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logLevel.Set(level)

	opts := &slog.HandlerOptions{Level: a.logLevel}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

func (a *app) options(extended bool) nativekeymap.Options {
	return nativekeymap.Options{Display: a.cfg.Display, ExtendedLevels: extended || a.cfg.ExtendedLevels}
}

func (a *app) render(v any) error {
	return render(a.out, a.cfg.OutputFormat, v)
}
