package main

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"nativekeymap/internal/config"
	"nativekeymap/internal/daemon"
	"nativekeymap/internal/ipc"
	"nativekeymap/internal/keymap"
	"nativekeymap/internal/singleinstance"
	"nativekeymap/internal/workerutil"
)

type isoReport struct {
	ISO keymap.ISOState `json:"iso" yaml:"iso"`
}

func newDumpCmd(a *app) *cobra.Command {
	var all, extended bool
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the text every key produces under each modifier",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			opts := a.options(extended)
			km, err := a.layouts(opts.Display).KeyMap(opts.ExtendedLevels)
			if err != nil {
				return err
			}
			if !all {
				km = slices.DeleteFunc(slices.Clone(km), keymap.Mapping.IsEmpty)
			}
			if km == nil {
				km = []keymap.Mapping{}
			}
			return a.render(km)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "keep keys that produce no text")
	cmd.Flags().BoolVar(&extended, "extended", false, "include the Level5 probes (X11)")
	return cmd
}

func newLayoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "layout",
		Short: "Print the active layout",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			layout, err := a.layouts(a.cfg.Display).Layout()
			if err != nil {
				return err
			}
			return a.render(layout)
		},
	}
}

func newISOCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "iso",
		Short: "Report whether the keyboard is ISO or ANSI shaped",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return a.render(isoReport{ISO: a.layouts(a.cfg.Display).ISO()})
		},
	}
}

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print the layout once and again on every change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			layouts := a.layouts(a.cfg.Display)
			var mu sync.Mutex
			emit := func() {
				layout, err := layouts.Layout()
				if err != nil {
					slog.Warn("[DEBUG-KEYMAP] layout unavailable", "error", err)
					return
				}
				mu.Lock()
				defer mu.Unlock()
				if err := renderLine(a.out, layout); err != nil {
					slog.Warn("[DEBUG-KEYMAP] write failed", "error", err)
				}
			}

			w := a.newWatcher(a.options(false))
			if err := w.Start(emit); err != nil {
				return err
			}
			emit()
			<-cmd.Context().Done()
			return w.Stop()
		},
	}
}

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Stream layout changes over WebSocket and answer queries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				a.cfg.Serve.Addr = addr
			}
			opts := a.options(false)
			d := daemon.New(daemon.Options{
				Addr:           a.cfg.Serve.Addr,
				Endpoint:       a.cfg.Serve.PipeName,
				ExtendedLevels: opts.ExtendedLevels,
				LockName:       singleinstance.DefaultName(),
			}, a.layouts(opts.Display), a.newWatcher(opts))

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			if err := d.Start(ctx); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "websocket %s\nqueries   %s\n", d.URL(), d.Endpoint())

			var wg sync.WaitGroup
			workerutil.RunWithPanicRecovery(ctx, "config-reload", &wg, func(ctx context.Context) {
				if err := config.Watch(ctx, a.cfgPath, a.applyReload); err != nil {
					slog.Warn("[WARN-CONFIG] hot reload disabled", "path", a.cfgPath, "error", err)
				}
			}, workerutil.RecoveryOptions{MaxRetries: 3})

			<-ctx.Done()
			err := d.Stop()
			cancel()
			wg.Wait()
			return err
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "WebSocket listen address (default from config)")
	return cmd
}

// applyReload picks up settings that can change while serving.
func (a *app) applyReload(cfg config.Config) {
	if a.level != "" {
		return
	}
	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return
	}
	if a.logLevel.Level() != level {
		slog.Info("[DEBUG-CONFIG] log level changed", "level", level)
		a.logLevel.Set(level)
	}
}

func newQueryCmd(a *app) *cobra.Command {
	var extended bool
	var endpoint string
	cmd := &cobra.Command{
		Use:       "query <command>",
		Short:     "Ask a running daemon (" + strings.Join(ipc.Commands(), ", ") + ")",
		Args:      cobra.ExactArgs(1),
		ValidArgs: ipc.Commands(),
		RunE: func(_ *cobra.Command, args []string) error {
			if endpoint == "" {
				endpoint = a.cfg.Serve.PipeName
			}
			resp, err := ipc.Send(endpoint, ipc.Request{Command: args[0], ExtendedLevels: extended || a.cfg.ExtendedLevels})
			if err != nil {
				if ipc.IsConnectionError(err) {
					return fmt.Errorf("no daemon is listening (start one with `keymapctl serve`): %w", err)
				}
				return err
			}
			var result any
			if err := resp.Decode(&result); err != nil {
				return err
			}
			return a.render(result)
		},
	}
	cmd.Flags().BoolVar(&extended, "extended", false, "include the Level5 probes (get-keymap)")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "pipe or socket (default from config)")
	return cmd
}

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the config file",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file path",
			Args:  cobra.NoArgs,
			RunE: func(_ *cobra.Command, _ []string) error {
				_, err := fmt.Fprintln(a.out, a.cfgPath)
				return err
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration",
			Args:  cobra.NoArgs,
			RunE: func(_ *cobra.Command, _ []string) error {
				return a.render(a.cfg)
			},
		},
		&cobra.Command{
			Use:   "init",
			Short: "Write the defaults if no config file exists",
			Args:  cobra.NoArgs,
			RunE: func(_ *cobra.Command, _ []string) error {
				if _, err := config.EnsureFile(a.cfgPath); err != nil {
					return err
				}
				_, err := fmt.Fprintln(a.out, a.cfgPath)
				return err
			},
		},
	)
	return cmd
}
