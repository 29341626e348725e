package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/skratchdot/open-golang/open"
	"github.com/spf13/cobra"

	"chainboy/config"
	"chainboy/emulator"
	"chainboy/persist"
	"chainboy/util"
)

var version = "dev"

const shutdownTimeout = 5 * time.Second

type serveFlags struct {
	configPath string
	rom        string
	watch      bool
	noTray     bool
	noBrowser  bool
	logLevel   string
}

func newRootCommand() *cobra.Command {
	var f serveFlags

	root := &cobra.Command{
		Use:           "chainboy",
		Short:         "Play cartridges and upload their save states to a vault",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), cmd, f)
		},
	}

	flags := root.Flags()
	flags.StringVarP(&f.configPath, "config", "c", "", "path to config.yaml (default: user config dir)")
	flags.StringVar(&f.rom, "rom", "", "cartridge file to select at startup")
	flags.BoolVar(&f.watch, "watch", false, "reselect the cartridge whenever the file changes")
	flags.BoolVar(&f.noTray, "no-tray", false, "do not show a systray icon")
	flags.BoolVar(&f.noBrowser, "no-browser", false, "do not open the web UI in a browser")
	flags.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(newDriversCommand(), newVersionCommand(), newVaultCommand())
	return root
}

func newDriversCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "drivers",
		Short: "List the emulator and persistence drivers",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "emulator:")
			for _, name := range emulator.Drivers() {
				d, _ := emulator.DriverByName(name)
				printDriver(out, name, d)
			}
			fmt.Fprintln(out, "persistence:")
			for _, name := range persist.Drivers() {
				d, _ := persist.DriverByName(name)
				printDriver(out, name, d)
			}
		},
	}
}

func printDriver(out io.Writer, name string, driver interface{}) {
	desc := ""
	if d, ok := driver.(interface{ DisplayDescription() string }); ok {
		desc = d.DisplayDescription()
	}
	fmt.Fprintf(out, "  %-8s %s\n", name, desc)
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display the version of chainboy",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "chainboy", version)
		},
	}
}

func loadConfig(cmd *cobra.Command, f serveFlags) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}

	// flags win over file and environment:
	if f.rom != "" {
		cfg.ROM = f.rom
	}
	if cmd.Flags().Changed("watch") {
		cfg.WatchROM = f.watch
	}
	if f.noTray {
		cfg.Web.Tray = false
	}
	if f.noBrowser {
		cfg.Web.OpenBrowser = false
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	return cfg, cfg.Validate()
}

func setupLogging(cfg *config.Config) (*log.Logger, func()) {
	var w io.Writer = os.Stderr
	cleanup := func() {}

	logPath := ""
	if cfg.Log.File {
		psl, path, err := util.OpenLogFile("chainboy")
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not open log file '%s' for writing: %v\n", path, err)
		} else {
			w, logPath = psl, path
			cleanup = func() { _ = psl.Flush(); _ = psl.Close() }
		}
	}

	logger := util.NewLogger(w, cfg.Log.Level)
	log.SetDefault(logger)
	if logPath != "" {
		logger.Info("logging to file", "path", logPath)
	}
	return logger, cleanup
}

func serve(ctx context.Context, cmd *cobra.Command, f serveFlags) (err error) {
	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}

	logger, closeLog := setupLogging(cfg)
	defer closeLog()
	defer func() {
		if p := recover(); p != nil {
			util.LogPanic(logger, p)
			panic(p)
		}
	}()

	if cfg.StatsView != "" {
		stop := launchStatsView(cfg.StatsView)
		defer stop()
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	app, err := NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer scancel()
		if cerr := app.Close(sctx); cerr != nil {
			logger.Warn("shutdown", "err", cerr)
		}
	}()

	// start the web server:
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- app.web.Serve()
		cancel()
	}()

	if lerr := app.LoadROM(); lerr != nil {
		logger.Error("load rom", "rom", cfg.ROM, "err", lerr)
	}

	// start up a systray app (or just open web UI):
	runUI(ctx, cfg.BrowserURL(), cfg.Web.Tray, cfg.Web.OpenBrowser, cancel)

	cancel()
	select {
	case err = <-serveErr:
	default:
	}
	logger.Info("bye")
	return err
}

func openWebUI(url string) {
	if err := open.Start(url); err != nil {
		log.Warn("open browser", "url", url, "err", err)
	}
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "chainboy:", err)
		os.Exit(1)
	}
}
