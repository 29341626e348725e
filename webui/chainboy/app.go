package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"chainboy/cartridge"
	"chainboy/config"
	"chainboy/emulator"
	"chainboy/engine"
	"chainboy/persist"
	"chainboy/webui/dist"
)

// include these emulator drivers:
import (
	_ "chainboy/emulator/mock"
	_ "chainboy/emulator/snescore"
)

// include these persistence drivers:
import (
	_ "chainboy/persist/grpcvault"
	_ "chainboy/persist/httpvault"
	_ "chainboy/persist/mock"
	_ "chainboy/persist/sqlitevault"
)

const watchDelay = 500 * time.Millisecond

// App wires the capabilities, the controller, its view models and the web server together.
type App struct {
	cfg *config.Config
	log *log.Logger

	session emulator.Session
	store   persist.Persister

	controller *engine.Controller
	viewModel  *engine.ViewModel
	web        *WebServer
	watcher    *cartridge.Watcher
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{
		cfg: cfg,
		log: log.Default().WithPrefix("app"),
	}

	var err error
	a.session, err = emulator.Open(cfg.Emulator.Driver)
	if err != nil {
		return nil, fmt.Errorf("emulator: %w", err)
	}

	a.store, err = persist.Open(cfg.Persistence.Driver, persist.Config{
		Endpoint: cfg.Persistence.Endpoint,
		DeviceID: cfg.Persistence.DeviceID,
		Timeout:  cfg.Persistence.Timeout,
		Delay:    cfg.Persistence.Delay,
	})
	if err != nil {
		closeIfCloser(a.session)
		return nil, fmt.Errorf("persistence: %w", err)
	}

	a.controller = engine.NewController(a.session, a.store,
		engine.WithPlatform(cfg.Platform),
		engine.WithLogger(log.Default().WithPrefix("engine")),
	)

	// construct our viewModel and web server:
	a.viewModel = engine.NewViewModel(ctx, a.controller, engine.ActiveDrivers{
		Emulator:    cfg.Emulator.Driver,
		Persistence: cfg.Persistence.Driver,
	})
	a.web = NewWebServer(cfg.ListenAddr(), dist.Content)

	// inform viewModel of web server and vice versa:
	a.viewModel.ProvideViewNotifier(a.web)
	a.web.ProvideViewCommandHandler(a.viewModel)

	// initialize viewModel now that all dependencies are set up:
	a.viewModel.Init()

	a.log.Info("ready",
		"emulator", cfg.Emulator.Driver,
		"persistence", cfg.Persistence.Driver,
		"platform", cfg.Platform,
	)
	return a, nil
}

// LoadROM selects the configured cartridge file and, if asked, reselects it whenever it changes
// on disk.
func (a *App) LoadROM() error {
	if a.cfg.ROM == "" {
		return nil
	}

	if err := a.controller.SelectFile(cartridge.Disk(a.cfg.ROM)); err != nil {
		return err
	}
	if !a.cfg.WatchROM {
		return nil
	}

	w, err := cartridge.Watch(a.cfg.ROM, watchDelay,
		func(f cartridge.File) {
			a.log.Info("cartridge changed on disk", "name", f.Name())
			if err := a.controller.SelectFile(f); err != nil {
				a.log.Error("reselect cartridge", "err", err)
			}
		},
		func(err error) {
			a.log.Warn("watch cartridge", "err", err)
		},
	)
	if err != nil {
		return fmt.Errorf("watch %s: %w", a.cfg.ROM, err)
	}
	a.watcher = w
	return nil
}

func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.watcher != nil {
		errs = append(errs, a.watcher.Close())
	}
	errs = append(errs, a.web.Shutdown(ctx))

	// commands still running finish before their capabilities go away:
	a.viewModel.Close()

	errs = append(errs, closeIfCloser(a.session), closeIfCloser(a.store))
	return errors.Join(errs...)
}

func closeIfCloser(v interface{}) error {
	if c, ok := v.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
