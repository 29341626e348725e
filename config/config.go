// Package config loads the application settings from a YAML file, a .env file and CHAINBOY_*
// environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"chainboy/interfaces"
)

const (
	FileName   = "config.yaml"
	EnvPrefix  = "CHAINBOY_"
	DotEnvFile = ".env"
)

type Config struct {
	Web         WebConfig         `yaml:"web"`
	Emulator    EmulatorConfig    `yaml:"emulator"`
	Persistence PersistenceConfig `yaml:"persistence"`
	Log         LogConfig         `yaml:"log"`

	// Platform is stamped on every uploaded record.
	Platform string `yaml:"platform"`
	// StatsView is the listen address of the runtime stats server; empty disables it.
	StatsView string `yaml:"statsview"`
	// ROM is selected at startup when set.
	ROM      string `yaml:"rom"`
	WatchROM bool   `yaml:"watchRom"`
}

type WebConfig struct {
	ListenHost  string `yaml:"listenHost"`
	ListenPort  int    `yaml:"listenPort"`
	BrowserHost string `yaml:"browserHost"`
	Tray        bool   `yaml:"tray"`
	OpenBrowser bool   `yaml:"openBrowser"`
}

type EmulatorConfig struct {
	Driver string `yaml:"driver"`
}

type PersistenceConfig struct {
	Driver   string        `yaml:"driver"`
	Endpoint string        `yaml:"endpoint"`
	DeviceID string        `yaml:"deviceId"`
	Timeout  time.Duration `yaml:"timeout"`
	Delay    time.Duration `yaml:"delay"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	// File enables the timestamped log file in the temp directory.
	File bool `yaml:"file"`
}

// Default values
const (
	defaultListenHost  = "127.0.0.1"
	defaultListenPort  = 27640
	defaultBrowserHost = "127.0.0.1"
	defaultEmulator    = "mock"
	defaultPersistence = "mock"
	defaultPlatform    = "GameBoy Advance"
	defaultLogLevel    = "info"
	defaultDelay       = 2 * time.Second
	defaultTimeout     = 30 * time.Second
)

func Default() *Config {
	return &Config{
		Web: WebConfig{
			ListenHost:  defaultListenHost,
			ListenPort:  defaultListenPort,
			BrowserHost: defaultBrowserHost,
			Tray:        true,
			OpenBrowser: true,
		},
		Emulator: EmulatorConfig{Driver: defaultEmulator},
		Persistence: PersistenceConfig{
			Driver:  defaultPersistence,
			Timeout: defaultTimeout,
			Delay:   defaultDelay,
		},
		Log:      LogConfig{Level: defaultLogLevel, File: true},
		Platform: defaultPlatform,
	}
}

// DefaultPath is where the configuration file is looked up when no path is given.
func DefaultPath() (string, error) {
	dir, err := interfaces.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// Load builds the configuration. An empty path means DefaultPath, which may be missing; an
// explicit path must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		var err error
		if path, err = DefaultPath(); err != nil {
			log.Debug("no user config dir", "err", err)
			path = ""
		}
	}

	cfg := Default()
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
			log.Debug("no config file", "path", path)
		}
	}

	if err := godotenv.Load(DotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", DotEnvFile, err)
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err = dec.Decode(c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	log.Debug("loaded config file", "path", path)
	return nil
}

// ApplyEnv overrides settings from CHAINBOY_* variables found through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	boolean := func(name string, dst *bool) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = b
		return nil
	}
	duration := func(name string, dst *time.Duration) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = d
		return nil
	}

	str("WEB_LISTEN_HOST", &c.Web.ListenHost)
	if v, ok := lookup(EnvPrefix + "WEB_LISTEN_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sWEB_LISTEN_PORT: %w", EnvPrefix, err)
		}
		c.Web.ListenPort = port
	}
	str("WEB_BROWSER_HOST", &c.Web.BrowserHost)
	str("EMULATOR_DRIVER", &c.Emulator.Driver)
	str("PERSISTENCE_DRIVER", &c.Persistence.Driver)
	str("PERSISTENCE_ENDPOINT", &c.Persistence.Endpoint)
	str("DEVICE_ID", &c.Persistence.DeviceID)
	str("PLATFORM", &c.Platform)
	str("LOG_LEVEL", &c.Log.Level)
	str("STATSVIEW", &c.StatsView)
	str("ROM", &c.ROM)

	for name, dst := range map[string]*bool{
		"WEB_TRAY":         &c.Web.Tray,
		"WEB_OPEN_BROWSER": &c.Web.OpenBrowser,
		"LOG_FILE":         &c.Log.File,
		"WATCH_ROM":        &c.WatchROM,
	} {
		if err := boolean(name, dst); err != nil {
			return err
		}
	}
	for name, dst := range map[string]*time.Duration{
		"PERSISTENCE_TIMEOUT": &c.Persistence.Timeout,
		"PERSISTENCE_DELAY":   &c.Persistence.Delay,
	} {
		if err := duration(name, dst); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Web.ListenHost == "" {
		c.Web.ListenHost = defaultListenHost
	}
	if c.Web.BrowserHost == "" {
		c.Web.BrowserHost = defaultBrowserHost
	}
	if c.Platform == "" {
		c.Platform = defaultPlatform
	}
	if c.Log.Level == "" {
		c.Log.Level = defaultLogLevel
	}
	if c.Persistence.DeviceID == "" {
		c.Persistence.DeviceID = uuid.NewString()
		log.Debug("generated device id", "deviceId", c.Persistence.DeviceID)
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.Web.ListenPort <= 0 || c.Web.ListenPort > 65535 {
		errs = append(errs, fmt.Errorf("web.listenPort %d out of range", c.Web.ListenPort))
	}
	if c.Emulator.Driver == "" {
		errs = append(errs, errors.New("emulator.driver is required"))
	}
	if c.Persistence.Driver == "" {
		errs = append(errs, errors.New("persistence.driver is required"))
	}
	if c.Persistence.Timeout < 0 {
		errs = append(errs, errors.New("persistence.timeout must not be negative"))
	}
	if c.Persistence.Delay < 0 {
		errs = append(errs, errors.New("persistence.delay must not be negative"))
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.WatchROM && c.ROM == "" {
		errs = append(errs, errors.New("watchRom needs rom"))
	}
	return errors.Join(errs...)
}

// ListenAddr is the address the web server binds.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Web.ListenHost, c.Web.ListenPort)
}

// BrowserURL is the address handed to the browser.
func (c *Config) BrowserURL() string {
	return fmt.Sprintf("http://%s:%d/", c.Web.BrowserHost, c.Web.ListenPort)
}
