package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "GameBoy Advance", cfg.Platform)
	assert.Equal(t, "mock", cfg.Emulator.Driver)
	assert.Equal(t, "mock", cfg.Persistence.Driver)
	assert.Equal(t, 2*time.Second, cfg.Persistence.Delay)
}

func TestLoad_File(t *testing.T) {
	chdir(t, t.TempDir())
	path := writeFile(t, `
web:
  listenPort: 9000
  tray: false
emulator:
  driver: snes
persistence:
  driver: http
  endpoint: http://vault.local
  deviceId: dev-1
  timeout: 5s
platform: Super Nintendo
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Web.ListenPort)
	assert.False(t, cfg.Web.Tray)
	assert.True(t, cfg.Web.OpenBrowser)
	assert.Equal(t, "snes", cfg.Emulator.Driver)
	assert.Equal(t, "http", cfg.Persistence.Driver)
	assert.Equal(t, "http://vault.local", cfg.Persistence.Endpoint)
	assert.Equal(t, "dev-1", cfg.Persistence.DeviceID)
	assert.Equal(t, 5*time.Second, cfg.Persistence.Timeout)
	assert.Equal(t, "Super Nintendo", cfg.Platform)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "127.0.0.1:9000", cfg.ListenAddr())
	assert.Equal(t, "http://127.0.0.1:9000/", cfg.BrowserURL())
}

func TestLoad_UnknownKey(t *testing.T) {
	chdir(t, t.TempDir())
	path := writeFile(t, "nonsense: true\n")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_ExplicitPathMustExist(t *testing.T) {
	chdir(t, t.TempDir())
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_DotEnvAndEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, DotEnvFile), []byte("CHAINBOY_PLATFORM=Dot Env\nCHAINBOY_DEVICE_ID=from-dotenv\n"), 0644))
	t.Setenv("CHAINBOY_DEVICE_ID", "from-env")
	t.Setenv("CHAINBOY_PERSISTENCE_DELAY", "250ms")
	t.Setenv("CHAINBOY_WEB_TRAY", "false")
	t.Cleanup(func() { os.Unsetenv("CHAINBOY_PLATFORM") })

	path := writeFile(t, "platform: From File\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	// .env fills in what the environment does not set, and beats the file:
	assert.Equal(t, "Dot Env", cfg.Platform)
	assert.Equal(t, "from-env", cfg.Persistence.DeviceID)
	assert.Equal(t, 250*time.Millisecond, cfg.Persistence.Delay)
	assert.False(t, cfg.Web.Tray)
}

func TestApplyEnv_Errors(t *testing.T) {
	for name, env := range map[string]map[string]string{
		"port":     {"CHAINBOY_WEB_LISTEN_PORT": "http"},
		"bool":     {"CHAINBOY_WATCH_ROM": "maybe"},
		"duration": {"CHAINBOY_PERSISTENCE_TIMEOUT": "soon"},
	} {
		t.Run(name, func(t *testing.T) {
			err := Default().ApplyEnv(func(k string) (string, bool) {
				v, ok := env[k]
				return v, ok
			})
			assert.Error(t, err)
		})
	}
}

func TestApplyDefaults_GeneratesDeviceID(t *testing.T) {
	cfg := Default()
	cfg.applyDefaults()
	assert.Len(t, cfg.Persistence.DeviceID, 36)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Web.ListenPort = 0
	cfg.Emulator.Driver = ""
	cfg.Log.Level = "loud"
	cfg.WatchROM = true

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "web.listenPort")
	assert.Contains(t, err.Error(), "emulator.driver")
	assert.Contains(t, err.Error(), "log.level")
	assert.Contains(t, err.Error(), "watchRom")
}

// chdir changes the working directory for the duration of the test, like
// testing.T.Chdir (Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { require.NoError(t, os.Chdir(prev)) })
}
