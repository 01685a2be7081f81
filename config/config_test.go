package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mastercactapus/router/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "routerd.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeTempFile(t, `
[router]
move_height = 30
move_speed = 600
rout_speed = 200
max_cut_depth = 3

[machine]
controller = "grbl"
port = "/dev/ttyACM0"
baud = 250000
spjs = "ws://cnc-bridge:8989/ws"
poll_interval = "250ms"

[server]
addr = "127.0.0.1:8080"

[mesh]
file = "grid.json"
z_ref = -1.5
granularity = 0.1
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, router.Settings{MoveHeight: 30, MoveSpeed: 600, RoutSpeed: 200, MaxCutDepth: 3}, cfg.Router.Settings())
	assert.Equal(t, "/dev/ttyACM0", cfg.Machine.Port)
	assert.Equal(t, 250000, cfg.Machine.Baud)
	assert.Equal(t, "ws://cnc-bridge:8989/ws", cfg.Machine.SPJS)
	assert.Equal(t, 250*time.Millisecond, cfg.Machine.PollInterval.Duration)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)
	assert.Equal(t, "grid.json", cfg.Mesh.File)
	assert.Equal(t, -1.5, cfg.Mesh.ZRef)
	assert.Equal(t, 0.1, cfg.Mesh.Granularity)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = Load(writeTempFile(t, "[router]\nmove_hieght = 1\n"))
	assert.Error(t, err, "unknown keys are rejected")

	_, err = Load(writeTempFile(t, "[machine]\npoll_interval = \"soon\"\n"))
	assert.Error(t, err)
}

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := LoadWithDefaults("")
	require.NoError(t, err)

	assert.Equal(t, router.DefaultSettings(), cfg.Router.Settings())
	assert.Equal(t, DefaultController, cfg.Machine.Controller)
	assert.Equal(t, DefaultPort, cfg.Machine.Port)
	assert.Equal(t, DefaultBaud, cfg.Machine.Baud)
	assert.Equal(t, DefaultPollInterval, cfg.Machine.PollInterval.Duration)
	assert.Equal(t, DefaultAddr, cfg.Server.Addr)

	cfg, err = LoadWithDefaults(writeTempFile(t, "[machine]\ncontroller = \"sim\"\n"))
	require.NoError(t, err)
	assert.Equal(t, ControllerSim, cfg.Machine.Controller)
	assert.Equal(t, router.DefaultSettings(), cfg.Router.Settings())
	assert.Equal(t, DefaultMeshGranularity, cfg.Mesh.Granularity)
}

func TestLoadWithDefaults_ExplicitZero(t *testing.T) {
	cfg, err := LoadWithDefaults(writeTempFile(t, "[router]\nmove_height = 0\nmax_cut_depth = 0\n"))
	require.NoError(t, err)

	def := router.DefaultSettings()
	assert.Equal(t, router.Settings{MoveHeight: 0, MoveSpeed: def.MoveSpeed, RoutSpeed: def.RoutSpeed, MaxCutDepth: 0}, cfg.Router.Settings())

	_, err = LoadWithDefaults(writeTempFile(t, "[router]\nrout_speed = 0\n"))
	assert.True(t, errors.Is(err, router.ErrInvalidSpeed), "a zero speed is rejected, not defaulted")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
		target  error
	}{
		{"valid", func(c *Config) {}, false, nil},
		{"sim without port", func(c *Config) { c.Machine.Controller = ControllerSim; c.Machine.Port = "" }, false, nil},
		{"negative speed", func(c *Config) { c.Router.RoutSpeed = -1 }, true, router.ErrInvalidSpeed},
		{"grbl without port", func(c *Config) { c.Machine.Port = "" }, true, nil},
		{"unknown controller", func(c *Config) { c.Machine.Controller = "marlin" }, true, nil},
		{"no addr", func(c *Config) { c.Server.Addr = "" }, true, nil},
		{"no poll", func(c *Config) { c.Machine.PollInterval.Duration = -time.Second }, true, nil},
		{"mesh without granularity", func(c *Config) { c.Mesh.File = "grid.json"; c.Mesh.Granularity = 0 }, true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg Config
			cfg.ApplyDefaults()
			tt.modify(&cfg)
			err := cfg.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			if tt.target != nil {
				assert.True(t, errors.Is(err, tt.target))
			}
		})
	}
}
