package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func validConfig() Config {
	return Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Simulation: SimulationConfig{
			Workers:        4,
			Trials:         1000,
			MaxEncounterMs: 3_600_000,
			SpawnDelayMs:   3000,
			ProgressEvery:  100,
			Mode:           "auto",
		},
		Scheduler: SchedulerConfig{
			DuplicatePolicy: "reject",
			MessageBuffer:   256,
		},
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8085,
			ShutdownTimeout: 10 * time.Second,
		},
		Content: ContentConfig{Dir: "content"},
	}
}

func TestValidConfig(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, int64(3000), cfg.Simulation.SpawnDelayMs)
	assert.Equal(t, "reject", cfg.Scheduler.DuplicatePolicy)
}

func TestServerAddr(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "127.0.0.1:8085", cfg.Server.Addr())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	err := os.WriteFile(path, []byte(`
logging:
  level: debug
  format: console
simulation:
  workers: 2
  trials: 250
  seed: 42
scheduler:
  duplicate_policy: supersede
server:
  port: 9000
content:
  dir: /srv/content
`), 0644)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 2, cfg.Simulation.Workers)
	assert.Equal(t, 250, cfg.Simulation.Trials)
	assert.Equal(t, uint64(42), cfg.Simulation.Seed)
	assert.Equal(t, int64(3_600_000), cfg.Simulation.MaxEncounterMs, "unset keys fall back to defaults")
	assert.Equal(t, "supersede", cfg.Scheduler.DuplicatePolicy)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "/srv/content", cfg.Content.Dir)
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte("simulation:\n  workers: 2\n"), 0644))
	t.Setenv("SIM_SIMULATION_WORKERS", "8")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Simulation.Workers)
}

func TestLoadInvalidPath(t *testing.T) {
	_, err := Load("/nonexistent/path.yaml")
	assert.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("simulation:\n  workers: 0\n  mode: fast\n"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "simulation.workers")
	assert.Contains(t, err.Error(), "simulation.mode")
}

func TestValidateLoggingLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		cfg := validConfig()
		cfg.Logging.Level = level
		assert.NoError(t, cfg.Validate(), "level %q should be valid", level)
	}
	cfg := validConfig()
	cfg.Logging.Level = "trace"
	assert.Error(t, cfg.Validate())
}

func TestValidateLoggingFormat(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		cfg := validConfig()
		cfg.Logging.Format = format
		assert.NoError(t, cfg.Validate(), "format %q should be valid", format)
	}
	cfg := validConfig()
	cfg.Logging.Format = "xml"
	assert.Error(t, cfg.Validate())
}

func TestValidateLogFileRequiresPath(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.File.Enabled = true
	assert.Error(t, cfg.Validate())

	cfg.Logging.File.Path = "sim.log"
	assert.NoError(t, cfg.Validate())
}

func TestValidateDuplicatePolicy(t *testing.T) {
	for _, p := range []string{"reject", "supersede"} {
		cfg := validConfig()
		cfg.Scheduler.DuplicatePolicy = p
		assert.NoError(t, cfg.Validate(), "policy %q should be valid", p)
	}
	cfg := validConfig()
	cfg.Scheduler.DuplicatePolicy = "queue"
	assert.Error(t, cfg.Validate())
}

func TestValidateReportsAllViolations(t *testing.T) {
	cfg := validConfig()
	cfg.Simulation.Trials = 0
	cfg.Server.Port = 0
	cfg.Content.Dir = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "simulation.trials")
	assert.Contains(t, err.Error(), "server.port")
	assert.Contains(t, err.Error(), "content.dir")
}

// Property-based tests

func TestPropertyValidPortRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		port := rapid.IntRange(1, 65535).Draw(t, "port")
		cfg := validConfig()
		cfg.Server.Port = port
		if err := cfg.Validate(); err != nil {
			t.Fatalf("valid port %d rejected: %v", port, err)
		}
	})
}

func TestPropertyInvalidPortRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		port := rapid.OneOf(
			rapid.IntRange(-1000, 0),
			rapid.IntRange(65536, 100000),
		).Draw(t, "port")
		cfg := validConfig()
		cfg.Server.Port = port
		if err := cfg.Validate(); err == nil {
			t.Fatalf("invalid port %d accepted", port)
		}
	})
}

func TestPropertyWorkersMustBePositive(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		workers := rapid.IntRange(-100, 100).Draw(t, "workers")
		cfg := validConfig()
		cfg.Simulation.Workers = workers
		err := cfg.Validate()
		if workers >= 1 && err != nil {
			t.Fatalf("workers=%d rejected: %v", workers, err)
		}
		if workers < 1 && err == nil {
			t.Fatalf("workers=%d accepted", workers)
		}
	})
}
