package resload

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvRoot    = "RESLOAD_ROOT"     // resource root directory (required)
	EnvWorkers = "RESLOAD_WORKERS"  // concurrent loads
	EnvCacheMB = "RESLOAD_CACHE_MB" // content cache budget in megabytes
)

// Config is the process-level configuration of the loading subsystem.
type Config struct {
	Root    string
	Workers int
	CacheMB int
}

// ConfigFromEnv loads the given dotenv files (".env" when none are named;
// missing files are ignored) and then reads the RESLOAD_* variables.
// Variables already set in the environment win over dotenv values.
// A missing root is reported as ErrRootNotSet.
func ConfigFromEnv(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("resload: load env file: %w", err)
	}

	cfg := Config{Root: os.Getenv(EnvRoot)}
	if cfg.Root == "" {
		return Config{}, ErrRootNotSet
	}
	var err error
	if cfg.Workers, err = envInt(EnvWorkers); err != nil {
		return Config{}, err
	}
	if cfg.CacheMB, err = envInt(EnvCacheMB); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func envInt(name string) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("resload: %s must be a non-negative integer, got %q", name, v)
	}
	return n, nil
}
