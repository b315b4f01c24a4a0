package pake

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

// Config struct
type Config struct {
	Values map[string]string
}

// loadConfig reads a KEY=VALUE config file and merges PAKE_* environment
// overrides on top. A missing file is not an error; everything has defaults.
func loadConfig(path string) (*Config, error) {
	cfg := &Config{Values: make(map[string]string)}

	file, err := os.Open(path)
	if err == nil {
		defer file.Close()
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}
			key := strings.TrimSpace(parts[0])
			val := strings.TrimSpace(parts[1])
			val = strings.Trim(val, `"'`)
			cfg.Values[key] = val
		}
		if err := scanner.Err(); err != nil {
			return cfg, err
		}
	}

	mergeEnvOverrides(cfg)

	return cfg, nil
}

// Merge PAKE_* env overrides
func mergeEnvOverrides(cfg *Config) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "PAKE_") {
			parts := strings.SplitN(env, "=", 2)
			if len(parts) == 2 {
				cfg.Values[parts[0]] = parts[1]
			}
		}
	}
}

func initConfig(cfg *Config) {
	BuildRoot = cfg.Values["PAKE_BUILD_ROOT"]
	if BuildRoot == "" {
		BuildRoot = "src-tauri"
	}

	CacheDir = cfg.Values["PAKE_CACHE_DIR"]
	if CacheDir == "" {
		CacheDir = filepath.Join(xdg.CacheHome, "pake")
	}

	IconCache = filepath.Join(CacheDir, "icons")
	LogDir = filepath.Join(CacheDir, "logs")
	BuildLog = filepath.Join(LogDir, "build.log")

	Debug = cfg.Values["PAKE_DEBUG"] == "1"
}

// defaultConfigPath resolves the config file location, honoring an explicit
// PAKE_CONFIG override.
func defaultConfigPath() string {
	if p := os.Getenv("PAKE_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(xdg.ConfigHome, "pake", "pake.conf")
}
