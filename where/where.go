// Package where implements a cross-platform resolver for application-specific filesystem paths.
package where

import (
	"os"
	"path/filepath"

	"github.com/cardsweep/cardsweep/constant"
	"github.com/cardsweep/cardsweep/filesystem"
	"github.com/cardsweep/cardsweep/key"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// EnvConfigPath is the environment variable identifier used to override the default configuration directory.
const EnvConfigPath = "CARDSWEEP_CONFIG_PATH"

// ensureDir guarantees the existence of a directory at the specified path, creating it if necessary.
func ensureDir(path string) string {
	lo.Must0(filesystem.API().MkdirAll(path, os.ModePerm))
	return path
}

// Config resolves the absolute path to the primary application configuration directory.
// Direct override: The path resolution can be explicitly specified via the CARDSWEEP_CONFIG_PATH environment variable.
func Config() string {
	if custom, ok := os.LookupEnv(EnvConfigPath); ok {
		return ensureDir(custom)
	}

	base := lo.Must(os.UserConfigDir())
	return ensureDir(filepath.Join(base, constant.Cardsweep))
}

// Cache resolves the absolute path to the application's persistent cache directory.
func Cache() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = filepath.Join(".", "cache")
	}
	return ensureDir(filepath.Join(base, constant.Cardsweep))
}

// Logs resolves the absolute path to the directory used for application diagnostic logs.
func Logs() string {
	return ensureDir(filepath.Join(Config(), "logs"))
}

// Output resolves the directory receiving the output document and progress state.
// It defaults to "output" relative to the working directory, as configured by output.dir.
func Output() string {
	dir := viper.GetString(key.OutputDir)
	if dir == "" {
		dir = "output"
	}
	return ensureDir(dir)
}

// Data resolves the output document path.
func Data() string {
	return filepath.Join(Output(), constant.DataFile)
}

// Progress resolves the persisted progress state path.
func Progress() string {
	return filepath.Join(Output(), constant.ProgressFile)
}

// Temp resolves a volatile filesystem path for transient application artifacts.
func Temp() string {
	return ensureDir(filepath.Join(os.TempDir(), constant.Cardsweep))
}
