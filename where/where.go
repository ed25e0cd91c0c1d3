// Package where implements a cross-platform resolver for application-specific filesystem paths.
package where

import (
	"os"
	"path/filepath"

	"github.com/peyitv/peyitv/constant"
	"github.com/peyitv/peyitv/filesystem"
	"github.com/samber/lo"
)

// EnvConfigPath overrides the default configuration directory.
const EnvConfigPath = "PEYITV_CONFIG_PATH"

func ensureDir(path string) string {
	lo.Must0(filesystem.API().MkdirAll(path, os.ModePerm))
	return path
}

// Config resolves the configuration directory. It follows XDG_CONFIG_HOME on Linux and the
// platform equivalent elsewhere, unless PEYITV_CONFIG_PATH is set.
func Config() string {
	if custom, ok := os.LookupEnv(EnvConfigPath); ok {
		return ensureDir(custom)
	}

	base := lo.Must(os.UserConfigDir())
	return ensureDir(filepath.Join(base, constant.App))
}

// Cache resolves the persistent cache directory.
func Cache() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = filepath.Join(".", "cache")
	}
	return ensureDir(filepath.Join(base, constant.App))
}

// Logs resolves the directory holding daily log files.
func Logs() string {
	return ensureDir(filepath.Join(Config(), "logs"))
}

// Catalog resolves the user catalog file. The file itself may not exist.
func Catalog() string {
	return filepath.Join(Config(), constant.CatalogFile)
}

// History resolves the file remembering the last played stream.
func History() string {
	return filepath.Join(Cache(), "history.json")
}

// Temp resolves a directory for transient artifacts such as player IPC sockets.
func Temp() string {
	return ensureDir(filepath.Join(os.TempDir(), constant.App))
}
