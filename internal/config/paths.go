package config

import (
	"os"
	"path/filepath"
)

const (
	KEPHASVIEW_CONFIG_DIR_NAME = "kephasview"

	KEPHASVIEW_CONFIG_DIR_ENV = "KEPHASVIEW_CONFIG_DIR"
	KEPHASVIEW_CWD_CONFIG_DIR = ".kephasview"

	// FileName is the config file base name, without extension.
	FileName = "kephasview"
)

// In increasing priority order; later files override earlier ones.
//
// Check in these locations:
// /etc/kephasview/
// $XDG_CONFIG_HOME/kephasview/ OR $HOME/.config/kephasview/
// ./.kephasview/
// $KEPHASVIEW_CONFIG_DIR/
func resolvePaths() []string {
	paths := []string{filepath.Join("/etc/", KEPHASVIEW_CONFIG_DIR_NAME)}

	if cfgDir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(cfgDir, KEPHASVIEW_CONFIG_DIR_NAME))
	}

	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, KEPHASVIEW_CWD_CONFIG_DIR))
	}

	if p := os.Getenv(KEPHASVIEW_CONFIG_DIR_ENV); p != "" {
		paths = append(paths, p)
	}

	return paths
}
