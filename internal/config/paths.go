package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const appDir = "morpheus"

// Paths contains the per-user directories MorpheusAI keeps data in. They
// follow the XDG base directory layout; on Windows every base is APPDATA.
type Paths struct {
	Data   string // ~/.local/share/morpheus
	Config string // ~/.config/morpheus
	Cache  string // ~/.cache/morpheus
	State  string // ~/.local/state/morpheus
}

// GetPaths resolves the directories from the XDG_* variables.
func GetPaths() *Paths {
	return &Paths{
		Data:   xdgDir("XDG_DATA_HOME", ".local", "share"),
		Config: xdgDir("XDG_CONFIG_HOME", ".config"),
		Cache:  xdgDir("XDG_CACHE_HOME", ".cache"),
		State:  xdgDir("XDG_STATE_HOME", ".local", "state"),
	}
}

// xdgDir returns $env/morpheus, falling back to $HOME/<fallback...>/morpheus.
func xdgDir(env string, fallback ...string) string {
	base := os.Getenv(env)
	if base == "" {
		if runtime.GOOS == "windows" {
			base = os.Getenv("APPDATA")
		} else {
			base = filepath.Join(append([]string{os.Getenv("HOME")}, fallback...)...)
		}
	}
	return filepath.Join(base, appDir)
}

// EnsurePaths creates all required directories.
func (p *Paths) EnsurePaths() error {
	for _, dir := range []string{p.Data, p.Config, p.Cache, p.State} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

// StoragePath is where plans and tool definitions are persisted.
func (p *Paths) StoragePath() string {
	return filepath.Join(p.Data, "storage")
}

// LogPath is the directory log files are written to.
func (p *Paths) LogPath() string {
	return filepath.Join(p.State, "log")
}

// GlobalConfigPath returns the path to the global config file.
func GlobalConfigPath() string {
	return filepath.Join(GetPaths().Config, "morpheus.json")
}

// ProjectConfigPath returns the path to the project config file.
func ProjectConfigPath(directory string) string {
	return filepath.Join(directory, "morpheus.json")
}
