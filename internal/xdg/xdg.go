package xdg

import (
	"os"
	"path/filepath"
)

// Dirs are the XDG base directories resolved for one application.
type Dirs struct {
	App        string
	ConfigHome string
	CacheHome  string
	// ConfigDirs are searched after ConfigHome, most important first.
	ConfigDirs []string
}

// For reads XDG_CONFIG_HOME, XDG_CACHE_HOME and XDG_CONFIG_DIRS, falling
// back to ~/.config, ~/.cache and /etc/xdg.
func For(app string) Dirs {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	d := Dirs{
		App:        app,
		ConfigHome: envOr("XDG_CONFIG_HOME", filepath.Join(home, ".config")),
		CacheHome:  envOr("XDG_CACHE_HOME", filepath.Join(home, ".cache")),
		ConfigDirs: []string{"/etc/xdg"},
	}
	if v := os.Getenv("XDG_CONFIG_DIRS"); v != "" {
		d.ConfigDirs = filepath.SplitList(v)
	}
	return d
}

func envOr(key, def string) string {
	// relative paths are invalid per the base directory rules
	if v := os.Getenv(key); v != "" && filepath.IsAbs(v) {
		return v
	}
	return def
}

func (d Dirs) ConfigDir() string { return filepath.Join(d.ConfigHome, d.App) }

// CacheDir returns the application cache directory, creating it.
func (d Dirs) CacheDir() (string, error) {
	dir := filepath.Join(d.CacheHome, d.App)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// ConfigPaths lists the candidate locations of a config file in search
// order.
func (d Dirs) ConfigPaths(name string) []string {
	res := []string{filepath.Join(d.ConfigDir(), name)}
	for _, dir := range d.ConfigDirs {
		res = append(res, filepath.Join(dir, d.App, name))
	}
	return res
}

// FindConfig returns the first existing regular file of ConfigPaths.
func (d Dirs) FindConfig(name string) (string, bool) {
	for _, path := range d.ConfigPaths(name) {
		if st, err := os.Stat(path); err == nil && st.Mode().IsRegular() {
			return path, true
		}
	}
	return "", false
}
