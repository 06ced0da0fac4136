package host

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// resourceDirEnv overrides the packaged resource directory.
const resourceDirEnv = "TASKRIOT_RESOURCE_DIR"

// ResourceDir returns the directory holding resources bundled with the
// application at build time.
//
// Priority: Config.ResourceDir > $TASKRIOT_RESOURCE_DIR > platform convention.
// The directory is not checked for existence.
func (h *Host) ResourceDir() (string, error) {
	if h.config.ResourceDir != "" {
		return filepath.Abs(h.config.ResourceDir)
	}
	if v := h.getenv(resourceDirEnv); v != "" {
		return filepath.Abs(v)
	}

	exe, err := h.Executable()
	if err != nil {
		return "", err
	}
	return resourceDirFor(h.goos, filepath.Dir(exe), h.config.ProductName, h.getenv), nil
}

// resourceDirFor applies the platform packaging conventions:
//   - darwin: the bundle's Contents/Resources, next to Contents/MacOS
//   - windows: the executable's own directory
//   - others: $APPDIR/usr/lib/<product> inside an AppImage, /usr/lib/<product>
//     for a binary installed in /usr/bin, else the executable's own directory
func resourceDirFor(goos, exeDir, productName string, getenv func(string) string) string {
	switch goos {
	case "darwin":
		return filepath.Join(exeDir, "..", "Resources")
	case "windows":
		return exeDir
	default:
		if appDir := getenv("APPDIR"); appDir != "" {
			return filepath.Join(appDir, "usr", "lib", productName)
		}
		if filepath.ToSlash(filepath.Clean(exeDir)) == "/usr/bin" {
			return filepath.Join("/usr", "lib", productName)
		}
		return exeDir
	}
}

// AppDataDir returns the per-user directory for application data.
//
// Priority: Config.DataDir > platform convention keyed by Config.Identifier.
// The directory is not created.
func (h *Host) AppDataDir() (string, error) {
	if h.config.DataDir != "" {
		return filepath.Abs(h.config.DataDir)
	}

	home, err := h.homeDir()
	if err != nil {
		return "", fmt.Errorf("resolving app data dir: %w", err)
	}

	dir := appDataDirFor(h.goos, home, h.config.Identifier, h.getenv)
	if !filepath.IsAbs(dir) {
		return "", fmt.Errorf("%w: app data dir %q is not absolute", ErrNoPath, dir)
	}
	return dir, nil
}

// appDataDirFor applies the platform data-directory conventions:
//   - windows: %APPDATA%\<identifier>
//   - darwin: ~/Library/Application Support/<identifier>
//   - others: $XDG_DATA_HOME/<identifier>, else ~/.local/share/<identifier>
func appDataDirFor(goos, home, identifier string, getenv func(string) string) string {
	switch goos {
	case "windows":
		if v := getenv("APPDATA"); v != "" {
			return filepath.Join(v, identifier)
		}
		return filepath.Join(home, "AppData", "Roaming", identifier)
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", identifier)
	default:
		if v := getenv("XDG_DATA_HOME"); v != "" {
			return filepath.Join(v, identifier)
		}
		return filepath.Join(home, ".local", "share", identifier)
	}
}

// Executable returns the absolute path of the running executable with
// symlinks resolved, so sibling resources are found next to the real
// binary rather than next to a launcher link.
func (h *Host) Executable() (string, error) {
	exe, err := h.executable()
	if err != nil {
		return "", fmt.Errorf("%w: executable: %w", ErrNoPath, err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Abs(exe)
}

func defaultGOOS() string {
	return runtime.GOOS
}

func defaultHomeDir() (string, error) {
	return os.UserHomeDir()
}
