package easel

import (
	"log/slog"
	"os"
	"path/filepath"
)

// =============================================================================
// Configuration
// =============================================================================

// DefaultPort is the port used when none is configured.
const DefaultPort = 8000

// Config configures a DevServer. The zero value is usable: it serves the
// directory containing the running executable on the default port.
// Configuration is fixed once the server is created.
type Config struct {
	// Port is the TCP port to listen on.
	// Default: 8000.
	Port int

	// Host is the interface to bind. Empty binds all interfaces.
	// The serving URL always points at localhost regardless of Host.
	Host string

	// Root is the directory to serve. Relative paths are resolved against
	// the working directory. Empty means the directory containing the
	// running executable, not the working directory.
	Root string

	// OpenBrowser opens the OS default browser at the serving URL once the
	// server is accepting requests. The launch is best-effort: failures are
	// ignored and never affect the server.
	OpenBrowser bool

	// LiveReload watches the served directory and reloads connected
	// browsers when files change. While enabled, served HTML documents get
	// a small client script injected; with it off (the default), response
	// bodies are byte-identical to the files on disk.
	LiveReload bool

	// Logger is the structured logger for the server.
	// If nil, slog.Default() is used.
	Logger *slog.Logger
}

// DefaultConfig returns the configuration the easel command starts from:
// default port, executable-relative root, browser launch on.
func DefaultConfig() Config {
	return Config{
		Port:        DefaultPort,
		OpenBrowser: true,
	}
}

// DefaultRoot returns the directory containing the running executable.
// This is the directory a zero-Root server serves.
func DefaultRoot() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}
