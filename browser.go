package easel

import (
	"os/exec"
)

// =============================================================================
// Browser Launch
// =============================================================================

// openBrowser opens a URL in the default OS browser. The launch is advisory:
// there may be no GUI or no default handler, and serving must not care, so
// every failure is discarded here.
func openBrowser(url string) {
	var cmd *exec.Cmd

	switch {
	case commandExists("xdg-open"):
		cmd = exec.Command("xdg-open", url)
	case commandExists("open"):
		cmd = exec.Command("open", url)
	case commandExists("cmd"):
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}

	cmd.Start()
}

// commandExists checks if a command exists in PATH.
func commandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
