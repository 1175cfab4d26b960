package browser

import (
	"fmt"
	"os/exec"
	"runtime"
)

// Opener opens a URL in the user's browser.
type Opener func(url string) error

// commandFor returns the platform command that opens target.
func commandFor(goos string, target string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{target}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", target}
	default:
		return "xdg-open", []string{target}
	}
}

// Open launches the system browser for url without waiting for it to exit.
func Open(url string) error {
	name, args := commandFor(runtime.GOOS, url)
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("opening browser with %s: %w", name, err)
	}
	go cmd.Wait()
	return nil
}
