// Package open launches URLs with the system's default handler, such as the Stash
// web interface for a scene or its API key settings page.
package open

import (
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/sceneplay/sceneplay/constant"
)

// Start opens the URL using the default system handler without waiting for it.
func Start(input string) error {
	cmd, ok := command(runtime.GOOS, input)
	if !ok {
		return fmt.Errorf("unsupported OS: %s", runtime.GOOS)
	}
	return cmd.Start()
}

func command(goos, input string) (*exec.Cmd, bool) {
	switch goos {
	case constant.Windows:
		rundll := filepath.Join(os.Getenv("SYSTEMROOT"), "System32", "rundll32.exe")
		return exec.Command(rundll, "url.dll,FileProtocolHandler", input), true
	case constant.Darwin:
		return exec.Command("open", input), true
	case constant.Linux:
		return exec.Command("xdg-open", input), true
	default:
		return nil, false
	}
}

// ScenePage returns the Stash web page of a scene.
func ScenePage(stashURL, id string) (string, error) {
	return page(stashURL, "scenes/"+url.PathEscape(id), nil)
}

// SecuritySettings returns the Stash page where API keys are generated.
func SecuritySettings(stashURL string) (string, error) {
	return page(stashURL, "settings", url.Values{"tab": {"security"}})
}

func page(stashURL, path string, query url.Values) (string, error) {
	base, err := url.Parse(stashURL)
	if err != nil {
		return "", fmt.Errorf("invalid stash url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("invalid stash url: %q", stashURL)
	}

	u := base.JoinPath(path)
	u.RawQuery = query.Encode()
	return u.String(), nil
}
