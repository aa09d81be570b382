// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-xmd/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// InCI reports whether a common CI variable is set.
func InCI() bool {
	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"} {
		if os.Getenv(v) != "" {
			return true
		}
	}
	return false
}

// ForBrowserConnect returns hints for browser launch errors.
func ForBrowserConnect() string {
	var hints []string
	if (InCI() || IsInContainer()) && os.Getenv("ROD_NO_SANDBOX") != "1" {
		hints = append(hints, "set ROD_NO_SANDBOX=1 for Docker/CI")
	}
	if os.Getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN to use an installed Chrome")
	}
	hints = append(hints, "run 'xmd doctor' to check the setup")
	return formatHints(hints)
}

// ForNoPosts returns hints when a captured page shows no posts.
// Feeds behind a login render a sign-in wall instead of posts.
func ForNoPosts(haveCookies bool) string {
	hints := []string{"check selectors.post matches the page"}
	if !haveCookies {
		hints = append([]string{"pass --cookies with an exported session"}, hints...)
	}
	return formatHints(hints)
}

// ForCaptureTimeout returns a hint about slow pages.
func ForCaptureTimeout() string {
	return format("use --timeout or fewer --scrolls for slow feeds")
}

// ForRenderTimeout returns a hint about slow formatting.
func ForRenderTimeout() string {
	return format("raise render.timeout or XMD_RENDER_TIMEOUT")
}

// ForConfigNotFound returns hints for config file not found errors.
// searchedPaths are the locations tried, in order.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"
	for _, p := range searchedPaths {
		if strings.Contains(strings.ReplaceAll(p, `\`, "/"), "/go-xmd/") {
			hint += " or create " + p
			break
		}
	}
	return format(hint)
}

// ForStyleNotFound lists the known highlight styles.
func ForStyleNotFound(available []string) string {
	if len(available) == 0 {
		return ""
	}
	const shown = 12
	list := available
	suffix := ""
	if len(list) > shown {
		list = list[:shown]
		suffix = ", ..."
	}
	return format("available: " + strings.Join(list, ", ") + suffix)
}

// ForOutput returns hints for write errors.
func ForOutput() string {
	return format("check the output directory exists and is writable")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
