package hints

// Notes:
// - ForBrowserConnect tests cannot use t.Parallel(): they call t.Setenv and
//   swap the package-level IsInContainer.

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func clearCI(t *testing.T) {
	t.Helper()
	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"} {
		t.Setenv(v, "")
	}
}

func withContainer(t *testing.T, in bool) {
	t.Helper()
	orig := IsInContainer
	t.Cleanup(func() { IsInContainer = orig })
	IsInContainer = func() bool { return in }
}

func TestForBrowserConnect(t *testing.T) {
	tests := []struct {
		name        string
		ci          string
		container   bool
		noSandbox   string
		browserBin  string
		wantSandbox bool
		wantBin     bool
	}{
		{"ci", "true", false, "", "", true, true},
		{"docker", "", true, "", "", true, true},
		{"sandbox already off", "", true, "1", "", false, true},
		{"desktop with bin", "", false, "", "/usr/bin/chromium", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearCI(t)
			withContainer(t, tt.container)
			t.Setenv("CI", tt.ci)
			t.Setenv("ROD_NO_SANDBOX", tt.noSandbox)
			t.Setenv("ROD_BROWSER_BIN", tt.browserBin)

			hint := ForBrowserConnect()
			assert.True(t, strings.HasPrefix(hint, "\n  hint: "))
			assert.Equal(t, tt.wantSandbox, strings.Contains(hint, "ROD_NO_SANDBOX"))
			assert.Equal(t, tt.wantBin, strings.Contains(hint, "ROD_BROWSER_BIN"))
			assert.Contains(t, hint, "xmd doctor")
		})
	}
}

func TestInCI(t *testing.T) {
	clearCI(t)
	assert.False(t, InCI())

	t.Setenv("GITHUB_ACTIONS", "true")
	assert.True(t, InCI())
}

func TestForNoPosts(t *testing.T) {
	t.Parallel()

	assert.Contains(t, ForNoPosts(false), "--cookies")
	assert.NotContains(t, ForNoPosts(true), "--cookies")
	assert.Contains(t, ForNoPosts(true), "selectors.post")
}

func TestForConfigNotFound(t *testing.T) {
	t.Parallel()

	hint := ForConfigNotFound([]string{"feed.yaml", "/home/u/.config/go-xmd/feed.yaml"})
	assert.Contains(t, hint, "--config")
	assert.Contains(t, hint, "or create /home/u/.config/go-xmd/feed.yaml")

	hint = ForConfigNotFound([]string{`C:\Users\u\AppData\Roaming\go-xmd\feed.yaml`})
	assert.Contains(t, hint, "or create")

	assert.NotContains(t, ForConfigNotFound(nil), "or create")
}

func TestForStyleNotFound(t *testing.T) {
	t.Parallel()

	assert.Empty(t, ForStyleNotFound(nil))
	assert.Equal(t, "\n  hint: available: github, monokai", ForStyleNotFound([]string{"github", "monokai"}))

	many := make([]string, 20)
	for i := range many {
		many[i] = "s"
	}
	assert.True(t, strings.HasSuffix(ForStyleNotFound(many), ", ..."))
}

func TestSimpleHints(t *testing.T) {
	t.Parallel()

	for _, h := range []string{ForCaptureTimeout(), ForRenderTimeout(), ForOutput()} {
		assert.True(t, strings.HasPrefix(h, "\n  hint: "), h)
	}
	assert.Empty(t, formatHints(nil))
	assert.Empty(t, format(""))
}
