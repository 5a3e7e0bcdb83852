package cli

import (
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestUserDirs(t *testing.T) {
	home := t.TempDir()
	xdg := t.TempDir()
	t.Setenv("HOME", home)

	tests := []struct {
		name     string
		dir      func() (string, error)
		env      string
		fallback string
	}{
		{"cache", cacheDir, "XDG_CACHE_HOME", filepath.Join(home, ".cache", appName)},
		{"config", configDir, "XDG_CONFIG_HOME", filepath.Join(home, ".config", appName)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.env, "")
			if got, err := tt.dir(); err != nil || got != tt.fallback {
				t.Errorf("without %s = %q, %v; want %q", tt.env, got, err, tt.fallback)
			}
			t.Setenv(tt.env, xdg)
			if got, _ := tt.dir(); got != filepath.Join(xdg, appName) {
				t.Errorf("with %s = %q", tt.env, got)
			}
		})
	}
}

func TestCompletion(t *testing.T) {
	for shell := range completionShells {
		t.Run(shell, func(t *testing.T) {
			out, err := execute(t, "completion", shell)
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(out, appName) {
				t.Errorf("%s script does not mention %s", shell, appName)
			}
		})
	}
	if _, err := execute(t, "completion", "tcsh"); err == nil {
		t.Error("unknown shell accepted")
	}
}

func TestCompleteEcosystems(t *testing.T) {
	names, directive := completeEcosystems(nil, nil, "")
	if directive != cobra.ShellCompDirectiveNoFileComp {
		t.Errorf("directive = %v", directive)
	}
	for _, want := range []string{"cargo", "npm", "pypi"} {
		if !slices.Contains(names, want) {
			t.Errorf("completions %v missing %s", names, want)
		}
	}
}
