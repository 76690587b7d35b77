package version

import (
	"testing"

	"github.com/Masterminds/semver/v3"
)

func TestGet(t *testing.T) {
	got := Get()
	if _, err := semver.StrictNewVersion(got[1:]); err != nil || got[0] != 'v' {
		t.Errorf("Get() = %q, want a v prefixed semantic version", got)
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", Get()},
		{"dev", Get()},
		{"v2.0.0", "v2.0.0"},
		{"1.4.2", "v1.4.2"},
		{"1.5.0-rc.1", "v1.5.0-rc.1"},
		{"main-abc1234", "main-abc1234"},
	}
	for _, tt := range tests {
		if got := Resolve(tt.in); got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
