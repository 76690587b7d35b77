// Package version provides the release version of the doctrack binary.
package version

import (
	_ "embed"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// VERSION is the release version, used when the build sets no ldflags
// (e.g., go install).
//
//go:embed VERSION
var VERSION string

// Get returns the version with a "v" prefix.
func Get() string {
	return "v" + strings.TrimSpace(VERSION)
}

// Resolve returns the version to report for a build stamped with ldflags.
// Semantic versions are normalized to a "v" prefixed form, anything else
// (a commit, a branch name) is kept as is. Unstamped builds report Get.
func Resolve(ldflags string) string {
	if ldflags == "" || ldflags == "dev" {
		return Get()
	}
	v, err := semver.NewVersion(ldflags)
	if err != nil {
		return ldflags
	}
	return "v" + v.String()
}
