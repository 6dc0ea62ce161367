// Package version reports the tasktalk build version.
package version

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var versionContent string

// dev is reported when the embedded file is empty.
const dev = "dev"

// Get returns the embedded version with whitespace trimmed.
func Get() string {
	if v := strings.TrimSpace(versionContent); v != "" {
		return v
	}
	return dev
}
