// Package version holds build metadata reported by the CLI and the health endpoint.
package version

// Version is set at build time:
// go build -ldflags "-X git.home.luguber.info/inful/autopipe/internal/version.Version=v1.0.0".
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the version line printed by --version.
func String() string {
	return Version + " (commit " + GitCommit + ", built " + BuildTime + ")"
}
