package env

// Build metadata, overridden at link time with
// -ldflags "-X github.com/ostafen/unjffs2/internal/env.Version=...".
var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildTime  = "unknown"
)

const AppName = "unjffs2"
