package config

// Linker-injected build metadata:
//
//	go build -ldflags "-X hrpulse/internal/config.version=1.4.0 \
//	    -X hrpulse/internal/config.commit=$(git rev-parse --short HEAD) \
//	    -X hrpulse/internal/config.buildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

// NewBuildInfo constructs a BuildInfo from the linker-injected variables.
func NewBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
	}
}
