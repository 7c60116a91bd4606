package version

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Built   = "unknown"
)

type BuildInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Built   string `json:"built"`
}

func Info() BuildInfo {
	return BuildInfo{Version: Version, Commit: Commit, Built: Built}
}

// String formats the build info for a --version line.
func (b BuildInfo) String(app string) string {
	return fmt.Sprintf("%s version %s, commit %s, built %s", app, b.Version, b.Commit, b.Built)
}
