package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set through -ldflags at build time
var (
	Version   = "dev"
	GitCommit = ""
	BuildDate = ""
)

type Info struct {
	Version   string `json:"version" yaml:"version"`
	GitCommit string `json:"git_commit,omitempty" yaml:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty" yaml:"build_date,omitempty"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
}

func Get() Info {
	return Info{
		Version:   GetVersion(),
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// GetVersion prefers the linked version and falls back to the module build info
func GetVersion() string {
	if Version != "" && Version != "dev" {
		return Version
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			return info.Main.Version
		}
	}

	return "dev"
}

func (i Info) String() string {
	if len(i.GitCommit) >= 7 {
		return fmt.Sprintf("%s-%s (%s)", i.Version, i.GitCommit[:7], i.Platform)
	}
	return fmt.Sprintf("%s (%s)", i.Version, i.Platform)
}
