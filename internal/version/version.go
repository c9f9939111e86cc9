package version

import (
	"fmt"
	"io"
	"runtime"
)

// Set at build time with -ldflags "-X".
var (
	App       = "DeviceAuth"
	Version   string
	GitCommit string
	BuildTime string
)

// String returns the build version, or "dev" for local builds
func String() string {
	if Version != "" {
		return Version
	}
	return "dev"
}

// Commit returns the abbreviated git commit, if one was stamped in
func Commit() string {
	if len(GitCommit) > 7 {
		return GitCommit[:7]
	}
	return GitCommit
}

// Print writes the build information shown by -version
func Print(w io.Writer) {
	fmt.Fprintf(w, "%s version %s\n", App, String())
	if c := Commit(); c != "" {
		fmt.Fprintf(w, "Git commit: %s\n", c)
	}
	if BuildTime != "" {
		fmt.Fprintf(w, "Build time: %s\n", BuildTime)
	}
	fmt.Fprintf(w, "Go version: %s\n", runtime.Version())
	fmt.Fprintf(w, "Built for: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}
