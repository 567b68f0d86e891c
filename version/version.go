// Package version reports build metadata injected through -ldflags.
package version

import (
	"fmt"
	"runtime"

	"github.com/Masterminds/semver/v3"
)

// Set at build time:
//
//	go build -ldflags "-X github.com/opengamedata/ogdviz/version.Version=v0.4.0 -X ...CommitHash=$(git rev-parse HEAD)"
var (
	CommitHash = "dev"
	BuildTime  = "unknown"
	Version    = "dev"
)

// Info is the build metadata printed by `ogdviz version` and served by the render server.
type Info struct {
	CommitHash string `json:"commit_hash" yaml:"commit_hash"`
	BuildTime  string `json:"build_time" yaml:"build_time"`
	Version    string `json:"version" yaml:"version"`
	GoVersion  string `json:"go_version" yaml:"go_version"`
	Platform   string `json:"platform" yaml:"platform"`
}

// Get returns the current build information.
func Get() Info {
	return Info{
		CommitHash: CommitHash,
		BuildTime:  BuildTime,
		Version:    Version,
		GoVersion:  runtime.Version(),
		Platform:   fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// Released reports whether Version is a tagged semantic version.
func (i Info) Released() bool {
	_, err := semver.NewVersion(i.Version)
	return err == nil
}

func (i Info) String() string {
	if i.Released() {
		return fmt.Sprintf("ogdviz %s (commit %s, built %s)", i.Version, i.shortCommit(), i.BuildTime)
	}
	return fmt.Sprintf("ogdviz dev (commit %s, built %s)", i.shortCommit(), i.BuildTime)
}

func (i Info) shortCommit() string {
	if len(i.CommitHash) >= 7 {
		return i.CommitHash[:7]
	}
	return i.CommitHash
}

// Short returns the tagged version, or the abbreviated commit for dev builds.
func Short() string {
	i := Get()
	if i.Released() {
		return i.Version
	}
	return i.shortCommit()
}
