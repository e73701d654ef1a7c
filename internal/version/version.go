// Package version holds build metadata injected with -ldflags, e.g.
//
//	go build -ldflags "-X github.com/NowakAdmin/ScaleBridge/internal/version.Version=1.4.0"
package version

var (
	Version = "dev"
	Commit  = ""
)

func String() string {
	if Commit == "" {
		return Version
	}
	return Version + " (" + Commit + ")"
}
