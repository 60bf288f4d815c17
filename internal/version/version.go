// Package version holds build identity, overridable via -ldflags.
package version

var (
	AppName = "botcore"
	Version = "dev"
)
