// Package version reports the build of a parq binary.
//
// Version is set at link time, the commit and dirty flag come from the VCS
// stamp Go embeds in the binary:
//
//	go build -ldflags "-X github.com/kbukum/parq/version.Version=0.2.0" ./cmd/people
package version
