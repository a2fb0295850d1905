// ABOUTME: Build version identity and the protocol token for User-Agent/Server headers
// ABOUTME: Version and Commit are overridden at build time via -ldflags

package version

var (
	// Version is the semantic version of this build.
	Version = "0.1.0"

	// Commit is the short VCS hash of this build, empty when unknown.
	Commit = ""
)

// Full returns the version, with the commit appended when known,
// e.g. "0.1.0+4f9a2c1".
func Full() string {
	if Commit == "" {
		return Version
	}
	return Version + "+" + Commit
}

// UserAgent returns the protocol token sent in User-Agent and Server
// headers.
func UserAgent() string {
	return "meridian-json-rpc/" + Full()
}
