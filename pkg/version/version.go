package version

// Version is the current dredge release.
const Version = "1.2.0"

// BuildVersion returns the full display string for the CLI.
func BuildVersion() string {
	return "dredge version " + Version
}

// APIVersion returns the bare version number reported by the HTTP
// endpoints.
func APIVersion() string {
	return Version
}
