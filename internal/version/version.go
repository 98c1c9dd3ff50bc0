package version

// Package metadata, replaced by the linker during release builds.
var (
	Version   = "0.1.0"
	Toolname  = "pulsar-installer"
	BuildDate = "unknown"
	CommitSHA = "unknown"
)
