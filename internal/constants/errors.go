package constants

import "errors"

// Configuration errors.
var (
	ErrNoServerConfigured = errors.New("no FMC server configured, set --url, FMC_URL or url in the config file")
	ErrNoUsername         = errors.New("no username configured, set --username or FMC_USERNAME")
	ErrNoPasswordInput    = errors.New("no password configured and stdin is not a terminal")
	ErrInvalidOutput      = errors.New("invalid output format, use table, json or yaml")
)

// Command errors.
var (
	ErrUnknownObjectType = errors.New("unknown object type")
	ErrPayloadRequired   = errors.New("--file is required")
	ErrPayloadNameEmpty  = errors.New("payload has no name")
	ErrDestinationNeeded = errors.New("destination server is required, set --to-url")
	ErrPurgeNotConfirmed = errors.New("purge not confirmed, pass --yes")
)

// File system errors.
var (
	ErrDirectoryTraversalDetected = errors.New("directory traversal detected in file path")
	ErrNotRegularFile             = errors.New("path is not a regular file")
)
