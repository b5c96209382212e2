package constants

import "errors"

// API and configuration errors.
var (
	ErrNoEndpointConfigured = errors.New("no API endpoint configured, use 'hal target <endpoint>' or --api")
	ErrAPINotFound          = errors.New("API not found in configuration")
)

// File system errors.
var (
	ErrDirectoryTraversalDetected = errors.New("path contains directory traversal sequences")
	ErrNotRegularFile             = errors.New("path is not a regular file")
)
