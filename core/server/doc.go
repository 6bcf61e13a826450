// Package server holds the HTTP API configuration.
//
// While the start command handles the server startup, this package defines the
// configuration structure and its derived values (listen address, timeouts).
//
// # Configuration
//
// The Config struct defines the bind host, the HTTP port, the API key checked by the
// auth middleware and the request read timeout.
package server
