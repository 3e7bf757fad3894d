// Package connectors holds the protocol clients that turn a remote service
// into local datasets. Each sub-package speaks one protocol (wfs) through the
// driven Fetcher and FileSystem ports.
package connectors
