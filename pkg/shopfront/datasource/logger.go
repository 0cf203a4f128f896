// Package datasource holds what the store packages share: the reduced logger they log through.
package datasource

// Logger is the subset of logging.Logger the store packages need. It is declared here so that the
// datasource packages never import logging.
type Logger interface {
	Debug(args ...any)
	Debugf(format string, args ...any)
	Log(args ...any)
	Logf(format string, args ...any)
	Error(args ...any)
	Errorf(format string, args ...any)
	Warn(args ...any)
	Warnf(format string, args ...any)
}
