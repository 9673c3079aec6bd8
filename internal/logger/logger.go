// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

// Package logger defines a small logging interface so that skymap and
// its collaborators can log without depending on a concrete backend
// (glog, a structured logger, or nothing at all in unit tests).
package logger

// Logger is a generic logging sink. It is intentionally narrow: callers
// in this module only ever need informational tracing, warnings for
// conditions worth a human's attention but not fatal, and errors.
type Logger interface {
	// Info logs at the info level.
	Info(args ...interface{})
	// Infof logs at the info level, with format.
	Infof(format string, args ...interface{})
	// Warn logs at the warning level: the operation still succeeded but
	// something about it is worth a human noticing (e.g. a rehash that
	// took unusually long, a sink falling behind).
	Warn(args ...interface{})
	// Warnf logs at the warning level, with format.
	Warnf(format string, args ...interface{})
	// Error logs at the error level.
	Error(args ...interface{})
	// Errorf logs at the error level, with format.
	Errorf(format string, args ...interface{})
}
