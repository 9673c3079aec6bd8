// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

// Package glog adapts github.com/aristanetworks/glog to the
// internal/logger.Logger interface so it can be handed to a skymap.Map
// or an owner-façade collaborator.
package glog

import "github.com/aristanetworks/glog"

// Glog implements logger.Logger on top of github.com/aristanetworks/glog.
type Glog struct {
	// InfoLevel gates Info/Infof behind glog.V(InfoLevel); default 0
	// logs every Info call.
	InfoLevel glog.Level
}

// Info logs at the info level.
func (g *Glog) Info(args ...interface{}) {
	glog.V(g.InfoLevel).Info(args...)
}

// Infof logs at the info level, with format.
func (g *Glog) Infof(format string, args ...interface{}) {
	glog.V(g.InfoLevel).Infof(format, args...)
}

// Warn logs at the warning level. glog has no separate warning
// verbosity; warnings are emitted as unconditional Info so they aren't
// silently dropped by a raised -v threshold.
func (g *Glog) Warn(args ...interface{}) {
	glog.Info(append([]interface{}{"WARN: "}, args...)...)
}

// Warnf logs at the warning level, with format.
func (g *Glog) Warnf(format string, args ...interface{}) {
	glog.Infof("WARN: "+format, args...)
}

// Error logs at the error level.
func (g *Glog) Error(args ...interface{}) {
	glog.Error(args...)
}

// Errorf logs at the error level, with format.
func (g *Glog) Errorf(format string, args ...interface{}) {
	glog.Errorf(format, args...)
}

// Fatal logs at the fatal level.
func (g *Glog) Fatal(args ...interface{}) {
	glog.Fatal(args...)
}

// Fatalf logs at the fatal level, with format.
func (g *Glog) Fatalf(format string, args ...interface{}) {
	glog.Fatalf(format, args...)
}
