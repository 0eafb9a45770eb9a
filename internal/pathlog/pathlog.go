// Copyright (c) 2025 The fibpath Authors
// SPDX-License-Identifier: MIT

// Package pathlog is the structured-logging entry point shared by the
// fibpath packages. It wraps logrus the way DataDog-agent components wrap a
// named sub-logger: a package-level Logger, enriched per call-site with
// path/kind/pathlist fields.
package pathlog

import "github.com/sirupsen/logrus"

// Log is the package-wide logger for the fib/path component. Replace it in
// tests with a logger pointed at a buffer, or leave it at the default text
// formatter for CLI use.
var Log = logrus.New()

func init() {
	Log.SetLevel(logrus.InfoLevel)
}

// With returns a logger entry pre-populated with the given fields, mirroring
// the {path, kind, pathlist} fields attached throughout the resolver,
// back-walk handler, and loop detector.
func With(fields logrus.Fields) *logrus.Entry {
	return Log.WithFields(fields)
}
