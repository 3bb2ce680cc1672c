// SPDX-FileCopyrightText: 2026-present StreamCrypt Contributors
// SPDX-License-Identifier: Apache-2.0

package log

var factory Factory = &noop{}

// SetFactory sets the static logger factory used by this package's
// package-level helpers.
func SetFactory(f Factory) {
	factory = f
}

// New returns a new logger instance from the static factory.
func New() Logger {
	return factory.New()
}

// WithLevel returns a new logger instance with its level set to the value
// supplied.
func WithLevel(lvl Level) Logger {
	return factory.New().Level(lvl)
}

// Field returns a new logger instance with a field value attached.
func Field(k string, v any) Logger {
	return factory.New().Field(k, v)
}

// Fields returns a new logger instance with the given field values attached.
func Fields(data map[string]any) Logger {
	return factory.New().Fields(data)
}

// Error returns a new logger instance with the error attached.
func Error(err error) Logger {
	return factory.New().Error(err)
}

// Component returns a new logger instance tagged with the "component" field,
// the convention every package in this module uses to identify its log
// origin (e.g. "chunkcodec", "stream", "resume", "paillier").
func Component(name string) Logger {
	return factory.New().Field("component", name)
}
