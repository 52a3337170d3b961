// Copyright 2026 The uCore-SMP Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package klog is the kernel-style logger shared by the inode table, page
// cache, and CLI: five severities, selectable text/JSON handler, and
// optional file rotation.
package klog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Severity mirrors the original kernel's tracef/debugf/infof/warnf/errorf
// vocabulary, reordered to slog's Level scale.
type Severity int

const (
	Trace Severity = iota - 2
	Debug
	Info
	Warning
	Error
)

func (s Severity) slogLevel() slog.Level {
	switch s {
	case Trace:
		return slog.Level(-8)
	case Debug:
		return slog.LevelDebug
	case Info:
		return slog.LevelInfo
	case Warning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// Options configures New.
type Options struct {
	// MinSeverity suppresses records below this level.
	MinSeverity Severity

	// JSON selects the JSON handler instead of the text handler.
	JSON bool

	// RotateFile, if non-empty, routes output through a lumberjack logger
	// writing to that path instead of stderr.
	RotateFile string
	MaxSizeMB  int
	MaxBackups int
}

// Logger wraps slog.Logger with the five-severity vocabulary this module
// uses instead of slog's Debug/Info/Warn/Error defaults.
type Logger struct {
	*slog.Logger
}

// New builds a Logger per opts. A zero Options value logs Info and above
// as text to stderr.
func New(opts Options) *Logger {
	var w io.Writer = os.Stderr
	if opts.RotateFile != "" {
		w = &lumberjack.Logger{
			Filename:   opts.RotateFile,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
		}
	}

	handlerOpts := &slog.HandlerOptions{Level: opts.MinSeverity.slogLevel()}

	var h slog.Handler
	if opts.JSON {
		h = slog.NewJSONHandler(w, handlerOpts)
	} else {
		h = slog.NewTextHandler(w, handlerOpts)
	}

	return &Logger{Logger: slog.New(h)}
}

// Discard returns a Logger that drops everything, for tests that don't
// want stray output.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func (l *Logger) Trace(msg string, args ...any) {
	l.Logger.Log(context.Background(), Trace.slogLevel(), msg, args...)
}

func (l *Logger) TraceCtx(ctx context.Context, msg string, args ...any) {
	l.Logger.Log(ctx, Trace.slogLevel(), msg, args...)
}

// Fatalf logs at Error and panics, matching the teacher's convention of
// panicking on data-integrity and programmer-error failures rather than
// returning them.
func (l *Logger) Fatalf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	l.Logger.Error(msg)
	panic(msg)
}
