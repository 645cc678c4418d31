// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package log provides structured leveled logging. Packages hold a
// contextual logger in a package-level var:
//
//	var logger = log.WithContext("pkg", "txpool")
//
// Loggers resolve the root output lazily, so Setup and SetLevel take
// effect on loggers created before them.
package log

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Logger writes leveled messages with alternating key/value context.
type Logger interface {
	Trace(msg string, ctx ...interface{})
	Debug(msg string, ctx ...interface{})
	Info(msg string, ctx ...interface{})
	Warn(msg string, ctx ...interface{})
	Error(msg string, ctx ...interface{})

	// New returns a child logger with additional context.
	New(ctx ...interface{}) Logger
}

var root atomic.Pointer[zerolog.Logger]

func init() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	setOutput(os.Stderr, false)
}

func setOutput(w io.Writer, forceJSON bool) {
	var out io.Writer = w
	if !forceJSON {
		if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
			out = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
		}
	}
	l := zerolog.New(out).With().Timestamp().Logger()
	root.Store(&l)
}

// Setup configures the root output and level. JSON output is forced with
// jsonOutput, otherwise chosen by whether the writer is a terminal.
func Setup(level string, jsonOutput bool) error {
	if err := SetLevel(level); err != nil {
		return err
	}
	setOutput(os.Stderr, jsonOutput)
	return nil
}

// SetLevel adjusts the global level at runtime.
func SetLevel(level string) error {
	lvl, err := parseLevel(level)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(lvl)
	return nil
}

// Level returns the current global level name.
func Level() string {
	return zerolog.GlobalLevel().String()
}

func parseLevel(level string) (zerolog.Level, error) {
	switch level {
	case "trace":
		return zerolog.TraceLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "info":
		return zerolog.InfoLevel, nil
	case "warn":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q", level)
	}
}

// WithContext returns a logger carrying the given key/value context.
func WithContext(ctx ...interface{}) Logger {
	return &logger{ctx: ctx}
}

type logger struct {
	ctx []interface{}
}

func (l *logger) New(ctx ...interface{}) Logger {
	merged := make([]interface{}, 0, len(l.ctx)+len(ctx))
	merged = append(merged, l.ctx...)
	merged = append(merged, ctx...)
	return &logger{ctx: merged}
}

func (l *logger) write(e *zerolog.Event, msg string, ctx []interface{}) {
	e = fields(e, l.ctx)
	e = fields(e, ctx)
	e.Msg(msg)
}

func fields(e *zerolog.Event, ctx []interface{}) *zerolog.Event {
	n := len(ctx) / 2 * 2
	for i := 0; i < n; i += 2 {
		key, ok := ctx[i].(string)
		if !ok {
			key = fmt.Sprint(ctx[i])
		}
		switch v := ctx[i+1].(type) {
		case error:
			if key == "err" || key == "error" {
				e = e.AnErr(key, v)
			} else {
				e = e.Interface(key, v)
			}
		case string:
			e = e.Str(key, v)
		case fmt.Stringer:
			e = e.Stringer(key, v)
		default:
			e = e.Interface(key, v)
		}
	}
	return e
}

func (l *logger) Trace(msg string, ctx ...interface{}) { l.write(root.Load().Trace(), msg, ctx) }
func (l *logger) Debug(msg string, ctx ...interface{}) { l.write(root.Load().Debug(), msg, ctx) }
func (l *logger) Info(msg string, ctx ...interface{})  { l.write(root.Load().Info(), msg, ctx) }
func (l *logger) Warn(msg string, ctx ...interface{})  { l.write(root.Load().Warn(), msg, ctx) }
func (l *logger) Error(msg string, ctx ...interface{}) { l.write(root.Load().Error(), msg, ctx) }
