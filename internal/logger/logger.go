/*
 * Licensed to the Apache Software Foundation (ASF) under one
 * or more contributor license agreements.  See the NOTICE file
 * distributed with this work for additional information
 * regarding copyright ownership.  The ASF licenses this file
 * to you under the Apache License, Version 2.0 (the
 * "License"); you may not use this file except in compliance
 * with the License.  You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mendonk/gcx"
	"github.com/mendonk/gcx/extensions/gcxzap"
	"github.com/mendonk/gcx/extensions/gcxzerolog"
)

const (
	BackendZerolog = "zerolog"
	BackendZap     = "zap"

	FormatConsole = "console"
	FormatJSON    = "json"
)

// Config holds logger configuration
type Config struct {
	Level   string    // debug, info, warn, error
	Format  string    // console or json
	Backend string    // zerolog or zap, the logger handed to the session and the driver
	Out     io.Writer // defaults to stderr
}

// Logger carries the command's own zerolog logger and the StdLogger given to
// the session and the driver.
type Logger struct {
	logger zerolog.Logger
	driver gcx.StdLogger
	zap    *zap.Logger
}

// New creates a new logger. An unknown level falls back to info.
func New(cfg Config) (*Logger, error) {
	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var writer io.Writer
	switch cfg.Format {
	case "", FormatConsole:
		writer = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	case FormatJSON:
		writer = out
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	l := &Logger{
		logger: zerolog.New(writer).Level(level).With().Timestamp().Logger(),
	}

	switch cfg.Backend {
	case "", BackendZerolog:
		l.driver = gcxzerolog.NewZerologLogger(l.logger)
	case BackendZap:
		l.zap = newZap(out, cfg.Format, level)
		l.driver = gcxzap.NewZapLogger(l.zap, gcxzap.Options{LogLevel: zapcore.InfoLevel})
	default:
		return nil, fmt.Errorf("unknown log backend %q", cfg.Backend)
	}
	return l, nil
}

func newZap(out io.Writer, format string, level zerolog.Level) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	if format == FormatJSON {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		enc = zapcore.NewConsoleEncoder(encCfg)
	}
	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(out), zapLevel(level)))
}

func zapLevel(level zerolog.Level) zapcore.Level {
	switch level {
	case zerolog.TraceLevel, zerolog.DebugLevel:
		return zapcore.DebugLevel
	case zerolog.WarnLevel:
		return zapcore.WarnLevel
	case zerolog.ErrorLevel:
		return zapcore.ErrorLevel
	case zerolog.FatalLevel, zerolog.PanicLevel:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// Driver returns the logger for gcx.ConnectionConfig.Logger.
func (l *Logger) Driver() gcx.StdLogger {
	return l.driver
}

// Sync flushes buffered entries of the zap backend.
func (l *Logger) Sync() error {
	if l.zap == nil {
		return nil
	}
	return l.zap.Sync()
}

// Debug logs a debug message
func (l *Logger) Debug() *zerolog.Event {
	return l.logger.Debug()
}

// Info logs an info message
func (l *Logger) Info() *zerolog.Event {
	return l.logger.Info()
}

// Warn logs a warning message
func (l *Logger) Warn() *zerolog.Event {
	return l.logger.Warn()
}

// Error logs an error message
func (l *Logger) Error() *zerolog.Event {
	return l.logger.Error()
}
