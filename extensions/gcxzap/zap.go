package gcxzap

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mendonk/gcx"
)

const DefaultName = "gcx"

// Logger is a gcx.StdLogger, which is also accepted by the driver as
// gocql.ClusterConfig.Logger.
type Logger interface {
	gcx.StdLogger
	ZapLogger() *zap.Logger
	Name() string
}

type Options struct {
	// LogLevel of every message. Defaults to info.
	LogLevel zapcore.Level
}

type logger struct {
	zapLogger *zap.Logger
	level     zapcore.Level
}

// NewZapLogger creates a new zap based logger with the logger name set to DefaultName
func NewZapLogger(l *zap.Logger, opts Options) Logger {
	return &logger{zapLogger: l.Named(DefaultName), level: opts.LogLevel}
}

// NewUnnamedZapLogger doesn't set the logger name so the user can set the name of the logger
// before providing it to this function (or just leave it unset)
func NewUnnamedZapLogger(l *zap.Logger, opts Options) Logger {
	return &logger{zapLogger: l, level: opts.LogLevel}
}

func (rec *logger) ZapLogger() *zap.Logger {
	return rec.zapLogger
}

func (rec *logger) Name() string {
	return rec.zapLogger.Name()
}

func (rec *logger) log(msg string) {
	if ce := rec.zapLogger.Check(rec.level, strings.TrimRight(msg, "\r\n")); ce != nil {
		ce.Write()
	}
}

func (rec *logger) Print(v ...interface{}) {
	rec.log(fmt.Sprint(v...))
}

func (rec *logger) Printf(format string, v ...interface{}) {
	rec.log(fmt.Sprintf(format, v...))
}

func (rec *logger) Println(v ...interface{}) {
	rec.log(fmt.Sprintln(v...))
}
