package gcxzerolog

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mendonk/gcx"
)

const DefaultName = "gcx"
const DefaultNameField = "logger"

// Logger is a gcx.StdLogger, which is also accepted by the driver as
// gocql.ClusterConfig.Logger.
type Logger interface {
	gcx.StdLogger
	ZerologLogger() zerolog.Logger
}

type logger struct {
	zerologLogger zerolog.Logger
	level         zerolog.Level
}

// NewZerologLogger creates a new zerolog based logger with a global context containing a field
// with name "logger" and value "gcx", i.e.:
//
//	l.With().Str("logger", "gcx").Logger()
//
// Messages are logged at info level.
func NewZerologLogger(l zerolog.Logger) Logger {
	return &logger{
		zerologLogger: l.With().Str(DefaultNameField, DefaultName).Logger(),
		level:         zerolog.InfoLevel,
	}
}

// NewUnnamedZerologLogger creates a new zerolog based logger without modifying its context like
// NewZerologLogger does. Messages are logged at level.
func NewUnnamedZerologLogger(l zerolog.Logger, level zerolog.Level) Logger {
	return &logger{zerologLogger: l, level: level}
}

func (rec *logger) ZerologLogger() zerolog.Logger {
	return rec.zerologLogger
}

func (rec *logger) Print(v ...interface{}) {
	rec.zerologLogger.WithLevel(rec.level).Msg(trim(fmt.Sprint(v...)))
}

func (rec *logger) Printf(format string, v ...interface{}) {
	rec.zerologLogger.WithLevel(rec.level).Msg(trim(fmt.Sprintf(format, v...)))
}

func (rec *logger) Println(v ...interface{}) {
	rec.zerologLogger.WithLevel(rec.level).Msg(trim(fmt.Sprintln(v...)))
}

// trim drops the line ending driver messages carry.
func trim(msg string) string {
	return strings.TrimRight(msg, "\r\n")
}
