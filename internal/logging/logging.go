// Package logging configures loggo output for the remotetemp commands.
package logging

import (
	"io/ioutil"

	"github.com/juju/loggo"
	errgo "gopkg.in/errgo.v1"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Params holds the logging configuration for a command.
type Params struct {
	// LogFile holds the path of a file to log to. If it's empty,
	// log output goes to stderr, except when the process is
	// daemonized, in which case it's discarded because a daemon
	// has no stderr to write to.
	LogFile string
	// Level holds the minimum severity of messages to log, one of
	// TRACE, DEBUG, INFO, WARNING, ERROR or CRITICAL. If it's
	// empty, INFO is used.
	Level string
	// Daemonized reports whether the process runs detached from
	// its terminal.
	Daemonized bool
}

// Setup configures the level and destination of all remotetemp
// log output according to p. Log files are rotated when they
// reach 1MB.
func Setup(p Params) error {
	level := p.Level
	if level == "" {
		level = "INFO"
	}
	if _, ok := loggo.ParseLevel(level); !ok {
		return errgo.Newf("invalid log level %q", level)
	}
	if err := loggo.ConfigureLoggers("remotetemp=" + level); err != nil {
		return errgo.Mask(err)
	}
	switch {
	case p.LogFile != "":
		w := &lumberjack.Logger{
			Filename:   p.LogFile,
			MaxSize:    1, // megabytes
			MaxBackups: 2,
		}
		if _, err := loggo.ReplaceDefaultWriter(loggo.NewSimpleWriter(w, loggo.DefaultFormatter)); err != nil {
			return errgo.Mask(err)
		}
	case p.Daemonized:
		if _, err := loggo.ReplaceDefaultWriter(loggo.NewSimpleWriter(ioutil.Discard, loggo.DefaultFormatter)); err != nil {
			return errgo.Mask(err)
		}
	}
	return nil
}
