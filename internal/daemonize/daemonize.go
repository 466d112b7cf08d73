// Package daemonize detaches the calling process from its
// controlling terminal, optionally writing a PID file.
package daemonize

import (
	daemon "github.com/sevlyar/go-daemon"
	errgo "gopkg.in/errgo.v1"
)

// Params holds the daemonization settings for a command.
type Params struct {
	// Daemonize reports whether the process should detach and
	// run in the background. A non-empty PIDFile implies it.
	Daemonize bool
	// PIDFile holds the path of a file to write the daemon's
	// PID to. The file is locked for the lifetime of the daemon
	// and removed on clean exit.
	PIDFile string
}

// Daemonize re-executes the current process in the background if p
// asks for it. In the parent it returns parent=true and the caller
// should exit immediately; in the daemon child (and when no
// daemonization was requested) it returns a release function that
// the caller must invoke before exiting.
func Daemonize(p Params) (release func(), parent bool, err error) {
	if !p.Daemonize && p.PIDFile == "" {
		return func() {}, false, nil
	}
	cntxt := &daemon.Context{
		PidFileName: p.PIDFile,
		PidFilePerm: 0644,
		Umask:       027,
	}
	child, err := cntxt.Reborn()
	if err != nil {
		return nil, false, errgo.Notef(err, "cannot daemonize")
	}
	if child != nil {
		return func() {}, true, nil
	}
	return func() {
		cntxt.Release()
	}, false, nil
}
