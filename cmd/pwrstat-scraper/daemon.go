package main

import (
	daemon "github.com/sevlyar/go-daemon"
)

// daemonize re-executes the process in the background. In the parent it
// returns parent=true once the child has started; in the child it returns a
// release func that removes the PID file.
func daemonize(pidFile string) (parent bool, release func(), err error) {
	dctx := &daemon.Context{
		PidFileName: pidFile,
		PidFilePerm: 0o644,
		Umask:       0o27,
	}

	child, err := dctx.Reborn()
	if err != nil {
		return false, nil, err
	}
	if child != nil {
		return true, nil, nil
	}
	return false, func() { _ = dctx.Release() }, nil
}
