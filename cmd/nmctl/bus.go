package main

import (
	"nmctl/internal/dbusx"
	"nmctl/internal/nm"
)

// dialBus opens the system bus connection and wraps it as the domain-level
// Bus every subcommand programs against. Each invocation dials fresh; nmctl
// is a short-lived CLI, not a daemon holding a long-lived connection.
func dialBus() (nm.Bus, *dbusx.Conn, error) {
	conn, err := dbusx.Dial()
	if err != nil {
		return nil, nil, err
	}
	return nm.NewBus(conn), conn, nil
}
