//go:build windows

package process

import (
	"os"
	"syscall"
)

func sysProcAttr() *syscall.SysProcAttr {
	return nil
}

// killProcess terminates the child. Windows has no process groups to signal.
func killProcess(p *os.Process) error {
	return p.Kill()
}
