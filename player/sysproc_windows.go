//go:build windows

package player

import (
	"os/exec"
	"syscall"
)

func ownProcessGroup() *syscall.SysProcAttr {
	return nil
}

// killGroup kills the player process only; there are no process groups to signal.
func killGroup(cmd *exec.Cmd) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}
