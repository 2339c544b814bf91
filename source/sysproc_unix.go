//go:build !windows

package source

import (
	"os/exec"
	"syscall"
)

// sysProcAttr places decode processes in their own process group so a
// stubborn engine can be killed together with anything it forked.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Setpgid: true,
	}
}

func killProcess(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}

	_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	_ = cmd.Process.Kill()
}
