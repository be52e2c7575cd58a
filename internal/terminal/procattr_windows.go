//go:build windows

package terminal

import "os/exec"

func setProcessGroup(cmd *exec.Cmd) {}
