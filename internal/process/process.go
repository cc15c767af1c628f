// Package process manages external process trees: the headless browser and
// the Mermaid CLI both spawn children that must not outlive a conversion.
package process

import "os/exec"

// Bind prepares cmd so that cancelling its context kills the whole process
// tree instead of only the direct child. Call before cmd.Start.
func Bind(cmd *exec.Cmd) {
	setProcessGroup(cmd)
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		KillProcessGroup(cmd.Process.Pid)
		return cmd.Process.Kill()
	}
}
