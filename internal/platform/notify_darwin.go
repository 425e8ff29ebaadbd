//go:build darwin

package platform

import (
	"fmt"
	"os/exec"
)

// Notify shows a Notification Center banner. Critical messages use a dialog
// so they stay until dismissed.
func Notify(title, body string, opts Options) error {
	script := fmt.Sprintf("display notification %q with title %q subtitle %q", body, title, opts.appName())
	if opts.Critical {
		script = fmt.Sprintf("display alert %q message %q as critical", title, body)
	}
	return exec.Command("osascript", "-e", script).Run()
}
