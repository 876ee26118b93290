package autostart

import (
	"fmt"
	"os/exec"
)

const taskName = `\Picup\UploadAgent`

// logonDelay gives the network a moment after logon before the first upload.
const logonDelay = "0000:30"

type WindowsAutoStarter struct {
	// Run executes schtasks; nil uses exec.Command.
	Run func(args ...string) ([]byte, error)
}

func (w *WindowsAutoStarter) schtasks(args ...string) ([]byte, error) {
	if w.Run != nil {
		return w.Run(args...)
	}

	return exec.Command("schtasks", args...).CombinedOutput()
}

func (w *WindowsAutoStarter) Install(execPath string) error {
	out, err := w.schtasks("/Create",
		"/TN", taskName,
		"/TR", fmt.Sprintf(`"%s" watch`, execPath),
		"/SC", "ONLOGON",
		"/DELAY", logonDelay,
		"/RL", "LIMITED",
		"/F")
	if err != nil {
		return fmt.Errorf("failed to register upload agent task: %w\n%s", err, out)
	}

	return nil
}

func (w *WindowsAutoStarter) Uninstall() error {
	if installed, _ := w.IsInstalled(); !installed {
		return nil
	}

	out, err := w.schtasks("/Delete", "/TN", taskName, "/F")
	if err != nil {
		return fmt.Errorf("failed to remove upload agent task: %w\n%s", err, out)
	}

	return nil
}

func (w *WindowsAutoStarter) IsInstalled() (bool, error) {
	if _, err := w.schtasks("/Query", "/TN", taskName); err != nil {
		return false, nil
	}

	return true, nil
}
