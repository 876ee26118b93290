package autostart

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"picup/internal/util"
	"strings"
	"text/template"
)

const unitName = "picup.service"

var unitTemplate = template.Must(template.New("service").Parse(`[Unit]
Description=Picup Image Upload Agent
Wants=network-online.target
After=network-online.target

[Service]
ExecStart="{{.ExecPath}}" watch
Restart=on-failure
RestartSec=5

[Install]
WantedBy=default.target
`))

type LinuxAutoStarter struct {
	// Dir overrides ~/.config/systemd/user.
	Dir string
	// Run executes systemctl; nil uses exec.Command.
	Run func(args ...string) ([]byte, error)
}

func renderUnit(execPath string) (string, error) {
	var buf bytes.Buffer
	if err := unitTemplate.Execute(&buf, map[string]string{"ExecPath": execPath}); err != nil {
		return "", fmt.Errorf("failed to render service file: %w", err)
	}

	return buf.String(), nil
}

func (l *LinuxAutoStarter) servicePath() (string, error) {
	dir := l.Dir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, ".config", "systemd", "user")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	return filepath.Join(dir, unitName), nil
}

func (l *LinuxAutoStarter) systemctl(args ...string) ([]byte, error) {
	args = append([]string{"--user"}, args...)
	if l.Run != nil {
		return l.Run(args...)
	}

	return exec.Command("systemctl", args...).CombinedOutput()
}

func (l *LinuxAutoStarter) Install(execPath string) error {
	path, err := l.servicePath()
	if err != nil {
		return err
	}

	unit, err := renderUnit(execPath)
	if err != nil {
		return err
	}

	if err := util.AtomicWrite(path, strings.NewReader(unit), 0644); err != nil {
		return fmt.Errorf("failed to create service file: %w", err)
	}

	cmds := [][]string{
		{"daemon-reload"},
		{"enable", unitName},
		{"start", unitName},
	}

	for _, args := range cmds {
		if out, err := l.systemctl(args...); err != nil {
			return fmt.Errorf("failed to run systemctl %v: %w\n%s", args, err, out)
		}
	}

	return nil
}

func (l *LinuxAutoStarter) Uninstall() error {
	_, _ = l.systemctl("stop", unitName)
	_, _ = l.systemctl("disable", unitName)

	path, err := l.servicePath()
	if err != nil {
		return err
	}

	return util.RemoveIfExists(path)
}

func (l *LinuxAutoStarter) IsInstalled() (bool, error) {
	path, err := l.servicePath()
	if err != nil {
		return false, err
	}

	_, err = os.Stat(path)
	return err == nil, nil
}
