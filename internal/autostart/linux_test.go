package autostart

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderUnit(t *testing.T) {
	unit, err := renderUnit("/usr/local/bin/picup")
	require.NoError(t, err)

	assert.Contains(t, unit, `ExecStart="/usr/local/bin/picup" watch`)
	assert.Contains(t, unit, "[Service]")
	assert.Contains(t, unit, "Restart=on-failure")
	assert.Contains(t, unit, "WantedBy=default.target")
}

func TestLinuxAutoStarter_InstallUninstall(t *testing.T) {
	var calls []string
	l := &LinuxAutoStarter{
		Dir: t.TempDir(),
		Run: func(args ...string) ([]byte, error) {
			calls = append(calls, strings.Join(args, " "))
			return nil, nil
		},
	}

	installed, err := l.IsInstalled()
	require.NoError(t, err)
	assert.False(t, installed)

	require.NoError(t, l.Install("/opt/picup"))
	assert.Equal(t, []string{
		"--user daemon-reload",
		"--user enable picup.service",
		"--user start picup.service",
	}, calls)

	data, err := os.ReadFile(filepath.Join(l.Dir, unitName))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"/opt/picup" watch`)

	installed, err = l.IsInstalled()
	require.NoError(t, err)
	assert.True(t, installed)

	require.NoError(t, l.Uninstall())
	installed, err = l.IsInstalled()
	require.NoError(t, err)
	assert.False(t, installed)

	require.NoError(t, l.Uninstall())
}

func TestLinuxAutoStarter_SystemctlFailure(t *testing.T) {
	l := &LinuxAutoStarter{
		Dir: t.TempDir(),
		Run: func(args ...string) ([]byte, error) {
			return []byte("Failed to connect to bus"), errors.New("exit status 1")
		},
	}

	err := l.Install("/opt/picup")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "daemon-reload")
}
