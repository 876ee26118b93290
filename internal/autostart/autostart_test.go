package autostart

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForOS(t *testing.T) {
	assert.IsType(t, &LinuxAutoStarter{}, forOS("linux"))
	assert.IsType(t, &WindowsAutoStarter{}, forOS("windows"))

	as := forOS("plan9")
	assert.ErrorIs(t, as.Install("/opt/picup"), ErrUnsupported)
	assert.ErrorIs(t, as.Uninstall(), ErrUnsupported)

	installed, err := as.IsInstalled()
	require.NoError(t, err)
	assert.False(t, installed)
}

func TestWindowsAutoStarter_Install(t *testing.T) {
	var calls [][]string
	w := &WindowsAutoStarter{Run: func(args ...string) ([]byte, error) {
		calls = append(calls, args)
		return nil, nil
	}}

	require.NoError(t, w.Install(`C:\picup\picup.exe`))
	require.Len(t, calls, 1)

	args := strings.Join(calls[0], " ")
	assert.Contains(t, args, `/TN \Picup\UploadAgent`)
	assert.Contains(t, args, `/TR "C:\picup\picup.exe" watch`)
	assert.Contains(t, args, "/SC ONLOGON")
	assert.Contains(t, args, "/DELAY 0000:30")
}

func TestWindowsAutoStarter_Uninstall(t *testing.T) {
	var calls []string
	registered := false
	w := &WindowsAutoStarter{Run: func(args ...string) ([]byte, error) {
		calls = append(calls, args[0])
		if args[0] == "/Query" && !registered {
			return []byte("ERROR: The system cannot find the file specified."), errors.New("exit status 1")
		}
		return nil, nil
	}}

	require.NoError(t, w.Uninstall())
	assert.Equal(t, []string{"/Query"}, calls, "nothing to delete")

	registered = true
	calls = nil
	require.NoError(t, w.Uninstall())
	assert.Equal(t, []string{"/Query", "/Delete"}, calls)
}

func TestWindowsAutoStarter_InstallFailure(t *testing.T) {
	w := &WindowsAutoStarter{Run: func(args ...string) ([]byte, error) {
		return []byte("ERROR: Access is denied."), errors.New("exit status 1")
	}}

	err := w.Install(`C:\picup\picup.exe`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Access is denied")
}
