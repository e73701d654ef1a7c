// Package setup installs the running binary into the agent's data directory
// and keeps the autostart entry pointing at the installed copy.
package setup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/NowakAdmin/ScaleBridge/internal/autostart"
	"github.com/NowakAdmin/ScaleBridge/internal/config"
)

const AppName = "ScaleBridge"

type Installer struct {
	AppName    string
	Dir        string
	Executable func() (string, error)
	Registered func(appName string) (string, error)
	Enable     func(appName, executablePath string, args ...string) error
}

func NewInstaller() Installer {
	return Installer{
		AppName:    AppName,
		Dir:        config.Dir(),
		Executable: os.Executable,
		Registered: autostart.Registered,
		Enable:     autostart.Enable,
	}
}

// Target is where the installed binary lives.
func (i Installer) Target() string {
	name := strings.ToLower(i.AppName)
	if runtime.GOOS == "windows" {
		name = i.AppName + ".exe"
	}
	return filepath.Join(i.Dir, name)
}

// NeedsInstall reports whether the running binary is somewhere other than
// Target.
func (i Installer) NeedsInstall() (bool, error) {
	current, err := i.Executable()
	if err != nil {
		return false, fmt.Errorf("failed to get executable path: %w", err)
	}

	return !samePath(current, i.Target()), nil
}

// Install copies the running binary to Target and registers it for autostart.
func (i Installer) Install() (string, error) {
	current, err := i.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}

	target := i.Target()
	if !samePath(current, target) {
		if err := copyBinary(current, target); err != nil {
			return "", err
		}
	}

	if err := i.Enable(i.AppName, target); err != nil {
		return target, fmt.Errorf("failed to update autostart: %w", err)
	}

	return target, nil
}

// VerifyAutostart repoints an existing autostart entry at Target. A missing
// entry is left alone: the operator may have disabled autostart on purpose.
func (i Installer) VerifyAutostart() error {
	command, err := i.Registered(i.AppName)
	if err != nil || command == "" {
		return err
	}

	if samePath(autostart.Executable(command), i.Target()) {
		return nil
	}

	return i.Enable(i.AppName, i.Target())
}

func copyBinary(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create app directory: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to read source binary: %w", err)
	}
	defer func() {
		_ = in.Close()
	}()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".install-*")
	if err != nil {
		return fmt.Errorf("failed to write target binary: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if _, err = io.Copy(tmp, in); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write target binary: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to write target binary: %w", err)
	}
	if err = os.Chmod(tmp.Name(), 0o755); err != nil {
		return err
	}

	// A running copy at dst cannot be replaced on Windows.
	if err = os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("failed to replace target binary: %w", err)
	}

	return nil
}

func samePath(a, b string) bool {
	a, b = filepath.Clean(a), filepath.Clean(b)
	if abs, err := filepath.Abs(a); err == nil {
		a = abs
	}
	if abs, err := filepath.Abs(b); err == nil {
		b = abs
	}

	if runtime.GOOS == "windows" {
		return strings.EqualFold(a, b)
	}
	return a == b
}
