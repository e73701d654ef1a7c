//go:build windows

package autostart

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sys/windows/registry"
)

const runKeyPath = `Software\Microsoft\Windows\CurrentVersion\Run`

func IsEnabled(appName string) (bool, error) {
	command, err := Registered(appName)
	return command != "", err
}

// Registered returns the Run-key value for appName, or "" when there is none.
func Registered(appName string) (string, error) {
	var command string
	err := withRunKey(registry.QUERY_VALUE, func(k registry.Key) error {
		v, _, err := k.GetStringValue(appName)
		command = strings.TrimSpace(v)
		return err
	})
	if errors.Is(err, registry.ErrNotExist) {
		return "", nil
	}
	return command, err
}

// Enable writes the Run-key value, replacing an entry that points elsewhere.
func Enable(appName string, executablePath string, args ...string) error {
	k, _, err := registry.CreateKey(registry.CURRENT_USER, runKeyPath, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("autostart: open run key: %w", err)
	}
	defer func() {
		_ = k.Close()
	}()

	return k.SetStringValue(appName, Command(executablePath, args...))
}

// Disable removes the entry. A missing entry is not an error.
func Disable(appName string) error {
	err := withRunKey(registry.SET_VALUE, func(k registry.Key) error {
		return k.DeleteValue(appName)
	})
	if errors.Is(err, registry.ErrNotExist) {
		return nil
	}
	return err
}

func withRunKey(access uint32, fn func(registry.Key) error) error {
	k, err := registry.OpenKey(registry.CURRENT_USER, runKeyPath, access)
	if err != nil {
		return err
	}
	defer func() {
		_ = k.Close()
	}()

	return fn(k)
}
