//go:build !windows

package autostart

// Outside Windows nothing is registered; Enable and Disable are no-ops.

func IsEnabled(string) (bool, error) { return false, nil }

func Registered(string) (string, error) { return "", nil }

func Enable(string, string, ...string) error { return nil }

func Disable(string) error { return nil }
