// Package autostart registers the agent to start at user logon. Only Windows
// has an implementation; elsewhere the calls succeed without effect and the
// service manager is expected to handle startup.
package autostart

import "strings"

// Command builds the Run-key value: the quoted executable followed by args.
func Command(executablePath string, args ...string) string {
	command := `"` + executablePath + `"`
	if len(args) > 0 {
		command += " " + strings.Join(args, " ")
	}
	return command
}

// Executable extracts the executable path from a Run-key value written by
// Command or by hand.
func Executable(command string) string {
	command = strings.TrimSpace(command)
	if strings.HasPrefix(command, `"`) {
		if end := strings.Index(command[1:], `"`); end >= 0 {
			return command[1 : end+1]
		}
		return strings.Trim(command, `"`)
	}

	if i := strings.IndexByte(command, ' '); i >= 0 {
		return command[:i]
	}
	return command
}
