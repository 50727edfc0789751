//go:build !linux

package session

import (
	"os"

	"golang.org/x/term"
)

// DetectTTY returns a stable per-terminal identifier, or "" when stdio is
// not attached to a terminal. Without procfs there is no parent walk; the
// SSH_TTY variable covers remote shells.
func DetectTTY() string {
	if tty := os.Getenv("SSH_TTY"); tty != "" {
		return tty
	}
	if term.IsTerminal(int(os.Stdin.Fd())) {
		if name := ttyName(os.Stdin); name != "" {
			return name
		}
	}
	return ""
}

func ttyName(f *os.File) string {
	// os.File.Name is "/dev/stdin" for the standard streams, which is not a
	// stable terminal identity. Fall back to the controlling terminal link.
	if link, err := os.Readlink("/dev/fd/0"); err == nil && link != "" {
		return link
	}
	return ""
}
