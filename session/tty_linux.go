//go:build linux

package session

import (
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// DetectTTY returns the terminal device path for the current process, or ""
// if none is found. Hook processes are often spawned with piped stdio, so
// the process tree is walked (up to 5 parents) looking for an ancestor whose
// stdin resolves to a terminal device. Everything here is readlink and stat
// based -- nothing can block on a pipe.
func DetectTTY() string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		if tty := fdTTY(os.Getpid()); tty != "" {
			return tty
		}
	}

	pid := os.Getpid()
	for range 5 {
		if tty := fdTTY(pid); tty != "" {
			return tty
		}
		parent, ok := parentPID(pid)
		if !ok || parent <= 1 {
			break
		}
		pid = parent
	}

	// SSH sessions expose the allocated TTY directly.
	if tty := os.Getenv("SSH_TTY"); tty != "" {
		return tty
	}
	return ""
}

// fdTTY resolves a process's stdin to a terminal device path, or "".
func fdTTY(pid int) string {
	link, err := os.Readlink("/proc/" + strconv.Itoa(pid) + "/fd/0")
	if err != nil {
		return ""
	}
	if strings.HasPrefix(link, "/dev/pts/") || strings.HasPrefix(link, "/dev/tty") {
		return link
	}
	return ""
}

// parentPID reads the ppid from /proc/<pid>/stat. The comm field is
// parenthesized and may contain spaces, so fields are parsed after the
// closing paren.
func parentPID(pid int) (int, bool) {
	data, err := os.ReadFile("/proc/" + strconv.Itoa(pid) + "/stat")
	if err != nil {
		return 0, false
	}
	s := string(data)
	idx := strings.LastIndexByte(s, ')')
	if idx < 0 || idx+2 >= len(s) {
		return 0, false
	}
	fields := strings.Fields(s[idx+2:])
	if len(fields) < 2 {
		return 0, false
	}
	ppid, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, false
	}
	return ppid, true
}
