//go:build unix

package main

import "golang.org/x/sys/unix"

// openFilesLimit returns soft limit of open file descriptors.
func openFilesLimit() (uint64, error) {
	var rl unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rl); err != nil {
		return 0, err
	}
	return uint64(rl.Cur), nil
}
