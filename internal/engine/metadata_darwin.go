//go:build darwin

package engine

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// setFileTimes applies the source's access and modification times.
// Darwin's utimensat lacks AT_EMPTY_PATH and UTIME_OMIT semantics the
// way Linux has them, so this goes through the path-based syscall
// instead of the fd-based one used on Linux.
func setFileTimes(fd *os.File, info os.FileInfo) error {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return os.Chtimes(fd.Name(), info.ModTime(), info.ModTime())
	}
	ts := []unix.Timespec{
		unix.NsecToTimespec(stat.Atimespec.Nano()),
		unix.NsecToTimespec(stat.Mtimespec.Nano()),
	}
	if err := unix.UtimesNanoAt(unix.AT_FDCWD, fd.Name(), ts, 0); err != nil {
		return os.Chtimes(fd.Name(), info.ModTime(), info.ModTime())
	}
	return nil
}

// setPlatformAttributes applies POSIX permission bits and ownership.
func setPlatformAttributes(fd *os.File, info os.FileInfo) error {
	if err := unix.Fchmod(int(fd.Fd()), uint32(info.Mode().Perm())); err != nil {
		return err
	}
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return nil
	}
	return unix.Fchown(int(fd.Fd()), int(stat.Uid), int(stat.Gid))
}
