//go:build linux

package engine

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// setFileTimes applies the source's access and modification times to
// the open destination file using AT_EMPTY_PATH so no second path
// lookup races a concurrent rename.
func setFileTimes(fd *os.File, info os.FileInfo) error {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return os.Chtimes(fd.Name(), info.ModTime(), info.ModTime())
	}
	ts := []unix.Timespec{
		unix.NsecToTimespec(stat.Atim.Nano()),
		unix.NsecToTimespec(stat.Mtim.Nano()),
	}
	if err := unix.UtimesNanoAt(int(fd.Fd()), "", ts, unix.AT_EMPTY_PATH); err != nil {
		return os.Chtimes(fd.Name(), info.ModTime(), info.ModTime())
	}
	return nil
}

// setPlatformAttributes applies POSIX permission bits and ownership.
// Ownership is applied last: it is the step most likely to fail
// without CAP_CHOWN, and a permission/mode failure should not be
// masked by it.
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
