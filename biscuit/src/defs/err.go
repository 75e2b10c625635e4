package defs

/// Err_t is the kernel-wide error currency. Zero means success; syscalls
/// collapse any non-zero value to -1 before it reaches user space.
type Err_t int

const (
	EFAULT        Err_t = 1 /// user pointer is unmapped, invalid, or in kernel space
	ENOMEM        Err_t = 2 /// page-frame or swap space exhausted
	EINVAL        Err_t = 3 /// argument out of range or malformed
	ENAMETOOLONG  Err_t = 4 /// path or argument exceeded a length limit
	ENOENT        Err_t = 5 /// no such file
	EBADF         Err_t = 6 /// fd does not name an open file
	EEXIST        Err_t = 7 /// mapping already present for requested range
	ENOSPC        Err_t = 8 /// swap or pool exhausted
)

/// Tid_t identifies a thread. Assignment is monotonically increasing and
/// never reused while the thread object survives.
type Tid_t int

/// Mapid_t identifies an mmap region within one thread's mapping table.
/// A new mapping gets the largest live mapid of its thread plus one, so
/// the first mapping of a thread is 1.
type Mapid_t int
