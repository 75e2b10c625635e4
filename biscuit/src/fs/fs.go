// Package fs describes the disk filesystem this kernel core treats as an
// external collaborator (spec.md §1): it is specified only at its
// interface. The teacher's own fs package (Superblock_t, Bdev_block_t, the
// on-disk log) implements the other side of this boundary and is dropped
// here — disk filesystem semantics are explicitly out of scope for the
// core, and keeping that implementation would mean carrying ~580 lines of
// x86 block-cache code no component in this core calls.
package fs

import "defs"

/// File is the minimal file handle the core needs: a read/write/seek cursor,
/// a length, and a stable identifier for FSTAT.
type File interface {
	Read(buf []uint8) (int, defs.Err_t)
	Write(buf []uint8) (int, defs.Err_t)
	Seek(pos int) defs.Err_t
	Pos() int
	Len() (int, defs.Err_t)
	Inum() uint
}

/// FileSys is the disk filesystem surface the syscall dispatcher and the
/// loader call into: open/create/remove by name.
type FileSys interface {
	Open(name string) (File, defs.Err_t)
	Create(name string) (File, defs.Err_t)
	Remove(name string) defs.Err_t
}

/// ErrNoSuchFile is returned by FileSys.Open when name does not exist; the
/// syscall dispatcher's OPEN handling depends on distinguishing this case
/// from other failures to decide whether O_CREATE applies (spec.md §4.13).
const ErrNoSuchFile = defs.ENOENT
