package muon

import (
	"fmt"
	"io/fs"
)

// Mode is a capability bitmask, not a Unix permission mode: Muon has no
// users or groups, so a single 3-bit mask of Read/Write/Execute applies to
// whoever holds the inode. fread/fwrite check it through the façade (§4.9);
// Special/Symlink inodes generally carry None since they don't go through
// fread/fwrite at all.
type Mode uint8

const (
	None Mode = 0
	R    Mode = 1 << 0
	W    Mode = 1 << 1
	X    Mode = 1 << 2

	RW  = R | W
	RE  = R | X
	RWE = R | W | X
)

func (m Mode) String() string {
	var out [3]byte
	out[0] = '-'
	out[1] = '-'
	out[2] = '-'
	if m&R != 0 {
		out[0] = 'r'
	}
	if m&W != 0 {
		out[1] = 'w'
	}
	if m&X != 0 {
		out[2] = 'x'
	}
	return string(out[:])
}

// CanRead reports whether m grants read capability.
func (m Mode) CanRead() bool { return m&R != 0 }

// CanWrite reports whether m grants write capability.
func (m Mode) CanWrite() bool { return m&W != 0 }

// FileMode renders (ftype, mode) as a Go io/fs.FileMode, for consumers that
// want a stdlib-shaped stat result (the FUSE adapter, `fs.FS` wrappers).
// Only the type bit and the rwx bits meaningful to Muon are populated;
// there is no notion of group/other permissions to synthesize.
func FileMode(ftype FileType, mode Mode) fs.FileMode {
	var out fs.FileMode
	switch ftype {
	case Directory:
		out |= fs.ModeDir
	case Symlink:
		out |= fs.ModeSymlink
	case Special:
		out |= fs.ModeIrregular
	case Regular:
		// no type bit
	default:
		out |= fs.ModeIrregular
	}

	if mode.CanRead() {
		out |= 0444
	}
	if mode.CanWrite() {
		out |= 0222
	}
	if mode&X != 0 {
		out |= 0111
	}
	return out
}

func (m Mode) GoString() string {
	return fmt.Sprintf("Mode(%03b)", uint8(m))
}
