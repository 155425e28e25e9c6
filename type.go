package muon

import "fmt"

// FileType is the on-disk type tag of an inode. It determines which union
// variant of the inode's payload is valid: Regular and Directory use the
// block-pointer payload, Symlink uses the path payload.
type FileType uint8

const (
	// Regular is a normal file addressed through bmap.
	Regular FileType = iota + 1
	// Directory holds a packed sequence of DirEntry records as its data.
	Directory
	// Symlink stores a path string inline in the inode, not through bmap.
	Symlink
	// Special denotes a device or other non-data file. Muon does not give
	// it any data of its own; it exists so the type tag space matches the
	// full taxonomy of file kinds the format reserves room for.
	Special
)

func (t FileType) String() string {
	switch t {
	case Regular:
		return "Regular"
	case Directory:
		return "Directory"
	case Symlink:
		return "Symlink"
	case Special:
		return "Special"
	default:
		return fmt.Sprintf("FileType(%d)", uint8(t))
	}
}

// HasBlockPtrs reports whether this file type stores its data through the
// inode's block-pointer payload (direct/indirect pointers into bmap).
func (t FileType) HasBlockPtrs() bool {
	return t == Regular || t == Directory
}
