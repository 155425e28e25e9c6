package muon

// BlockPtr is the block-pointer payload of a Regular or Directory inode:
// NumDirectPtrs direct block ids plus one indirect block id. A zero value
// means "absent" (a hole) rather than "pointer to block 0" — block 0 is the
// superblock and can never be a data block, so 0 is a safe sentinel for
// "not yet allocated".
type BlockPtr struct {
	Direct   [NumDirectPtrs]uint32
	Indirect uint32
}

// Inode is the in-memory form of one 128-byte on-disk inode record. The
// payload is a tagged union keyed by Type: Regular/Directory inodes use
// Ptrs, Symlink inodes use Path. Muon represents the union as two plain
// fields rather than an unsafe union (unlike the Rust original) since Go
// has no safe union type; GetBlockPtrs/GetPath enforce the tag so callers
// can't silently read the wrong variant.
type Inode struct {
	ID       uint32
	Type     FileType
	Mode     Mode
	Blocks   uint32 // data blocks, excluding the indirect index block itself
	LinksCnt uint32
	Size     uint64

	Ptrs BlockPtr          // valid when Type.HasBlockPtrs()
	Path [MaxPathLen]byte  // valid when Type == Symlink, zero-padded
}

// NewInode builds a freshly initialized, zero-content inode of the given
// type/mode/id. It does not allocate any data blocks.
func NewInode(ftype FileType, mode Mode, id uint32) Inode {
	return Inode{
		ID:   id,
		Type: ftype,
		Mode: mode,
	}
}

// GetBlockPtrs returns the inode's block-pointer payload, or
// ErrInvalidFileType if this inode does not carry one (i.e. it's a
// Symlink).
func (i *Inode) GetBlockPtrs() (*BlockPtr, error) {
	if !i.Type.HasBlockPtrs() {
		return nil, ErrInvalidFileType
	}
	return &i.Ptrs, nil
}

// GetPath returns the inode's symlink target buffer, or ErrNotSymlink if
// this inode is not a Symlink.
func (i *Inode) GetPath() (*[MaxPathLen]byte, error) {
	if i.Type != Symlink {
		return nil, ErrNotSymlink
	}
	return &i.Path, nil
}

// IsDirectory, IsRegular, IsSymlink, IsSpecial are convenience predicates
// mirroring the original Rust structs.rs accessors.
func (i *Inode) IsDirectory() bool { return i.Type == Directory }
func (i *Inode) IsRegular() bool   { return i.Type == Regular }
func (i *Inode) IsSymlink() bool   { return i.Type == Symlink }
func (i *Inode) IsSpecial() bool   { return i.Type == Special }

// DirEntry is one fixed-size directory entry: an inode id (0 means an empty
// / tombstoned slot) and a zero-padded name.
type DirEntry struct {
	InodeID uint32
	Name    [MaxFileNameLen]byte
}

// NullDirEntry is the all-zero entry written over a removed slot.
var NullDirEntry = DirEntry{}

// NewDirEntry builds a directory entry for name, failing ErrInvalidFileName
// if name is empty or longer than MaxFileNameLen.
func NewDirEntry(inodeID uint32, name string) (DirEntry, error) {
	if len(name) == 0 || len(name) > MaxFileNameLen {
		return DirEntry{}, ErrInvalidFileName
	}
	var e DirEntry
	e.InodeID = inodeID
	copy(e.Name[:], name)
	return e, nil
}

// NameString returns the entry's name with trailing zero padding trimmed.
func (e *DirEntry) NameString() string {
	return string(trimZero(e.Name[:]))
}

// trimZero trims trailing NUL bytes, the padding convention used for both
// directory entry names and symlink path payloads.
func trimZero(b []byte) []byte {
	i := len(b)
	for i > 0 && b[i-1] == 0 {
		i--
	}
	return b[:i]
}
