package muon

// Package-wide structural constants. These are fixed, on-disk format
// parameters, not runtime configuration: changing any of them changes the
// byte layout of every structure in this package.
const (
	// Magic identifies a Muon image: the ASCII bytes "MUON" read as a
	// big-endian u32 (stored little-endian like every other field).
	Magic uint32 = 0x4D554F4E

	// BlockSize is the fixed size, in bytes, of every block on a Muon
	// device: the superblock, every bitmap block, every inode-table block
	// and every data block.
	BlockSize = 512

	// InodeSize is the fixed, padded size of one on-disk inode record.
	InodeSize = 128

	// NumDirectPtrs is the number of direct block pointers carried in an
	// inode's block-pointer payload.
	NumDirectPtrs = 12

	// NumIndirectPtrs is the number of indirect pointers carried in an
	// inode's block-pointer payload. Muon supports single indirection only.
	NumIndirectPtrs = 1

	// PtrsPerBlock is the number of u32 block ids that fit in one indirect
	// block.
	PtrsPerBlock = BlockSize / 4

	// DirEntrySize is the fixed size of one directory entry record.
	DirEntrySize = 64

	// MaxFileNameLen is the longest name a directory entry can hold: the
	// entry minus its inode id field.
	MaxFileNameLen = DirEntrySize - 4

	// NumEntryPerBlock is the number of directory entries packed into one
	// data block.
	NumEntryPerBlock = BlockSize / DirEntrySize

	// MaxPathLen is the longest symlink target Muon can store inline in an
	// inode: the inode's fixed size minus its non-payload header fields
	// (file_type, mode, id, blocks, links_cnt, size).
	MaxPathLen = InodeSize - inodeHeaderSize

	// SymloopMax bounds the number of symlink substitutions a single path
	// resolution may perform before it is considered a loop.
	SymloopMax = 40

	// RootInodeID is the inode id of the file system root directory.
	// Inode id 0 is reserved as a sentinel meaning "no inode" / "empty
	// directory slot", so the root cannot be id 0.
	RootInodeID = 1

	// SuperblockID is the fixed block id of the superblock.
	SuperblockID = 0

	// MaxFileSize bounds how large a single regular file may grow:
	// NumDirectPtrs direct blocks plus PtrsPerBlock indirect blocks.
	MaxFileSize = (NumDirectPtrs + PtrsPerBlock) * BlockSize
)

// inodeHeaderSize is the byte size of the fixed, non-payload portion of an
// on-disk inode record: file_type(1) + mode(1) + id(4) + blocks(4) +
// links_cnt(4) + size(8).
const inodeHeaderSize = 1 + 1 + 4 + 4 + 4 + 8
