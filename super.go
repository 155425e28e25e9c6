package muon

import (
	"bytes"
	"encoding/binary"
)

// SuperBlock is the in-memory copy of the single metadata block at index 0.
// The file-system instance owns exactly one of these; every other piece of
// state lives on disk and is read fresh from the device or cache shim.
type SuperBlock struct {
	Magic       uint32
	TotalBlocks uint32
	BlockSize   uint32
	FreeBlocks  uint32
	NumInodes   uint32
	FreeInodes  uint32
	RootInodeID uint32

	DataBitmapStart uint32
	DataBitmapLen   uint32
	InodeBitmapStart uint32
	InodeBitmapLen   uint32
	InodeTableStart  uint32
	InodeTableLen    uint32
	DataStart        uint32
	DataLen          uint32
}

const superBlockWireSize = 4 * 15 // 15 uint32 fields

// layout holds the block counts/offsets a fresh format computes, kept
// separate from SuperBlock only for readability at the call site.
type layout struct {
	dataBitmapStart, dataBitmapLen   uint32
	inodeBitmapStart, inodeBitmapLen uint32
	inodeTableStart, inodeTableLen   uint32
	dataStart, dataLen               uint32
}

// computeLayout packs the five regions (superblock, data bitmap, inode
// bitmap, inode table, data) contiguously starting at block 0, sized to
// hold numBlocks data-bitmap bits and numInodes inodes. Bitmap sizes round
// up to a whole block; the inode table is numInodes * InodeSize bytes,
// also rounded up to a whole block.
func computeLayout(numBlocks, numInodes uint32) layout {
	dataBitmapLen := ceilDivBlocks(ceilDiv(numBlocks, 8))
	inodeBitmapLen := ceilDivBlocks(ceilDiv(numInodes, 8))
	inodeTableLen := ceilDivBlocks(numInodes * InodeSize)

	dataBitmapStart := uint32(1) // block 0 is the superblock
	inodeBitmapStart := dataBitmapStart + dataBitmapLen
	inodeTableStart := inodeBitmapStart + inodeBitmapLen
	dataStart := inodeTableStart + inodeTableLen
	dataLen := uint32(0)
	if numBlocks > dataStart {
		dataLen = numBlocks - dataStart
	}

	return layout{
		dataBitmapStart:  dataBitmapStart,
		dataBitmapLen:    dataBitmapLen,
		inodeBitmapStart: inodeBitmapStart,
		inodeBitmapLen:   inodeBitmapLen,
		inodeTableStart:  inodeTableStart,
		inodeTableLen:    inodeTableLen,
		dataStart:        dataStart,
		dataLen:          dataLen,
	}
}

func ceilDiv(n, d uint32) uint32 {
	return (n + d - 1) / d
}

// ceilDivBlocks converts a byte count to a block count, rounding up.
func ceilDivBlocks(bytesCnt uint32) uint32 {
	return ceilDiv(bytesCnt, BlockSize)
}

// newSuperBlock builds the superblock for a fresh format(): every data
// block and every inode starts out free. Format then allocates the
// sentinel (id 0) and root (id 1) inodes, leaving numInodes-2 free.
func newSuperBlock(numBlocks, numInodes uint32) (*SuperBlock, error) {
	if numBlocks == 0 || numInodes < 2 {
		return nil, ErrInvalidArgument
	}
	l := computeLayout(numBlocks, numInodes)
	if l.dataStart >= numBlocks {
		return nil, ErrOutOfSpace
	}

	return &SuperBlock{
		Magic:            Magic,
		TotalBlocks:      numBlocks,
		BlockSize:        BlockSize,
		FreeBlocks:       l.dataLen,
		NumInodes:        numInodes,
		FreeInodes:       numInodes,
		RootInodeID:      RootInodeID,
		DataBitmapStart:  l.dataBitmapStart,
		DataBitmapLen:    l.dataBitmapLen,
		InodeBitmapStart: l.inodeBitmapStart,
		InodeBitmapLen:   l.inodeBitmapLen,
		InodeTableStart:  l.inodeTableStart,
		InodeTableLen:    l.inodeTableLen,
		DataStart:        l.dataStart,
		DataLen:          l.dataLen,
	}, nil
}

// encode renders the superblock into one BlockSize-sized buffer.
func (s *SuperBlock) encode() []byte {
	buf := new(bytes.Buffer)
	buf.Grow(BlockSize)

	fields := []uint32{
		s.Magic, s.TotalBlocks, s.BlockSize, s.FreeBlocks,
		s.NumInodes, s.FreeInodes, s.RootInodeID,
		s.DataBitmapStart, s.DataBitmapLen,
		s.InodeBitmapStart, s.InodeBitmapLen,
		s.InodeTableStart, s.InodeTableLen,
		s.DataStart, s.DataLen,
	}
	for _, f := range fields {
		binary.Write(buf, byteOrder, f)
	}

	out := make([]byte, BlockSize)
	copy(out, buf.Bytes())
	return out
}

// decodeSuperBlock parses a block read from block 0, validating the magic
// number and the block size field before trusting anything else.
func decodeSuperBlock(raw []byte) (*SuperBlock, error) {
	if len(raw) < superBlockWireSize {
		return nil, ErrInvalidSuper
	}
	r := bytes.NewReader(raw)
	s := &SuperBlock{}

	targets := []*uint32{
		&s.Magic, &s.TotalBlocks, &s.BlockSize, &s.FreeBlocks,
		&s.NumInodes, &s.FreeInodes, &s.RootInodeID,
		&s.DataBitmapStart, &s.DataBitmapLen,
		&s.InodeBitmapStart, &s.InodeBitmapLen,
		&s.InodeTableStart, &s.InodeTableLen,
		&s.DataStart, &s.DataLen,
	}
	for _, t := range targets {
		if err := binary.Read(r, byteOrder, t); err != nil {
			return nil, ErrInvalidSuper
		}
	}

	if s.Magic != Magic {
		return nil, ErrInvalidMagic
	}
	if s.BlockSize != BlockSize {
		return nil, ErrInvalidSuper
	}
	return s, nil
}

// readSuperBlock reads and decodes block 0 of dev.
func readSuperBlock(dev BlockDevice) (*SuperBlock, error) {
	buf := make([]byte, BlockSize)
	if err := dev.ReadBlock(SuperblockID, buf); err != nil {
		return nil, err
	}
	return decodeSuperBlock(buf)
}

// writeSuperBlock persists s to block 0 of dev. Called after every
// bitmap-affecting operation (alloc/free of a block or inode), per the
// crash-window-minimization policy: free_blocks/free_inodes must never be
// stale relative to the on-disk bitmaps at the start of the next operation.
func writeSuperBlock(dev BlockDevice, s *SuperBlock) error {
	return dev.WriteBlock(SuperblockID, s.encode())
}
