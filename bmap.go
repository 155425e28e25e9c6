package muon

// bmap translates a block-aligned file offset into a data block id,
// consulting the inode's direct pointers for the first NumDirectPtrs
// blocks and the single indirect block after that. When create is true
// and the target pointer is absent, a block is allocated, recorded, and
// inode.Blocks is incremented; the inode itself is not persisted here —
// callers that mutate it through bmap are responsible for writing it back
// once they're done (fwrite, dir_add_entry, mkdir all do this).
//
// Extension policy: when create is true and fileOffset >= inode.Size,
// inode.Size is extended to at least fileOffset+1 before any allocation
// decision, and inode.Blocks is recomputed from the new size. Combined
// with on-demand slot fill, a single write far past the current end of
// file allocates only the blocks actually touched, leaving everything in
// between as holes.
func bmap(dev BlockDevice, sb *SuperBlock, ino *Inode, fileOffset uint64, create bool) (uint32, error) {
	blockIndex := fileOffset / BlockSize

	if create && fileOffset >= ino.Size {
		ino.Size = fileOffset + 1
	}
	ino.Blocks = uint32((ino.Size + BlockSize - 1) / BlockSize)

	if blockIndex < NumDirectPtrs {
		blockID := ino.Ptrs.Direct[blockIndex]
		if blockID == 0 {
			if !create {
				return 0, ErrOutOfBounds
			}
			var err error
			blockID, err = allocDataBlock(dev, sb)
			if err != nil {
				return 0, err
			}
			ino.Ptrs.Direct[blockIndex] = blockID
			ino.Blocks++
		}
		return blockID, nil
	}

	indirectOffset := blockIndex - NumDirectPtrs
	if indirectOffset >= PtrsPerBlock {
		return 0, ErrFileTooLarge
	}

	indirectBlockID := ino.Ptrs.Indirect
	if indirectBlockID == 0 {
		if !create {
			return 0, ErrOutOfBounds
		}
		var err error
		indirectBlockID, err = allocDataBlock(dev, sb)
		if err != nil {
			return 0, err
		}
		ino.Ptrs.Indirect = indirectBlockID
		ino.Blocks++
		zero := make([]byte, BlockSize)
		if err := dev.WriteBlock(indirectBlockID, zero); err != nil {
			return 0, err
		}
	}

	idxBuf := make([]byte, BlockSize)
	if err := dev.ReadBlock(indirectBlockID, idxBuf); err != nil {
		return 0, err
	}

	off := int(indirectOffset) * 4
	dataBlockID := byteOrder.Uint32(idxBuf[off : off+4])
	if dataBlockID == 0 {
		if !create {
			return 0, ErrOutOfBounds
		}
		var err error
		dataBlockID, err = allocDataBlock(dev, sb)
		if err != nil {
			return 0, err
		}
		byteOrder.PutUint32(idxBuf[off:off+4], dataBlockID)
		ino.Blocks++
		if err := dev.WriteBlock(indirectBlockID, idxBuf); err != nil {
			return 0, err
		}
	}

	return dataBlockID, nil
}
