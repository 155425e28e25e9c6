package muon

// inodesPerBlock is how many fixed-size inode records pack into one block.
const inodesPerBlock = BlockSize / InodeSize

// inodeSlot locates the block and intra-block byte offset for inodeID.
func inodeSlot(sb *SuperBlock, inodeID uint32) (blockID uint32, offset int) {
	blockID = sb.InodeTableStart + inodeID/inodesPerBlock
	offset = int(inodeID%inodesPerBlock) * InodeSize
	return
}

// getInode reads and decodes the record at inodeID.
func getInode(dev BlockDevice, sb *SuperBlock, inodeID uint32) (Inode, error) {
	if inodeID >= sb.NumInodes {
		return Inode{}, ErrOutOfBounds
	}
	blockID, off := inodeSlot(sb, inodeID)
	buf := make([]byte, BlockSize)
	if err := dev.ReadBlock(blockID, buf); err != nil {
		return Inode{}, err
	}
	return decodeInode(buf[off : off+InodeSize])
}

// writeInode encodes and stores ino at slot inodeID, preserving its
// siblings in the same block (inode records are smaller than a block, so
// writing one means read-modify-write of the whole block).
func writeInode(dev BlockDevice, sb *SuperBlock, inodeID uint32, ino *Inode) error {
	if inodeID >= sb.NumInodes {
		return ErrOutOfBounds
	}
	blockID, off := inodeSlot(sb, inodeID)
	buf := make([]byte, BlockSize)
	if err := dev.ReadBlock(blockID, buf); err != nil {
		return err
	}
	enc, err := encodeInode(ino)
	if err != nil {
		return err
	}
	copy(buf[off:off+InodeSize], enc)
	return dev.WriteBlock(blockID, buf)
}

// allocInode grabs a free inode id from the bitmap and returns a freshly
// initialized, empty inode of the given type/mode already written to its
// slot. The superblock's free_inodes count is updated but not persisted;
// callers persist it as part of their own bitmap-change bookkeeping.
func allocInode(dev BlockDevice, sb *SuperBlock, ftype FileType, mode Mode) (Inode, error) {
	id, err := allocInodeID(dev, sb)
	if err != nil {
		return Inode{}, err
	}
	ino := NewInode(ftype, mode, id)
	if err := writeInode(dev, sb, id, &ino); err != nil {
		return Inode{}, err
	}
	return ino, nil
}

// freeInode releases every resource owned by the inode at inodeID: all
// present direct data blocks, every non-zero pointer inside the indirect
// block (if any) plus the indirect block itself, then the inode bit and
// slot. Symlinks carry no block payload, so only the bit and slot are
// touched. Returns the record as it was immediately before being freed.
func freeInode(dev BlockDevice, sb *SuperBlock, inodeID uint32) (Inode, error) {
	ino, err := getInode(dev, sb, inodeID)
	if err != nil {
		return Inode{}, err
	}

	if ino.Type.HasBlockPtrs() {
		for _, b := range ino.Ptrs.Direct {
			if b != 0 {
				if err := freeDataBlock(dev, sb, b); err != nil {
					return Inode{}, err
				}
			}
		}
		if ino.Ptrs.Indirect != 0 {
			buf := make([]byte, BlockSize)
			if err := dev.ReadBlock(ino.Ptrs.Indirect, buf); err != nil {
				return Inode{}, err
			}
			for i := 0; i < PtrsPerBlock; i++ {
				p := byteOrder.Uint32(buf[i*4 : i*4+4])
				if p != 0 {
					if err := freeDataBlock(dev, sb, p); err != nil {
						return Inode{}, err
					}
				}
			}
			if err := freeDataBlock(dev, sb, ino.Ptrs.Indirect); err != nil {
				return Inode{}, err
			}
		}
	}

	if err := freeInodeID(dev, sb, inodeID); err != nil {
		return Inode{}, err
	}

	blockID, off := inodeSlot(sb, inodeID)
	buf := make([]byte, BlockSize)
	if err := dev.ReadBlock(blockID, buf); err != nil {
		return Inode{}, err
	}
	for i := range buf[off : off+InodeSize] {
		buf[off+i] = 0
	}
	if err := dev.WriteBlock(blockID, buf); err != nil {
		return Inode{}, err
	}

	return ino, nil
}
