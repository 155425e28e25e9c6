package muon

// fread reads up to len(buf) bytes starting at offset from a Regular
// inode's data, stopping early at a hole (an unallocated block within
// size) or at end of file. Returns the number of bytes copied into buf.
func fread(dev BlockDevice, sb *SuperBlock, ino *Inode, offset uint64, buf []byte) (int, error) {
	if !ino.IsRegular() {
		return 0, ErrNotReadable
	}
	if offset >= ino.Size {
		return 0, nil
	}

	remaining := ino.Size - offset
	want := uint64(len(buf))
	if want > remaining {
		want = remaining
	}

	read := 0
	for uint64(read) < want {
		curOffset := offset + uint64(read)
		blockOff := curOffset - (curOffset % BlockSize)
		inBlock := int(curOffset % BlockSize)

		blockID, err := bmap(dev, sb, ino, blockOff, false)
		if err != nil {
			if err == ErrOutOfBounds {
				break
			}
			return read, err
		}

		block := make([]byte, BlockSize)
		if err := dev.ReadBlock(blockID, block); err != nil {
			return read, err
		}

		n := BlockSize - inBlock
		remainingWant := int(want) - read
		if n > remainingWant {
			n = remainingWant
		}
		copy(buf[read:read+n], block[inBlock:inBlock+n])
		read += n
	}

	return read, nil
}

// fwrite writes buf at offset into a Regular inode's data, block by block,
// allocating and extending size as needed. Partial blocks are
// read-modify-written so bytes outside the written slice survive. Persists
// the inode once the whole write completes.
func fwrite(dev BlockDevice, sb *SuperBlock, ino *Inode, offset uint64, buf []byte) (int, error) {
	if !ino.IsRegular() {
		return 0, ErrNotRegular
	}

	written := 0
	curOffset := offset
	for written < len(buf) {
		blockOff := curOffset - (curOffset % BlockSize)
		inBlock := int(curOffset % BlockSize)

		blockID, err := bmap(dev, sb, ino, blockOff, true)
		if err != nil {
			return written, err
		}

		block := make([]byte, BlockSize)
		if err := dev.ReadBlock(blockID, block); err != nil {
			return written, err
		}

		n := BlockSize - inBlock
		remaining := len(buf) - written
		if n > remaining {
			n = remaining
		}
		copy(block[inBlock:inBlock+n], buf[written:written+n])
		if err := dev.WriteBlock(blockID, block); err != nil {
			return written, err
		}

		written += n
		curOffset += uint64(n)
	}

	if curOffset > ino.Size {
		ino.Size = curOffset
	}
	if err := writeInode(dev, sb, ino.ID, ino); err != nil {
		return written, err
	}
	return written, nil
}

// ftruncate frees every data block owned by a Regular inode (direct,
// indirect pointers, and the indirect index block itself), clears the
// pointers, zeros size and blocks, and persists the inode. This is a
// total truncate only — there is no partial-length variant.
func ftruncate(dev BlockDevice, sb *SuperBlock, ino *Inode) error {
	if !ino.IsRegular() {
		return ErrNotRegular
	}

	for i, b := range ino.Ptrs.Direct {
		if b != 0 {
			if err := freeDataBlock(dev, sb, b); err != nil {
				return err
			}
			ino.Ptrs.Direct[i] = 0
		}
	}

	if ino.Ptrs.Indirect != 0 {
		buf := make([]byte, BlockSize)
		if err := dev.ReadBlock(ino.Ptrs.Indirect, buf); err != nil {
			return err
		}
		for i := 0; i < PtrsPerBlock; i++ {
			p := byteOrder.Uint32(buf[i*4 : i*4+4])
			if p != 0 {
				if err := freeDataBlock(dev, sb, p); err != nil {
					return err
				}
			}
		}
		if err := freeDataBlock(dev, sb, ino.Ptrs.Indirect); err != nil {
			return err
		}
		ino.Ptrs.Indirect = 0
	}

	ino.Blocks = 0
	ino.Size = 0
	return writeInode(dev, sb, ino.ID, ino)
}
