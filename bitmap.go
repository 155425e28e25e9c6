package muon

// setFirstFitBit scans bitmapBlocks blocks starting at bitmapStart, block
// by block, byte by byte, bit by bit from the least significant bit, and
// flips the first bit whose current value differs from target. It returns
// the item id of that bit. totalItems bounds the scan so a bitmap whose
// tail bits are padding past the real item count is never touched: if no
// bit below totalItems differs from target, it returns ErrNotFound.
func setFirstFitBit(dev BlockDevice, bitmapStart, bitmapBlocks, totalItems uint32, target bool) (uint32, error) {
	buf := make([]byte, BlockSize)

	for i := uint32(0); i < bitmapBlocks; i++ {
		blockID := bitmapStart + i
		if err := dev.ReadBlock(blockID, buf); err != nil {
			return 0, err
		}

		for j := 0; j < BlockSize; j++ {
			b := buf[j]
			for k := uint(0); k < 8; k++ {
				itemID := i*BlockSize*8 + uint32(j)*8 + uint32(k)
				if itemID >= totalItems {
					return 0, ErrNotFound
				}
				isSet := b&(1<<k) != 0
				if isSet != target {
					if target {
						buf[j] |= 1 << k
					} else {
						buf[j] &^= 1 << k
					}
					if err := dev.WriteBlock(blockID, buf); err != nil {
						return 0, err
					}
					return itemID, nil
				}
			}
		}
	}

	return 0, ErrNotFound
}

// setBitAt sets (or clears) the bit for itemID directly, without scanning,
// returning the bit's previous value. Kept bounds-checked against
// totalItems even though the caller already knows it, so that a stray
// out-of-range id cannot silently corrupt an adjacent bitmap block.
func setBitAt(dev BlockDevice, bitmapStart, bitmapBlocks, itemID, totalItems uint32, value bool) (bool, error) {
	if itemID >= totalItems {
		return false, ErrOutOfBounds
	}

	blockOff := itemID / (BlockSize * 8)
	byteOff := (itemID % (BlockSize * 8)) / 8
	bitOff := itemID % 8

	if blockOff >= bitmapBlocks {
		return false, ErrOutOfBounds
	}

	blockID := bitmapStart + blockOff
	buf := make([]byte, BlockSize)
	if err := dev.ReadBlock(blockID, buf); err != nil {
		return false, err
	}

	prev := buf[byteOff]&(1<<bitOff) != 0
	if value {
		buf[byteOff] |= 1 << bitOff
	} else {
		buf[byteOff] &^= 1 << bitOff
	}
	if err := dev.WriteBlock(blockID, buf); err != nil {
		return false, err
	}
	return prev, nil
}

// allocDataBlock finds and marks the first free data block, returning its
// absolute block id (already offset by DataStart). The caller is
// responsible for persisting the superblock afterward.
func allocDataBlock(dev BlockDevice, sb *SuperBlock) (uint32, error) {
	relTotal := sb.TotalBlocks - sb.DataStart
	rel, err := setFirstFitBit(dev, sb.DataBitmapStart, sb.DataBitmapLen, relTotal, true)
	if err != nil {
		if err == ErrNotFound {
			return 0, ErrOutOfSpace
		}
		return 0, err
	}
	sb.FreeBlocks--
	return rel + sb.DataStart, nil
}

// freeDataBlock clears the bit for blockID (an absolute block id).
func freeDataBlock(dev BlockDevice, sb *SuperBlock, blockID uint32) error {
	if blockID < sb.DataStart {
		return ErrOutOfBounds
	}
	rel := blockID - sb.DataStart
	relTotal := sb.TotalBlocks - sb.DataStart
	if rel >= relTotal {
		return ErrOutOfBounds
	}

	if _, err := setBitAt(dev, sb.DataBitmapStart, sb.DataBitmapLen, rel, relTotal, false); err != nil {
		return err
	}
	sb.FreeBlocks++
	return nil
}

// allocInodeID finds and marks the first free inode slot.
func allocInodeID(dev BlockDevice, sb *SuperBlock) (uint32, error) {
	id, err := setFirstFitBit(dev, sb.InodeBitmapStart, sb.InodeBitmapLen, sb.NumInodes, true)
	if err != nil {
		if err == ErrNotFound {
			return 0, ErrOutOfInodes
		}
		return 0, err
	}
	sb.FreeInodes--
	return id, nil
}

// freeInodeID clears the bit for inodeID.
func freeInodeID(dev BlockDevice, sb *SuperBlock, inodeID uint32) error {
	if inodeID >= sb.NumInodes {
		return ErrOutOfBounds
	}
	if _, err := setBitAt(dev, sb.InodeBitmapStart, sb.InodeBitmapLen, inodeID, sb.NumInodes, false); err != nil {
		return err
	}
	sb.FreeInodes++
	return nil
}
