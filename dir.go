package muon

// Directory content is a packed sequence of DirEntrySize records,
// NumEntryPerBlock per block, reached through bmap the same way regular
// file data is. A fresh directory's entry 0 is "." and entry 1 is "..",
// both mandatory and never removable.

// numDirEntries returns how many DIR_ENTRY_SIZE slots a directory's
// current size spans, including tombstoned ones up to the high-water
// mark.
func numDirEntries(ino *Inode) uint32 {
	return uint32(ino.Size) / DirEntrySize
}

// readDirEntryAt reads the slot at logical index idx (0-based) from a
// directory inode, paging in whichever data block holds it.
func readDirEntryAt(dev BlockDevice, sb *SuperBlock, ino *Inode, idx uint32) (DirEntry, error) {
	offset := uint64(idx) * DirEntrySize
	blockID, err := bmap(dev, sb, ino, offset, false)
	if err != nil {
		return DirEntry{}, err
	}
	buf := make([]byte, BlockSize)
	if err := dev.ReadBlock(blockID, buf); err != nil {
		return DirEntry{}, err
	}
	inBlockOff := int(offset%BlockSize) / DirEntrySize * DirEntrySize
	return decodeDirEntry(buf[inBlockOff : inBlockOff+DirEntrySize])
}

// writeDirEntryAt writes entry into slot idx of a directory inode.
// create controls whether bmap is allowed to allocate a fresh block for
// this slot (true when appending past the current high-water mark).
func writeDirEntryAt(dev BlockDevice, sb *SuperBlock, ino *Inode, idx uint32, entry *DirEntry, create bool) error {
	offset := uint64(idx) * DirEntrySize
	blockID, err := bmap(dev, sb, ino, offset, create)
	if err != nil {
		return err
	}
	buf := make([]byte, BlockSize)
	if err := dev.ReadBlock(blockID, buf); err != nil {
		return err
	}
	inBlockOff := int(offset%BlockSize) / DirEntrySize * DirEntrySize
	copy(buf[inBlockOff:inBlockOff+DirEntrySize], encodeDirEntry(entry))
	return dev.WriteBlock(blockID, buf)
}

// dirLookup scans parent's entries in stored order for name, returning the
// first match's inode id. Name comparison ignores trailing zero padding;
// an empty name never matches.
func dirLookup(dev BlockDevice, sb *SuperBlock, parent *Inode, name string) (uint32, error) {
	if !parent.IsDirectory() {
		return 0, ErrNotDirectory
	}
	if name == "" {
		return 0, ErrNotFound
	}

	n := numDirEntries(parent)
	for i := uint32(0); i < n; i++ {
		e, err := readDirEntryAt(dev, sb, parent, i)
		if err != nil {
			return 0, err
		}
		if e.InodeID == 0 {
			continue
		}
		if e.NameString() == name {
			return e.InodeID, nil
		}
	}
	return 0, ErrNotFound
}

// dirAddEntry adds a (inodeID, name) mapping to parent, reusing the first
// tombstoned slot if one exists, otherwise appending a new slot and
// growing parent.Size. Rejects a duplicate name. Persists parent.
func dirAddEntry(dev BlockDevice, sb *SuperBlock, parent *Inode, inodeID uint32, name string) error {
	if !parent.IsDirectory() {
		return ErrNotDirectory
	}
	entry, err := NewDirEntry(inodeID, name)
	if err != nil {
		return err
	}

	n := numDirEntries(parent)
	for i := uint32(0); i < n; i++ {
		e, err := readDirEntryAt(dev, sb, parent, i)
		if err != nil {
			return err
		}
		if e.InodeID != 0 && e.NameString() == name {
			return ErrAlreadyExists
		}
	}
	for i := uint32(0); i < n; i++ {
		e, err := readDirEntryAt(dev, sb, parent, i)
		if err != nil {
			return err
		}
		if e.InodeID == 0 {
			if err := writeDirEntryAt(dev, sb, parent, i, &entry, false); err != nil {
				return err
			}
			return writeSuperBlock(dev, sb)
		}
	}

	if err := writeDirEntryAt(dev, sb, parent, n, &entry, true); err != nil {
		return err
	}
	parent.Size = uint64(n+1) * DirEntrySize
	if err := writeInode(dev, sb, parent.ID, parent); err != nil {
		return err
	}
	return writeSuperBlock(dev, sb)
}

// dirRmEntry removes name from parent by overwriting its slot with the
// null entry, leaving a tombstone; parent.Size (the high-water mark) is
// unchanged so later slots stay reachable. "." and ".." are
// never removable. Does not touch the referenced inode; the caller is
// responsible for reclaiming it.
func dirRmEntry(dev BlockDevice, sb *SuperBlock, parent *Inode, name string) error {
	if !parent.IsDirectory() {
		return ErrNotDirectory
	}
	if name == "." || name == ".." {
		return ErrInvalidArgument
	}

	n := numDirEntries(parent)
	for i := uint32(0); i < n; i++ {
		e, err := readDirEntryAt(dev, sb, parent, i)
		if err != nil {
			return err
		}
		if e.InodeID == 0 {
			continue
		}
		if e.NameString() == name {
			if err := writeDirEntryAt(dev, sb, parent, i, &NullDirEntry, false); err != nil {
				return err
			}
			return nil
		}
	}
	return ErrNotFound
}

// dirIsEmpty reports whether ino contains exactly the mandatory "." and
// ".." entries and nothing else live. Fewer than two live entries is a
// corruption signal the caller cannot recover from, so it panics rather
// than returning a misleading bool.
func dirIsEmpty(dev BlockDevice, sb *SuperBlock, ino *Inode) (bool, error) {
	n := numDirEntries(ino)
	live := 0
	for i := uint32(0); i < n; i++ {
		e, err := readDirEntryAt(dev, sb, ino, i)
		if err != nil {
			return false, err
		}
		if e.InodeID != 0 {
			live++
		}
	}
	if live < 2 {
		panic("muon: directory missing mandatory . and .. entries")
	}
	return live == 2, nil
}

// mkdir allocates a fresh Directory inode, links it into parent under
// name, and installs its own "." (self) and ".." (parent) entries. Link
// counts: the new directory starts at 2 (its own "." plus the parent's
// entry for it, incremented as each entry is added below); parent gains
// one link for the child's "..". Persists both inodes.
func mkdir(dev BlockDevice, sb *SuperBlock, parent *Inode, name string, mode Mode) (Inode, error) {
	child, err := allocInode(dev, sb, Directory, mode)
	if err != nil {
		return Inode{}, err
	}

	if err := dirAddEntry(dev, sb, parent, child.ID, name); err != nil {
		return Inode{}, err
	}
	child.LinksCnt++

	if err := dirAddEntry(dev, sb, &child, child.ID, "."); err != nil {
		return Inode{}, err
	}
	child.LinksCnt++

	if err := dirAddEntry(dev, sb, &child, parent.ID, ".."); err != nil {
		return Inode{}, err
	}
	parent.LinksCnt++

	if err := writeInode(dev, sb, child.ID, &child); err != nil {
		return Inode{}, err
	}
	if err := writeInode(dev, sb, parent.ID, parent); err != nil {
		return Inode{}, err
	}

	return child, nil
}
