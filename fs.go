package muon

// FileSystem is the top-level façade: one owned block device handle plus
// an in-memory superblock copy. It is not internally synchronized —
// callers sharing an instance across goroutines must serialize mutation
// themselves (a single outer mutex suffices).
type FileSystem struct {
	dev BlockDevice
	sb  *SuperBlock
}

// Format lays out a fresh file system on dev: computes the layout for
// numBlocks total blocks and numInodes inodes, zeroes the bitmap and
// inode table regions, allocates the sentinel inode (id 0, unused) and
// the root directory inode (id 1), installs "." and ".." in the root
// pointing back to itself, sets root.links_cnt = 2, and persists the
// superblock.
func Format(dev BlockDevice, numBlocks, numInodes uint32) (*FileSystem, error) {
	sb, err := newSuperBlock(numBlocks, numInodes)
	if err != nil {
		return nil, err
	}

	zero := make([]byte, BlockSize)
	for i := uint32(0); i < sb.DataBitmapLen+sb.InodeBitmapLen+sb.InodeTableLen; i++ {
		if err := dev.WriteBlock(sb.DataBitmapStart+i, zero); err != nil {
			return nil, err
		}
	}

	log.WithField("blocks", numBlocks).WithField("inodes", numInodes).Info("formatting file system")

	fs := &FileSystem{dev: dev, sb: sb}

	// sentinel inode 0: mark its bitmap bit used, leave the slot zeroed
	if _, err := allocInodeID(dev, sb); err != nil {
		return nil, err
	}

	root, err := allocInode(dev, sb, Directory, RWE)
	if err != nil {
		return nil, err
	}
	if root.ID != RootInodeID {
		return nil, ErrInvalidSuper
	}

	if err := dirAddEntry(dev, sb, &root, root.ID, "."); err != nil {
		return nil, err
	}
	root.LinksCnt++
	if err := dirAddEntry(dev, sb, &root, root.ID, ".."); err != nil {
		return nil, err
	}
	root.LinksCnt++

	if err := writeInode(dev, sb, root.ID, &root); err != nil {
		return nil, err
	}
	if err := writeSuperBlock(dev, sb); err != nil {
		return nil, err
	}

	return fs, nil
}

// Mount reads and validates the superblock on dev (magic, block size) and
// returns a ready-to-use FileSystem.
func Mount(dev BlockDevice) (*FileSystem, error) {
	sb, err := readSuperBlock(dev)
	if err != nil {
		return nil, err
	}
	log.WithField("blocks", sb.TotalBlocks).Debug("mounted file system")
	return &FileSystem{dev: dev, sb: sb}, nil
}

// Unmount persists the superblock and flushes the device.
func (fs *FileSystem) Unmount() error {
	if err := writeSuperBlock(fs.dev, fs.sb); err != nil {
		return err
	}
	return fs.dev.Flush()
}

// SuperBlock returns a copy of the file system's current in-memory
// superblock, primarily for diagnostics and tests.
func (fs *FileSystem) SuperBlock() SuperBlock {
	return *fs.sb
}

// Lookup resolves path and reports the inode id and file type found.
func (fs *FileSystem) Lookup(path string) (inodeID uint32, ftype FileType, err error) {
	_, id, err := resolve(fs.dev, fs.sb, path)
	if err != nil {
		return 0, 0, err
	}
	ino, err := getInode(fs.dev, fs.sb, id)
	if err != nil {
		return 0, 0, err
	}
	return id, ino.Type, nil
}

// Creat creates a new file at path of the given type (Regular or
// Directory; anything else is ErrInvalidArgument) with mode. Regular
// files get a directory entry and links_cnt = 1; directories are
// delegated to mkdir.
func (fs *FileSystem) Creat(path string, ftype FileType, mode Mode) (uint32, error) {
	dir, base, err := splitPath(path)
	if err != nil {
		return 0, err
	}
	if base == "" {
		return 0, ErrInvalidArgument
	}

	_, parentID, err := resolve(fs.dev, fs.sb, dir)
	if err != nil {
		return 0, err
	}
	parent, err := getInode(fs.dev, fs.sb, parentID)
	if err != nil {
		return 0, err
	}

	switch ftype {
	case Regular:
		child, err := allocInode(fs.dev, fs.sb, Regular, mode)
		if err != nil {
			return 0, err
		}
		if err := dirAddEntry(fs.dev, fs.sb, &parent, child.ID, base); err != nil {
			return 0, err
		}
		child.LinksCnt = 1
		if err := writeInode(fs.dev, fs.sb, child.ID, &child); err != nil {
			return 0, err
		}
		log.WithField("path", path).Debug("created regular file")
		return child.ID, nil
	case Directory:
		child, err := mkdir(fs.dev, fs.sb, &parent, base, mode)
		if err != nil {
			return 0, err
		}
		log.WithField("path", path).Debug("created directory")
		return child.ID, nil
	default:
		return 0, ErrInvalidArgument
	}
}

// Remove removes the entry at path, requiring its inode to be of type
// ftype. Directories must be empty. Reclaims the inode once its link
// count reaches zero, otherwise just persists the decremented count.
func (fs *FileSystem) Remove(path string, ftype FileType) error {
	_, base, err := splitPath(path)
	if err != nil {
		return err
	}
	if base == "" {
		return ErrInvalidArgument
	}

	var parentID, childID uint32
	if ftype == Symlink {
		parentID, childID, err = resolveWithoutLast(fs.dev, fs.sb, path)
	} else {
		parentID, childID, err = resolve(fs.dev, fs.sb, path)
	}
	if err != nil {
		return err
	}

	child, err := getInode(fs.dev, fs.sb, childID)
	if err != nil {
		return err
	}
	if child.Type != ftype {
		return mismatchError(ftype)
	}

	parent, err := getInode(fs.dev, fs.sb, parentID)
	if err != nil {
		return err
	}

	if ftype == Directory {
		empty, err := dirIsEmpty(fs.dev, fs.sb, &child)
		if err != nil {
			return err
		}
		if !empty {
			return ErrDirNotEmpty
		}
	}

	if err := dirRmEntry(fs.dev, fs.sb, &parent, base); err != nil {
		return err
	}
	if err := writeInode(fs.dev, fs.sb, parent.ID, &parent); err != nil {
		return err
	}

	child.LinksCnt--
	if ftype == Directory {
		child.LinksCnt--
		parent.LinksCnt--
		if err := writeInode(fs.dev, fs.sb, parent.ID, &parent); err != nil {
			return err
		}
	}

	if child.LinksCnt == 0 {
		if _, err := freeInode(fs.dev, fs.sb, child.ID); err != nil {
			return err
		}
		return writeSuperBlock(fs.dev, fs.sb)
	}
	return writeInode(fs.dev, fs.sb, child.ID, &child)
}

func mismatchError(ftype FileType) error {
	switch ftype {
	case Directory:
		return ErrNotDirectory
	case Regular:
		return ErrNotRegular
	case Symlink:
		return ErrNotSymlink
	default:
		return ErrInvalidFileType
	}
}

// ReadDir resolves path, requires it to be a directory, and returns its
// live entries in stored order.
func (fs *FileSystem) ReadDir(path string) ([]DirEntry, error) {
	_, id, err := resolve(fs.dev, fs.sb, path)
	if err != nil {
		return nil, err
	}
	ino, err := getInode(fs.dev, fs.sb, id)
	if err != nil {
		return nil, err
	}
	if !ino.IsDirectory() {
		return nil, ErrNotDirectory
	}

	n := numDirEntries(&ino)
	out := make([]DirEntry, 0, n)
	for i := uint32(0); i < n; i++ {
		e, err := readDirEntryAt(fs.dev, fs.sb, &ino, i)
		if err != nil {
			return nil, err
		}
		if e.InodeID != 0 {
			out = append(out, e)
		}
	}
	return out, nil
}

// Fread resolves path, checks read capability, and reads into buf at
// offset.
func (fs *FileSystem) Fread(path string, offset uint64, buf []byte) (int, error) {
	_, id, err := resolve(fs.dev, fs.sb, path)
	if err != nil {
		return 0, err
	}
	ino, err := getInode(fs.dev, fs.sb, id)
	if err != nil {
		return 0, err
	}
	if !ino.Mode.CanRead() {
		return 0, ErrPermissionDenied
	}
	return fread(fs.dev, fs.sb, &ino, offset, buf)
}

// Fwrite resolves path, checks write capability, and writes buf at
// offset.
func (fs *FileSystem) Fwrite(path string, offset uint64, buf []byte) (int, error) {
	_, id, err := resolve(fs.dev, fs.sb, path)
	if err != nil {
		return 0, err
	}
	ino, err := getInode(fs.dev, fs.sb, id)
	if err != nil {
		return 0, err
	}
	if !ino.Mode.CanWrite() {
		return 0, ErrPermissionDenied
	}
	n, err := fwrite(fs.dev, fs.sb, &ino, offset, buf)
	if serr := writeSuperBlock(fs.dev, fs.sb); err == nil {
		err = serr
	}
	return n, err
}

// Ftruncate resolves path and truncates its contents entirely.
func (fs *FileSystem) Ftruncate(path string) error {
	_, id, err := resolve(fs.dev, fs.sb, path)
	if err != nil {
		return err
	}
	ino, err := getInode(fs.dev, fs.sb, id)
	if err != nil {
		return err
	}
	if err := ftruncate(fs.dev, fs.sb, &ino); err != nil {
		return err
	}
	return writeSuperBlock(fs.dev, fs.sb)
}

// Link resolves linkPath's parent and target, requires target to be
// Regular, and adds a new directory entry for linkPath pointing at
// target's inode, incrementing its link count. Hard links never copy
// data — the link count is the only state that changes.
func (fs *FileSystem) Link(target, linkPath string) error {
	dir, base, err := splitPath(linkPath)
	if err != nil {
		return err
	}
	if base == "" {
		return ErrInvalidArgument
	}

	_, parentID, err := resolve(fs.dev, fs.sb, dir)
	if err != nil {
		return err
	}
	parent, err := getInode(fs.dev, fs.sb, parentID)
	if err != nil {
		return err
	}

	_, targetID, err := resolve(fs.dev, fs.sb, target)
	if err != nil {
		return err
	}
	targetIno, err := getInode(fs.dev, fs.sb, targetID)
	if err != nil {
		return err
	}
	if !targetIno.IsRegular() {
		return ErrNotRegular
	}

	if err := dirAddEntry(fs.dev, fs.sb, &parent, targetID, base); err != nil {
		return err
	}
	targetIno.LinksCnt++
	return writeInode(fs.dev, fs.sb, targetID, &targetIno)
}

// Symlink allocates a Symlink inode whose path payload is target, and
// adds a directory entry for linkPath pointing at it.
func (fs *FileSystem) Symlink(target, linkPath string) error {
	if len(target) > MaxPathLen {
		return ErrPathTooLong
	}

	dir, base, err := splitPath(linkPath)
	if err != nil {
		return err
	}
	if base == "" {
		return ErrInvalidArgument
	}

	_, parentID, err := resolve(fs.dev, fs.sb, dir)
	if err != nil {
		return err
	}
	parent, err := getInode(fs.dev, fs.sb, parentID)
	if err != nil {
		return err
	}

	child, err := allocInode(fs.dev, fs.sb, Symlink, None)
	if err != nil {
		return err
	}
	copy(child.Path[:], target)

	if err := dirAddEntry(fs.dev, fs.sb, &parent, child.ID, base); err != nil {
		return err
	}
	child.LinksCnt = 1
	return writeInode(fs.dev, fs.sb, child.ID, &child)
}

// ReadLink resolves path without following its terminal symlink, requires
// a Symlink inode, and copies its target path into out, returning the
// number of bytes copied.
func (fs *FileSystem) ReadLink(path string, out []byte) (int, error) {
	_, id, err := resolveWithoutLast(fs.dev, fs.sb, path)
	if err != nil {
		return 0, err
	}
	ino, err := getInode(fs.dev, fs.sb, id)
	if err != nil {
		return 0, err
	}
	pathBuf, err := ino.GetPath()
	if err != nil {
		return 0, err
	}
	target := trimZero(pathBuf[:])
	n := copy(out, target)
	return n, nil
}
