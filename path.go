package muon

import "strings"

// splitPath divides an absolute path into its parent directory and
// basename. Consecutive slashes collapse as if they were one separator.
// "/home/user/file.txt" -> ("/home/user", "file.txt"); "/file.txt" ->
// ("/", "file.txt"); "/" -> ("/", "").
func splitPath(path string) (dir, base string, err error) {
	if !strings.HasPrefix(path, "/") {
		return "", "", ErrInvalidPath
	}

	components := splitComponents(path)
	if len(components) == 0 {
		return "/", "", nil
	}

	base = components[len(components)-1]
	rest := components[:len(components)-1]
	if len(rest) == 0 {
		return "/", base, nil
	}
	return "/" + strings.Join(rest, "/"), base, nil
}

// splitComponents splits path on "/" and drops empty segments, so runs of
// consecutive slashes collapse to a single separator.
func splitComponents(path string) []string {
	raw := strings.Split(path, "/")
	out := make([]string, 0, len(raw))
	for _, c := range raw {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

// canonicalize walks path component by component against the live tree,
// expanding symlinks, and returns the equivalent symlink-free absolute
// path. When keepLastSymlink is true and the final component is itself a
// symlink, it is left unexpanded (used by resolve_without_last so the
// link object itself, not its target, ends up addressed).
//
// State carried across the walk: the current inode, its parent (for
// ".."), a list of already-emitted canonical components, and a queue of
// components still to process — symlink targets are spliced onto the
// front of that queue, exactly where the link they replace was.
func canonicalize(dev BlockDevice, sb *SuperBlock, path string, keepLastSymlink bool) (string, error) {
	if !strings.HasPrefix(path, "/") {
		return "", ErrInvalidPath
	}
	if path == "/" {
		return "/", nil
	}

	var canonical []string
	currentID := uint32(RootInodeID)
	parentID := uint32(RootInodeID)
	current, err := getInode(dev, sb, currentID)
	if err != nil {
		return "", err
	}

	pending := splitComponents(path)
	linkDepth := 0

	for {
		if linkDepth >= SymloopMax {
			return "", ErrPathTooLong
		}
		if len(pending) == 0 {
			break
		}
		comp := pending[0]
		pending = pending[1:]

		if comp == "." {
			continue
		}
		if comp == ".." {
			if currentID == RootInodeID {
				continue
			}
			currentID = parentID
			current, err = getInode(dev, sb, currentID)
			if err != nil {
				return "", err
			}
			parentID, err = dirLookup(dev, sb, &current, "..")
			if err != nil {
				return "", err
			}
			if len(canonical) > 0 {
				canonical = canonical[:len(canonical)-1]
			}
			continue
		}

		nextID, err := dirLookup(dev, sb, &current, comp)
		if err != nil {
			return "", err
		}
		next, err := getInode(dev, sb, nextID)
		if err != nil {
			return "", err
		}

		if next.IsSymlink() {
			if len(pending) == 0 && keepLastSymlink {
				canonical = append(canonical, comp)
				break
			}

			linkDepth++
			pathBuf, err := next.GetPath()
			if err != nil {
				return "", err
			}
			target := string(trimZero(pathBuf[:]))

			if strings.HasPrefix(target, "/") {
				canonical = canonical[:0]
				currentID = RootInodeID
				parentID = RootInodeID
				current, err = getInode(dev, sb, currentID)
				if err != nil {
					return "", err
				}
			}

			newPending := splitComponents(target)
			pending = append(newPending, pending...)
			continue
		}

		if !next.IsDirectory() && len(pending) != 0 {
			return "", ErrNotDirectory
		}
		if len(pending) == 0 {
			canonical = append(canonical, comp)
			break
		}

		parentID = currentID
		currentID = nextID
		current = next
		canonical = append(canonical, comp)
	}

	if len(canonical) == 0 {
		return "/", nil
	}
	return "/" + strings.Join(canonical, "/"), nil
}

// walkCanonical re-walks an already-canonicalized (symlink-free) absolute
// path and returns (parent_inode_id, inode_id) for its final component.
func walkCanonical(dev BlockDevice, sb *SuperBlock, canonicalPath string) (parentID, inodeID uint32, err error) {
	if canonicalPath == "/" {
		return RootInodeID, RootInodeID, nil
	}

	components := splitComponents(canonicalPath)
	currentID := uint32(RootInodeID)
	parentID = RootInodeID
	current, err := getInode(dev, sb, currentID)
	if err != nil {
		return 0, 0, err
	}

	for i, comp := range components {
		if !current.IsDirectory() {
			return 0, 0, ErrNotDirectory
		}
		parentID = currentID
		currentID, err = dirLookup(dev, sb, &current, comp)
		if err != nil {
			return 0, 0, err
		}
		if i == len(components)-1 {
			return parentID, currentID, nil
		}
		current, err = getInode(dev, sb, currentID)
		if err != nil {
			return 0, 0, err
		}
	}

	return 0, 0, ErrNotFound
}

// resolve resolves path fully, following a terminal symlink to its
// target, and returns (parent_inode_id, inode_id).
func resolve(dev BlockDevice, sb *SuperBlock, path string) (parentID, inodeID uint32, err error) {
	if path == "/" {
		return RootInodeID, RootInodeID, nil
	}
	if !strings.HasPrefix(path, "/") {
		return 0, 0, ErrInvalidPath
	}

	canon, err := canonicalize(dev, sb, path, false)
	if err != nil {
		return 0, 0, err
	}
	return walkCanonical(dev, sb, canon)
}

// resolveWithoutLast resolves path, but if the final component is itself
// a symlink, addresses the link object rather than its target. Used by
// read_link and by remove when the caller explicitly asked to remove a
// Symlink.
func resolveWithoutLast(dev BlockDevice, sb *SuperBlock, path string) (parentID, inodeID uint32, err error) {
	if path == "/" {
		return RootInodeID, RootInodeID, nil
	}
	if !strings.HasPrefix(path, "/") {
		return 0, 0, ErrInvalidPath
	}

	canon, err := canonicalize(dev, sb, path, true)
	if err != nil {
		return 0, 0, err
	}
	return walkCanonical(dev, sb, canon)
}
