package muon

import (
	"bytes"
	"encoding/binary"
)

// byteOrder is the single encoding used for every on-disk structure. Unlike
// squashfs, which carries a per-superblock endianness flag because the
// format predates it being fixed, Muon's layout is little-endian only.
var byteOrder = binary.LittleEndian

// encodeInode renders an inode into its fixed InodeSize on-disk record. The
// header (id, type, mode, blocks, links, size) is followed by the payload:
// block pointers for Regular/Directory, a raw path buffer for Symlink.
func encodeInode(ino *Inode) ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Grow(InodeSize)

	fields := []any{
		ino.ID,
		ino.Type,
		ino.Mode,
		ino.Blocks,
		ino.LinksCnt,
		ino.Size,
	}
	for _, f := range fields {
		if err := binary.Write(buf, byteOrder, f); err != nil {
			return nil, err
		}
	}

	switch ino.Type {
	case Regular, Directory:
		for _, d := range ino.Ptrs.Direct {
			if err := binary.Write(buf, byteOrder, d); err != nil {
				return nil, err
			}
		}
		if err := binary.Write(buf, byteOrder, ino.Ptrs.Indirect); err != nil {
			return nil, err
		}
	case Symlink:
		if _, err := buf.Write(ino.Path[:]); err != nil {
			return nil, err
		}
	default:
		return nil, ErrInvalidFileType
	}

	out := buf.Bytes()
	if len(out) > InodeSize {
		return nil, ErrInvalidArgument
	}
	padded := make([]byte, InodeSize)
	copy(padded, out)
	return padded, nil
}

// decodeInode parses one InodeSize record read from the inode table.
func decodeInode(raw []byte) (Inode, error) {
	if len(raw) < InodeSize {
		return Inode{}, ErrInvalidArgument
	}
	r := bytes.NewReader(raw)
	var ino Inode

	if err := binary.Read(r, byteOrder, &ino.ID); err != nil {
		return Inode{}, err
	}
	if err := binary.Read(r, byteOrder, &ino.Type); err != nil {
		return Inode{}, err
	}
	if err := binary.Read(r, byteOrder, &ino.Mode); err != nil {
		return Inode{}, err
	}
	if err := binary.Read(r, byteOrder, &ino.Blocks); err != nil {
		return Inode{}, err
	}
	if err := binary.Read(r, byteOrder, &ino.LinksCnt); err != nil {
		return Inode{}, err
	}
	if err := binary.Read(r, byteOrder, &ino.Size); err != nil {
		return Inode{}, err
	}

	switch ino.Type {
	case Regular, Directory:
		for i := range ino.Ptrs.Direct {
			if err := binary.Read(r, byteOrder, &ino.Ptrs.Direct[i]); err != nil {
				return Inode{}, err
			}
		}
		if err := binary.Read(r, byteOrder, &ino.Ptrs.Indirect); err != nil {
			return Inode{}, err
		}
	case Symlink:
		if _, err := r.Read(ino.Path[:]); err != nil {
			return Inode{}, err
		}
	case 0:
		// free slot: header already zeroed, payload bytes don't matter
	default:
		return Inode{}, ErrInvalidFileType
	}

	return ino, nil
}

// encodeDirEntry renders a directory entry into its fixed DirEntrySize
// record: a 4-byte inode id followed by a zero-padded name.
func encodeDirEntry(e *DirEntry) []byte {
	out := make([]byte, DirEntrySize)
	byteOrder.PutUint32(out[:4], e.InodeID)
	copy(out[4:], e.Name[:])
	return out
}

// decodeDirEntry parses one DirEntrySize record.
func decodeDirEntry(raw []byte) (DirEntry, error) {
	if len(raw) < DirEntrySize {
		return DirEntry{}, ErrInvalidArgument
	}
	var e DirEntry
	e.InodeID = byteOrder.Uint32(raw[:4])
	copy(e.Name[:], raw[4:DirEntrySize])
	return e, nil
}
