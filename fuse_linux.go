//go:build fuse

package muon

import (
	"context"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// muonRoot holds the shared state every muonNode needs: the façade and a
// single mutex serializing every call into it, matching the single
// outer-mutex guidance for a façade that isn't internally synchronized
// but is now driven by the FUSE kernel's multiple dispatch goroutines.
type muonRoot struct {
	mu sync.Mutex
	fs *FileSystem
}

// muonNode is one FUSE inode, identified only by its path within the
// mounted tree — Muon has its own inode-id space, unrelated to the one
// FUSE assigns, so every operation re-derives the Muon path from the
// node's position in the FUSE tree rather than caching a Muon inode id.
type muonNode struct {
	fs.Inode
	root *muonRoot
}

// MountFUSE mounts the already-open Muon file system f at mountpoint,
// blocking until it is unmounted. Every dispatched FUSE call is
// serialized behind one mutex shared by the whole tree.
func MountFUSE(f *FileSystem, mountpoint string) error {
	root := &muonRoot{fs: f}
	node := &muonNode{root: root}

	server, err := fs.Mount(mountpoint, node, &fs.Options{
		MountOptions: fuse.MountOptions{
			FsName: "muon",
		},
	})
	if err != nil {
		return err
	}
	server.Wait()
	return nil
}

func (n *muonNode) muonPath() string {
	p := n.Path(n.Root())
	if p == "" {
		return "/"
	}
	return "/" + p
}

func toErrno(err error) syscall.Errno {
	switch err {
	case nil:
		return fs.OK
	case ErrNotFound:
		return syscall.ENOENT
	case ErrAlreadyExists:
		return syscall.EEXIST
	case ErrNotDirectory:
		return syscall.ENOTDIR
	case ErrDirNotEmpty:
		return syscall.ENOTEMPTY
	case ErrOutOfSpace:
		return syscall.ENOSPC
	case ErrOutOfInodes:
		return syscall.ENOSPC
	case ErrFileTooLarge:
		return syscall.EFBIG
	case ErrPathTooLong:
		return syscall.ENAMETOOLONG
	case ErrPermissionDenied:
		return syscall.EACCES
	case ErrInvalidPath, ErrInvalidArgument, ErrInvalidFileName:
		return syscall.EINVAL
	default:
		return syscall.EIO
	}
}

func attrFromInode(ino *Inode, out *fuse.Attr) {
	out.Ino = uint64(ino.ID)
	out.Size = ino.Size
	out.Blocks = uint64(ino.Blocks)
	out.Mode = uint32(FileMode(ino.Type, ino.Mode))
	out.Nlink = ino.LinksCnt
}

var _ fs.NodeLookuper = (*muonNode)(nil)
var _ fs.NodeGetattrer = (*muonNode)(nil)
var _ fs.NodeReaddirer = (*muonNode)(nil)
var _ fs.NodeOpener = (*muonNode)(nil)
var _ fs.NodeReader = (*muonNode)(nil)
var _ fs.NodeWriter = (*muonNode)(nil)
var _ fs.NodeReadlinker = (*muonNode)(nil)
var _ fs.NodeMkdirer = (*muonNode)(nil)
var _ fs.NodeCreater = (*muonNode)(nil)
var _ fs.NodeUnlinker = (*muonNode)(nil)
var _ fs.NodeRmdirer = (*muonNode)(nil)
var _ fs.NodeLinker = (*muonNode)(nil)
var _ fs.NodeSymlinker = (*muonNode)(nil)

func (n *muonNode) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	n.root.mu.Lock()
	defer n.root.mu.Unlock()

	id, _, err := n.root.fs.Lookup(n.muonPath())
	if err != nil {
		return toErrno(err)
	}
	ino, err := getInode(n.root.fs.dev, n.root.fs.sb, id)
	if err != nil {
		return toErrno(err)
	}
	attrFromInode(&ino, &out.Attr)
	return fs.OK
}

func (n *muonNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	n.root.mu.Lock()
	defer n.root.mu.Unlock()

	childPath := filepath.Join(n.muonPath(), name)
	id, ftype, err := n.root.fs.Lookup(childPath)
	if err != nil {
		return nil, toErrno(err)
	}
	ino, err := getInode(n.root.fs.dev, n.root.fs.sb, id)
	if err != nil {
		return nil, toErrno(err)
	}
	attrFromInode(&ino, &out.Attr)

	var mode uint32
	if ftype == Directory {
		mode = syscall.S_IFDIR
	} else if ftype == Symlink {
		mode = syscall.S_IFLNK
	} else {
		mode = syscall.S_IFREG
	}

	child := &muonNode{root: n.root}
	stable := fs.StableAttr{Mode: mode, Ino: uint64(id)}
	return n.NewInode(ctx, child, stable), fs.OK
}

func (n *muonNode) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	n.root.mu.Lock()
	defer n.root.mu.Unlock()

	entries, err := n.root.fs.ReadDir(n.muonPath())
	if err != nil {
		return nil, toErrno(err)
	}

	list := make([]fuse.DirEntry, 0, len(entries))
	for _, e := range entries {
		list = append(list, fuse.DirEntry{
			Name: e.NameString(),
			Ino:  uint64(e.InodeID),
		})
	}
	return fs.NewListDirStream(list), fs.OK
}

func (n *muonNode) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	return nil, 0, fs.OK
}

func (n *muonNode) Read(ctx context.Context, f fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	n.root.mu.Lock()
	defer n.root.mu.Unlock()

	nRead, err := n.root.fs.Fread(n.muonPath(), uint64(off), dest)
	if err != nil {
		return nil, toErrno(err)
	}
	return fuse.ReadResultData(dest[:nRead]), fs.OK
}

func (n *muonNode) Write(ctx context.Context, f fs.FileHandle, data []byte, off int64) (uint32, syscall.Errno) {
	n.root.mu.Lock()
	defer n.root.mu.Unlock()

	nWritten, err := n.root.fs.Fwrite(n.muonPath(), uint64(off), data)
	if err != nil {
		return 0, toErrno(err)
	}
	return uint32(nWritten), fs.OK
}

func (n *muonNode) Readlink(ctx context.Context) ([]byte, syscall.Errno) {
	n.root.mu.Lock()
	defer n.root.mu.Unlock()

	buf := make([]byte, MaxPathLen)
	nRead, err := n.root.fs.ReadLink(n.muonPath(), buf)
	if err != nil {
		return nil, toErrno(err)
	}
	return buf[:nRead], fs.OK
}

func (n *muonNode) Mkdir(ctx context.Context, name string, mode uint32, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	n.root.mu.Lock()
	defer n.root.mu.Unlock()

	childPath := filepath.Join(n.muonPath(), name)
	id, err := n.root.fs.Creat(childPath, Directory, modeFromFuse(mode))
	if err != nil {
		return nil, toErrno(err)
	}
	child := &muonNode{root: n.root}
	stable := fs.StableAttr{Mode: syscall.S_IFDIR, Ino: uint64(id)}
	return n.NewInode(ctx, child, stable), fs.OK
}

func (n *muonNode) Create(ctx context.Context, name string, flags, mode uint32, out *fuse.EntryOut) (*fs.Inode, fs.FileHandle, uint32, syscall.Errno) {
	n.root.mu.Lock()
	defer n.root.mu.Unlock()

	childPath := filepath.Join(n.muonPath(), name)
	id, err := n.root.fs.Creat(childPath, Regular, modeFromFuse(mode))
	if err != nil {
		return nil, nil, 0, toErrno(err)
	}
	child := &muonNode{root: n.root}
	stable := fs.StableAttr{Mode: syscall.S_IFREG, Ino: uint64(id)}
	return n.NewInode(ctx, child, stable), nil, 0, fs.OK
}

func (n *muonNode) Unlink(ctx context.Context, name string) syscall.Errno {
	n.root.mu.Lock()
	defer n.root.mu.Unlock()

	childPath := filepath.Join(n.muonPath(), name)
	if err := n.root.fs.Remove(childPath, Regular); err != nil {
		return toErrno(err)
	}
	return fs.OK
}

func (n *muonNode) Rmdir(ctx context.Context, name string) syscall.Errno {
	n.root.mu.Lock()
	defer n.root.mu.Unlock()

	childPath := filepath.Join(n.muonPath(), name)
	if err := n.root.fs.Remove(childPath, Directory); err != nil {
		return toErrno(err)
	}
	return fs.OK
}

func (n *muonNode) Link(ctx context.Context, target fs.InodeEmbedder, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	n.root.mu.Lock()
	defer n.root.mu.Unlock()

	targetNode, ok := target.(*muonNode)
	if !ok {
		return nil, syscall.EINVAL
	}
	linkPath := filepath.Join(n.muonPath(), name)
	if err := n.root.fs.Link(targetNode.muonPath(), linkPath); err != nil {
		return nil, toErrno(err)
	}
	id, _, err := n.root.fs.Lookup(linkPath)
	if err != nil {
		return nil, toErrno(err)
	}
	child := &muonNode{root: n.root}
	stable := fs.StableAttr{Mode: syscall.S_IFREG, Ino: uint64(id)}
	return n.NewInode(ctx, child, stable), fs.OK
}

func (n *muonNode) Symlink(ctx context.Context, target, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	n.root.mu.Lock()
	defer n.root.mu.Unlock()

	linkPath := filepath.Join(n.muonPath(), name)
	if err := n.root.fs.Symlink(target, linkPath); err != nil {
		return nil, toErrno(err)
	}
	id, _, err := n.root.fs.Lookup(linkPath)
	if err != nil {
		return nil, toErrno(err)
	}
	child := &muonNode{root: n.root}
	stable := fs.StableAttr{Mode: syscall.S_IFLNK, Ino: uint64(id)}
	return n.NewInode(ctx, child, stable), fs.OK
}

// modeFromFuse collapses a POSIX permission word down to Muon's 3-bit
// read/write/execute capability mask, taking the owner bits as the
// authoritative ones since Muon has no notion of owner/group/other.
func modeFromFuse(posixMode uint32) Mode {
	var m Mode
	if posixMode&0400 != 0 {
		m |= R
	}
	if posixMode&0200 != 0 {
		m |= W
	}
	if posixMode&0100 != 0 {
		m |= X
	}
	return m
}
