package muon_test

import (
	"bytes"
	"testing"

	"github.com/doruche/muon"
)

const (
	testBlocks = 64
	testInodes = 80
)

func formatMem(t *testing.T) (*muon.FileSystem, *muon.MemDevice) {
	t.Helper()
	dev := muon.NewMemDevice(testBlocks)
	fs, err := muon.Format(dev, testBlocks, testInodes)
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	return fs, dev
}

func TestMountIdempotence(t *testing.T) {
	fs, dev := formatMem(t)

	if _, err := fs.Creat("/test.txt", muon.Regular, muon.RW); err != nil {
		t.Fatalf("creat: %v", err)
	}
	msg := []byte("Hello, world!")
	if n, err := fs.Fwrite("/test.txt", 0, msg); err != nil || n != len(msg) {
		t.Fatalf("fwrite: n=%d err=%v", n, err)
	}
	if err := fs.Unmount(); err != nil {
		t.Fatalf("unmount: %v", err)
	}

	fs2, err := muon.Mount(dev)
	if err != nil {
		t.Fatalf("mount: %v", err)
	}

	buf := make([]byte, len(msg))
	n, err := fs2.Fread("/test.txt", 0, buf)
	if err != nil {
		t.Fatalf("fread: %v", err)
	}
	if n != len(msg) || !bytes.Equal(buf, msg) {
		t.Fatalf("fread mismatch: got %q want %q", buf[:n], msg)
	}
}

func TestSparseHole(t *testing.T) {
	fs, _ := formatMem(t)

	if _, err := fs.Creat("/test.txt", muon.Regular, muon.RW); err != nil {
		t.Fatalf("creat: %v", err)
	}

	hello := []byte("Hello, world!")
	if _, err := fs.Fwrite("/test.txt", 0, hello); err != nil {
		t.Fatalf("fwrite hello: %v", err)
	}

	hollow := []byte("Hollow World...")
	if _, err := fs.Fwrite("/test.txt", 7*muon.BlockSize, hollow); err != nil {
		t.Fatalf("fwrite hollow: %v", err)
	}

	buf := make([]byte, len(hello))
	if n, err := fs.Fread("/test.txt", 0, buf); err != nil || n != len(hello) || !bytes.Equal(buf, hello) {
		t.Fatalf("fread head: n=%d err=%v buf=%q", n, err, buf)
	}

	buf2 := make([]byte, len(hollow))
	if n, err := fs.Fread("/test.txt", 7*muon.BlockSize, buf2); err != nil || n != len(hollow) || !bytes.Equal(buf2, hollow) {
		t.Fatalf("fread hollow: n=%d err=%v buf=%q", n, err, buf2)
	}

	buf3 := make([]byte, 20)
	n, _ := fs.Fread("/test.txt", 8*muon.BlockSize, buf3)
	if n > 0 {
		t.Fatalf("fread past written region should return no bytes, got %d", n)
	}
}

func TestMkdirAndLookup(t *testing.T) {
	fs, _ := formatMem(t)

	if _, err := fs.Creat("/dir", muon.Directory, muon.RWE); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if _, err := fs.Creat("/dir", muon.Directory, muon.RWE); err == nil {
		t.Fatalf("expected AlreadyExists on repeated create")
	}

	id, ftype, err := fs.Lookup("/dir")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if ftype != muon.Directory {
		t.Fatalf("expected Directory, got %v", ftype)
	}
	_ = id

	if _, err := fs.Creat("/dir/file.txt", muon.Regular, muon.RW); err != nil {
		t.Fatalf("creat nested: %v", err)
	}

	entries, err := fs.ReadDir("/dir")
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	found := false
	for _, e := range entries {
		if e.NameString() == "file.txt" {
			found = true
		}
	}
	if !found {
		t.Fatalf("file.txt not found in /dir, entries=%v", entries)
	}
}

func TestDirLookupAfterAddAndRemove(t *testing.T) {
	fs, _ := formatMem(t)

	id, err := fs.Creat("/a", muon.Regular, muon.RW)
	if err != nil {
		t.Fatalf("creat: %v", err)
	}

	got, _, err := fs.Lookup("/a")
	if err != nil || got != id {
		t.Fatalf("lookup after add: got=%d want=%d err=%v", got, id, err)
	}

	if err := fs.Remove("/a", muon.Regular); err != nil {
		t.Fatalf("remove: %v", err)
	}

	if _, _, err := fs.Lookup("/a"); err != muon.ErrNotFound {
		t.Fatalf("expected NotFound after remove, got %v", err)
	}
}

func TestHardLink(t *testing.T) {
	fs, _ := formatMem(t)

	if _, err := fs.Creat("/a.txt", muon.Regular, muon.RW); err != nil {
		t.Fatalf("creat: %v", err)
	}
	if _, err := fs.Fwrite("/a.txt", 0, []byte("data")); err != nil {
		t.Fatalf("fwrite: %v", err)
	}
	if err := fs.Link("/a.txt", "/b.txt"); err != nil {
		t.Fatalf("link: %v", err)
	}

	buf := make([]byte, 4)
	if _, err := fs.Fread("/b.txt", 0, buf); err != nil || string(buf) != "data" {
		t.Fatalf("fread via link: buf=%q err=%v", buf, err)
	}

	if err := fs.Remove("/a.txt", muon.Regular); err != nil {
		t.Fatalf("remove a.txt: %v", err)
	}
	if _, err := fs.Fread("/b.txt", 0, buf); err != nil {
		t.Fatalf("b.txt should survive a.txt removal: %v", err)
	}
}

func TestSymlinkAndReadLink(t *testing.T) {
	fs, _ := formatMem(t)

	if _, err := fs.Creat("/target.txt", muon.Regular, muon.RW); err != nil {
		t.Fatalf("creat: %v", err)
	}
	if err := fs.Symlink("/target.txt", "/link.txt"); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	buf := make([]byte, muon.MaxPathLen)
	n, err := fs.ReadLink("/link.txt", buf)
	if err != nil {
		t.Fatalf("readlink: %v", err)
	}
	if string(buf[:n]) != "/target.txt" {
		t.Fatalf("readlink mismatch: got %q", buf[:n])
	}

	id, ftype, err := fs.Lookup("/link.txt")
	if err != nil || ftype != muon.Regular {
		t.Fatalf("lookup should follow symlink to Regular: id=%d ftype=%v err=%v", id, ftype, err)
	}
}

func TestSymlinkLoopDetection(t *testing.T) {
	fs, _ := formatMem(t)

	if err := fs.Symlink("/b", "/a"); err != nil {
		t.Fatalf("symlink a->b: %v", err)
	}
	if err := fs.Symlink("/a", "/b"); err != nil {
		t.Fatalf("symlink b->a: %v", err)
	}

	if _, _, err := fs.Lookup("/a"); err != muon.ErrPathTooLong {
		t.Fatalf("expected PathTooLong on symlink cycle, got %v", err)
	}
}

func TestRemoveNonEmptyDirFails(t *testing.T) {
	fs, _ := formatMem(t)

	if _, err := fs.Creat("/dir", muon.Directory, muon.RWE); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if _, err := fs.Creat("/dir/child.txt", muon.Regular, muon.RW); err != nil {
		t.Fatalf("creat child: %v", err)
	}
	if err := fs.Remove("/dir", muon.Directory); err != muon.ErrDirNotEmpty {
		t.Fatalf("expected DirNotEmpty, got %v", err)
	}

	if err := fs.Remove("/dir/child.txt", muon.Regular); err != nil {
		t.Fatalf("remove child: %v", err)
	}
	if err := fs.Remove("/dir", muon.Directory); err != nil {
		t.Fatalf("remove now-empty dir: %v", err)
	}
}

func TestPermissionDenied(t *testing.T) {
	fs, _ := formatMem(t)

	if _, err := fs.Creat("/ro.txt", muon.Regular, muon.R); err != nil {
		t.Fatalf("creat: %v", err)
	}
	if _, err := fs.Fwrite("/ro.txt", 0, []byte("x")); err != muon.ErrPermissionDenied {
		t.Fatalf("expected PermissionDenied, got %v", err)
	}
}

func TestDotDotAtRoot(t *testing.T) {
	fs, _ := formatMem(t)

	id, ftype, err := fs.Lookup("/../../.")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if id != muon.RootInodeID || ftype != muon.Directory {
		t.Fatalf("expected root, got id=%d ftype=%v", id, ftype)
	}
}
