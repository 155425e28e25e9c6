package muon

import (
	"io"
	"os"
	"sync"
)

// FileDevice is a BlockDevice backed by an *os.File, for real disk image
// files. Block id arithmetic seeks to block_id*BlockSize before each
// read/write; concurrent callers are serialized through a mutex since
// *os.File's read/write-at-offset pair is not itself atomic across the
// seek-then-readfull sequence this uses.
type FileDevice struct {
	mu        sync.Mutex
	f         *os.File
	numBlocks uint32
}

// OpenFileDevice opens an existing disk image at path, sized to exactly
// numBlocks blocks. The caller is responsible for having created the
// image with that size beforehand (e.g. via CreateFileDevice).
func OpenFileDevice(path string, numBlocks uint32) (*FileDevice, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	return &FileDevice{f: f, numBlocks: numBlocks}, nil
}

// CreateFileDevice creates a new zero-filled disk image at path sized to
// numBlocks blocks, and returns it open and ready for Format.
func CreateFileDevice(path string, numBlocks uint32) (*FileDevice, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, err
	}
	size := int64(numBlocks) * BlockSize
	if err := f.Truncate(size); err != nil {
		f.Close()
		return nil, err
	}
	return &FileDevice{f: f, numBlocks: numBlocks}, nil
}

func (d *FileDevice) NumBlocks() uint32 { return d.numBlocks }

func (d *FileDevice) ReadBlock(id uint32, buf []byte) error {
	if id >= d.numBlocks {
		return ErrInvalidBlockID
	}
	if len(buf) != BlockSize {
		return ErrReadError
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	offset := int64(id) * BlockSize
	if _, err := d.f.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	if _, err := io.ReadFull(d.f, buf); err != nil {
		return err
	}
	return nil
}

func (d *FileDevice) WriteBlock(id uint32, buf []byte) error {
	if id >= d.numBlocks {
		return ErrInvalidBlockID
	}
	if len(buf) != BlockSize {
		return ErrWriteError
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	offset := int64(id) * BlockSize
	if _, err := d.f.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	if _, err := d.f.Write(buf); err != nil {
		return err
	}
	return nil
}

func (d *FileDevice) Flush() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.f.Sync()
}

// Close closes the underlying file. Callers should Flush (or Unmount the
// owning FileSystem) before Close.
func (d *FileDevice) Close() error {
	return d.f.Close()
}

var _ BlockDevice = (*FileDevice)(nil)
