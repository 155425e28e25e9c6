package muon

import (
	"errors"
	"fmt"
)

// Package-specific error variables that can be used with errors.Is() for error handling.
var (
	// Structural
	ErrInvalidMagic    = errors.New("muon: invalid magic number")
	ErrInvalidSuper    = errors.New("muon: invalid superblock")
	ErrInvalidBlockID  = errors.New("muon: invalid block id")
	ErrInvalidFileType = errors.New("muon: invalid file type for this operation")
	ErrInvalidFileName = errors.New("muon: invalid file name")
	ErrInvalidPath     = errors.New("muon: invalid path")
	ErrInvalidArgument = errors.New("muon: invalid argument")

	// Resource exhaustion
	ErrOutOfSpace   = errors.New("muon: no free data blocks")
	ErrOutOfInodes  = errors.New("muon: no free inodes")
	ErrFileTooLarge = errors.New("muon: file too large")
	ErrPathTooLong  = errors.New("muon: path resolution exceeded symlink limit")

	// Lookup
	ErrNotFound      = errors.New("muon: not found")
	ErrAlreadyExists = errors.New("muon: already exists")

	// Type / mode
	ErrNotDirectory     = errors.New("muon: not a directory")
	ErrNotRegular       = errors.New("muon: not a regular file")
	ErrNotSymlink       = errors.New("muon: not a symlink")
	ErrNotReadable      = errors.New("muon: file is not readable")
	ErrNotWritable      = errors.New("muon: file is not writable")
	ErrPermissionDenied = errors.New("muon: permission denied")
	ErrDirNotEmpty      = errors.New("muon: directory not empty")

	// I/O
	ErrReadError   = errors.New("muon: block read failed")
	ErrWriteError  = errors.New("muon: block write failed")
	ErrIoError     = errors.New("muon: i/o error")
	ErrOutOfBounds = errors.New("muon: out of bounds")

	// Cache protocol. These never escape the cache shim (§4.2); they are
	// signals interpreted internally, never returned to a BlockDevice
	// caller.
	ErrCacheMiss = errors.New("muon: cache miss")
)

// CacheEvictError signals that a Cache implementation's insert could not
// proceed without evicting an existing entry first. It carries the victim's
// block id so the shim (the only caller allowed to see this error) can
// drive the evict-then-retry protocol described in spec §4.2. No pack
// example parametrizes a sentinel error this way; the shape follows the
// standard library's own convention for data-carrying errors (*fs.PathError,
// *strconv.NumError).
type CacheEvictError struct {
	BlockID uint32
}

func (e *CacheEvictError) Error() string {
	return fmt.Sprintf("muon: cache full, must evict block %d first", e.BlockID)
}
