package muon

// BlockDevice is the storage driver contract the engine is built on top of:
// a block-addressable device providing fixed-size random access plus a
// flush barrier. Implementations are external collaborators (spec.md §1) —
// Muon never assumes anything about the backing medium beyond this
// contract. Block ids are 0-based; reads/writes are atomic at block
// granularity, and any out-of-range id must fail with ErrInvalidBlockID.
//
// Two concrete implementations ship with this package for convenience:
// MemDevice (RAM-backed, used throughout the test suite) and FileDevice
// (backed by an *os.File, for real disk images). Neither is part of the
// core engine; both exist purely as BlockDevice implementations.
type BlockDevice interface {
	// NumBlocks returns the total number of addressable blocks.
	NumBlocks() uint32

	// ReadBlock reads block id into buf, which must be exactly BlockSize
	// bytes. Returns ErrInvalidBlockID if id >= NumBlocks().
	ReadBlock(id uint32, buf []byte) error

	// WriteBlock writes buf (exactly BlockSize bytes) to block id. Returns
	// ErrInvalidBlockID if id >= NumBlocks().
	WriteBlock(id uint32, buf []byte) error

	// Flush ensures any buffering the device itself performs is pushed to
	// the underlying medium. It does not know about the cache shim (§4.2);
	// that layer has its own, separate flush.
	Flush() error
}
