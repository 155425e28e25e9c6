package muon

import "testing"

func TestBitmapFirstFitOrder(t *testing.T) {
	dev := NewMemDevice(4)
	// one bitmap block, covering up to BlockSize*8 items, but bound total
	// items to 20 so the scan respects total_items rather than the whole
	// block.
	const total = 20

	var ids []uint32
	for i := 0; i < total; i++ {
		id, err := setFirstFitBit(dev, 0, 1, total, true)
		if err != nil {
			t.Fatalf("setFirstFitBit iteration %d: %v", i, err)
		}
		ids = append(ids, id)
	}
	for i, id := range ids {
		if id != uint32(i) {
			t.Fatalf("expected first-fit order 0..n-1, got %v", ids)
		}
	}

	if _, err := setFirstFitBit(dev, 0, 1, total, true); err != ErrNotFound {
		t.Fatalf("expected NotFound once bitmap is full, got %v", err)
	}
}

func TestBitmapSetBitAtRoundTrip(t *testing.T) {
	dev := NewMemDevice(2)
	const total = 100

	prev, err := setBitAt(dev, 0, 1, 42, total, true)
	if err != nil {
		t.Fatalf("setBitAt: %v", err)
	}
	if prev {
		t.Fatalf("expected previous value false")
	}

	prev, err = setBitAt(dev, 0, 1, 42, total, false)
	if err != nil {
		t.Fatalf("setBitAt clear: %v", err)
	}
	if !prev {
		t.Fatalf("expected previous value true after setting")
	}
}

func TestAllocFreeDataBlockUpdatesSuperblock(t *testing.T) {
	const numBlocks, numInodes = 64, 80
	dev := NewMemDevice(numBlocks)
	sb, err := newSuperBlock(numBlocks, numInodes)
	if err != nil {
		t.Fatalf("newSuperBlock: %v", err)
	}

	freeBefore := sb.FreeBlocks
	id, err := allocDataBlock(dev, sb)
	if err != nil {
		t.Fatalf("allocDataBlock: %v", err)
	}
	if sb.FreeBlocks != freeBefore-1 {
		t.Fatalf("free_blocks not decremented: got %d want %d", sb.FreeBlocks, freeBefore-1)
	}
	if id < sb.DataStart {
		t.Fatalf("allocated block %d is before data region start %d", id, sb.DataStart)
	}

	if err := freeDataBlock(dev, sb, id); err != nil {
		t.Fatalf("freeDataBlock: %v", err)
	}
	if sb.FreeBlocks != freeBefore {
		t.Fatalf("free_blocks not restored: got %d want %d", sb.FreeBlocks, freeBefore)
	}
}
