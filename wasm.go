package easel

import "context"

// Memory represents WASM linear memory
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
}

// Allocator allocates memory in WASM linear memory. Alloc calls into the
// guest's exported allocator; the returned block is owned by the guest.
type Allocator interface {
	Alloc(ctx context.Context, size uint32) (uint32, error)
}
