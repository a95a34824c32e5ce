package abi

import (
	"context"

	"github.com/easelhq/easel"
	"github.com/easelhq/easel/errors"
)

// WriteString copies s into guest memory as UTF-8 bytes and returns its
// address. The block is allocated through the guest's exported allocator
// and is owned by the guest from the moment the call returns. Failure to
// allocate or copy is a fatal guest fault; callers abort the run.
func WriteString(ctx context.Context, mem easel.Memory, alloc easel.Allocator, s string) (Address, error) {
	data := []byte(s)
	size := uint32(len(data))

	// Zero-length allocations may legally return pointer 0, which would
	// collide with the NotReady sentinel once packed. Always allocate at
	// least one byte; the reported length stays zero.
	allocSize := size
	if allocSize == 0 {
		allocSize = 1
	}

	ptr, err := alloc.Alloc(ctx, allocSize)
	if err != nil {
		return Address{}, errors.AllocationFailed(allocSize, err)
	}

	if size > 0 {
		if err := mem.Write(ptr, data); err != nil {
			return Address{}, errors.Wrap(errors.PhaseMemory, errors.KindOutOfBounds, err, "write string bytes")
		}
	}

	return Address{Ptr: ptr, Len: size}, nil
}

// ReadString decodes the UTF-8 bytes at [ptr, ptr+length) of guest memory.
// A zero length yields the empty string without touching memory; reads
// never extend past length bytes.
func ReadString(mem easel.Memory, ptr, length uint32) (string, error) {
	if length == 0 {
		return "", nil
	}

	data, err := mem.Read(ptr, length)
	if err != nil {
		return "", errors.Wrap(errors.PhaseMemory, errors.KindOutOfBounds, err, "read string bytes")
	}

	return string(data), nil
}
