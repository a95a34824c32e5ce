// Package abi defines the binary contract between the easel host and a
// sketch guest.
//
// Strings are the only composite values that cross the boundary. Each one
// lives in guest linear memory as UTF-8 bytes and travels as an Address,
// a (pointer, length) pair packed into a single uint64 with the pointer
// in the high 32 bits:
//
//	packed := abi.Address{Ptr: ptr, Len: n}.Pack()
//	addr := abi.Unpack(packed)
//
// WriteString allocates through the guest's exported allocator and copies
// the bytes in; ReadString copies them back out. The guest owns every
// block the host writes.
//
// The package also fixes the export names both sides depend on: the host
// module's import namespace and function names, the guest's callback
// exports, and the entry-point and allocator candidates the engine
// resolves in order.
package abi
