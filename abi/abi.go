package abi

// Address locates a string in guest linear memory.
type Address struct {
	Ptr uint32
	Len uint32
}

// NotReady is the packed value readLine returns when no complete line is
// buffered. WriteString never produces it: empty strings still allocate,
// so a real address always has a nonzero pointer.
const NotReady uint64 = 0

// Pack encodes the address as a single value: pointer in the high 32 bits,
// length in the low 32 bits.
func (a Address) Pack() uint64 {
	return (uint64(a.Ptr) << 32) | uint64(a.Len)
}

// Unpack recovers an address from its packed form.
func Unpack(v uint64) Address {
	return Address{
		Ptr: uint32(v >> 32),
		Len: uint32(v & 0xFFFFFFFF),
	}
}
