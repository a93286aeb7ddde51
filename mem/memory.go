// Package mem provides the sparse byte-addressable memory backing the
// simulated platform.
package mem

import "encoding/binary"

const (
	pageBits = 12
	pageSize = 1 << pageBits
	pageMask = pageSize - 1
)

type page [pageSize]byte

// Memory is a sparse, paged, little-endian 32-bit address space. Pages are
// allocated on first write; reads of untouched pages return zero.
type Memory struct {
	pages map[uint32]*page
}

// NewMemory creates an empty memory.
func NewMemory() *Memory {
	return &Memory{pages: make(map[uint32]*page)}
}

func (m *Memory) lookup(addr uint32, alloc bool) *page {
	n := addr >> pageBits
	p, ok := m.pages[n]
	if !ok && alloc {
		p = new(page)
		m.pages[n] = p
	}
	return p
}

// Read8 reads a byte.
func (m *Memory) Read8(addr uint32) uint8 {
	p := m.lookup(addr, false)
	if p == nil {
		return 0
	}
	return p[addr&pageMask]
}

// Write8 writes a byte.
func (m *Memory) Write8(addr uint32, value uint8) {
	m.lookup(addr, true)[addr&pageMask] = value
}

// Read16 reads a little-endian halfword.
func (m *Memory) Read16(addr uint32) uint16 {
	var buf [2]byte
	m.ReadBytes(addr, buf[:])
	return binary.LittleEndian.Uint16(buf[:])
}

// Write16 writes a little-endian halfword.
func (m *Memory) Write16(addr uint32, value uint16) {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], value)
	m.WriteBytes(addr, buf[:])
}

// Read32 reads a little-endian word.
func (m *Memory) Read32(addr uint32) uint32 {
	// Aligned words never straddle a page.
	if addr&3 == 0 {
		p := m.lookup(addr, false)
		if p == nil {
			return 0
		}
		off := addr & pageMask
		return binary.LittleEndian.Uint32(p[off : off+4])
	}
	var buf [4]byte
	m.ReadBytes(addr, buf[:])
	return binary.LittleEndian.Uint32(buf[:])
}

// Write32 writes a little-endian word.
func (m *Memory) Write32(addr uint32, value uint32) {
	if addr&3 == 0 {
		off := addr & pageMask
		binary.LittleEndian.PutUint32(m.lookup(addr, true)[off:off+4], value)
		return
	}
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], value)
	m.WriteBytes(addr, buf[:])
}

// ReadBytes fills buf with the bytes starting at addr. The address wraps
// at the top of the 32-bit space.
func (m *Memory) ReadBytes(addr uint32, buf []byte) {
	for len(buf) > 0 {
		off := addr & pageMask
		n := min(len(buf), int(pageSize-off))
		if p := m.lookup(addr, false); p != nil {
			copy(buf[:n], p[off:])
		} else {
			clear(buf[:n])
		}
		buf = buf[n:]
		addr += uint32(n)
	}
}

// WriteBytes copies data into memory starting at addr.
func (m *Memory) WriteBytes(addr uint32, data []byte) {
	for len(data) > 0 {
		off := addr & pageMask
		n := copy(m.lookup(addr, true)[off:], data)
		data = data[n:]
		addr += uint32(n)
	}
}

// LoadProgram copies a program image into memory at the given address.
func (m *Memory) LoadProgram(addr uint32, program []byte) {
	m.WriteBytes(addr, program)
}

// Zero clears size bytes starting at addr (used for .bss segments).
func (m *Memory) Zero(addr, size uint32) {
	for size > 0 {
		off := addr & pageMask
		n := min(size, pageSize-off)
		if p := m.lookup(addr, false); p != nil {
			clear(p[off : off+n])
		}
		size -= n
		addr += n
	}
}

// PageCount returns the number of allocated pages.
func (m *Memory) PageCount() int {
	return len(m.pages)
}
