package emu

import "math/bits"

func sizeMask(size uint8) uint32 {
	return uint32(uint64(1)<<(8*uint(size)) - 1)
}

// laneSwap converts a right-justified value between core and memory byte
// order. Byte lanes are indexed by address, so a big-endian core sees
// every multi-byte quantity reversed.
func (s *ISS) laneSwap(v uint32, size uint8) uint32 {
	if s.littleEndian {
		return v
	}
	switch size {
	case 2:
		return uint32(bits.ReverseBytes16(uint16(v)))
	case 4:
		return bits.ReverseBytes32(v)
	}
	return v
}

// issue turns an executor memory access into the outstanding DataRequest.
func (s *ISS) issue(m MemAccess) {
	off := uint8(m.Addr & 3)
	size := m.Size
	if size == 0 || size > 4 {
		size = 4
	}

	req := DataRequest{
		Valid: true,
		Type:  m.Type,
		Addr:  m.Addr &^ 3,
		BE:    uint8((1<<size - 1) << off),
		Mode:  s.mode,
	}
	if m.Type == DataWrite {
		req.WData = s.laneSwap(m.Value&sizeMask(size), size) << (8 * off)
	} else {
		s.load = pendingLoad{
			dest:   m.Dest,
			size:   size,
			signed: m.Signed,
			offset: off,
		}
	}

	s.dreq = req
	s.dataAddr = m.Addr
}

// completeLoad writes the data of a finished read to its destination.
func (s *ISS) completeLoad(rdata uint32) {
	l := s.load
	v := s.laneSwap((rdata>>(8*l.offset))&sizeMask(l.size), l.size)

	if l.signed {
		switch l.size {
		case 1:
			v = uint32(int32(int8(v)))
		case 2:
			v = uint32(int32(int16(v)))
		}
	}

	s.regs.WriteReg(l.dest, v)
	s.load = pendingLoad{}
}
