package emu

import "math/bits"

func clampField(lo, v, hi int) uint32 {
	return uint32(max(lo, min(v, hi)))
}

func log2(n uint32) int {
	if n == 0 {
		return 0
	}
	return bits.Len32(n) - 1
}

// LinesToSetsField encodes a cache line count into the 3-bit Config1
// sets-per-way field: log2(lines)-6, clamped to 0..7.
func LinesToSetsField(lines uint32) uint32 {
	return clampField(0, log2(lines)-6, 7)
}

// LineSizeToLineField encodes a cache line size in bytes into the 3-bit
// Config1 line field. A zero line size means no cache and encodes as 0.
func LineSizeToLineField(lineSize uint32) uint32 {
	if lineSize == 0 {
		return 0
	}
	return clampField(1, log2(lineSize/4)+1, 7)
}

func assocField(assoc uint32) uint32 {
	return clampField(0, int(assoc)-1, 7)
}

// SetICacheInfo advertises the instruction cache geometry in Config1.
// It is called once during setup; execution never changes the fields.
func (s *ISS) SetICacheInfo(lineSize, assoc, lines uint32) {
	c := uint32(s.cp0.Config1)
	c = setField(c, 16, 3, assocField(assoc))
	c = setField(c, 22, 3, LinesToSetsField(lines))
	c = setField(c, 19, 3, LineSizeToLineField(lineSize))
	s.cp0.Config1 = Config1(c)
}

// SetDCacheInfo advertises the data cache geometry in Config1.
func (s *ISS) SetDCacheInfo(lineSize, assoc, lines uint32) {
	c := uint32(s.cp0.Config1)
	c = setField(c, 7, 3, assocField(assoc))
	c = setField(c, 13, 3, LinesToSetsField(lines))
	c = setField(c, 10, 3, LineSizeToLineField(lineSize))
	s.cp0.Config1 = Config1(c)
}
