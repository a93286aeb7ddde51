package emu

// kernelSegment is the first address reserved to kernel mode.
const kernelSegment uint32 = 0x80000000

// LoadStoreUnit turns MIPS32 loads and stores into data accesses. Memory
// is not touched here; the engine issues the access on the bus and writes
// load results back when the response arrives.
type LoadStoreUnit struct {
	regFile *RegFile
}

// NewLoadStoreUnit creates a new LoadStoreUnit connected to the given
// register file.
func NewLoadStoreUnit(regFile *RegFile) *LoadStoreUnit {
	return &LoadStoreUnit{regFile: regFile}
}

// Address computes the effective address rs + offset.
func (lsu *LoadStoreUnit) Address(rs uint8, offset int32) uint32 {
	return lsu.regFile.ReadReg(rs) + uint32(offset)
}

// addressOK checks alignment and, outside kernel mode, that the access
// stays in the user segment.
func addressOK(addr uint32, size uint8, mode Mode) bool {
	if addr&uint32(size-1) != 0 {
		return false
	}
	return mode == ModeKernel || addr < kernelSegment
}

// Load builds the read for a load of size bytes into rt. It reports false
// on an address error.
func (lsu *LoadStoreUnit) Load(
	mode Mode, rt, rs uint8, offset int32, size uint8, signed bool,
) (MemAccess, uint32, bool) {
	addr := lsu.Address(rs, offset)
	if !addressOK(addr, size, mode) {
		return MemAccess{}, addr, false
	}
	return MemAccess{
		Valid:  true,
		Type:   DataRead,
		Addr:   addr,
		Size:   size,
		Dest:   rt,
		Signed: signed,
	}, addr, true
}

// Store builds the write of the low size bytes of rt. It reports false on
// an address error.
func (lsu *LoadStoreUnit) Store(
	mode Mode, rt, rs uint8, offset int32, size uint8,
) (MemAccess, uint32, bool) {
	addr := lsu.Address(rs, offset)
	if !addressOK(addr, size, mode) {
		return MemAccess{}, addr, false
	}
	return MemAccess{
		Valid: true,
		Type:  DataWrite,
		Addr:  addr,
		Size:  size,
		Value: lsu.regFile.ReadReg(rt) & sizeMask(size),
	}, addr, true
}
