// Package bus provides the physical address map of the simulated platform:
// RAM windows, memory-mapped devices and the request ports through which
// the core reaches them.
package bus

import (
	"errors"
	"fmt"
	"sort"

	"github.com/sarchlab/mipsiss/mem"
)

// ErrNoDevice is returned for accesses to unmapped physical addresses.
var ErrNoDevice = errors.New("no device at address")

// Device is a memory-mapped peripheral. Offsets are relative to the base
// of the device window and word aligned. be selects byte lanes of data.
type Device interface {
	Read(offset uint32) (uint32, error)
	Write(offset uint32, be uint8, data uint32) error
}

// Ticker is implemented by devices with their own time base.
type Ticker interface {
	Tick(cycles uint64)
}

// Interrupter is implemented by devices that drive an interrupt line.
type Interrupter interface {
	IRQ() bool
}

// Region is one window of the physical address map.
type Region struct {
	Name string
	Base uint32
	Size uint32

	device Device
}

// Contains reports whether paddr falls into the region.
func (r *Region) Contains(paddr uint32) bool {
	return paddr >= r.Base && paddr-r.Base < r.Size
}

// IsRAM reports whether the region is backed by plain memory.
func (r *Region) IsRAM() bool {
	return r.device == nil
}

type irqSource struct {
	line uint
	src  Interrupter
}

// Bus routes word accesses to RAM or devices by physical address.
type Bus struct {
	memory  *mem.Memory
	regions []*Region
	tickers []Ticker
	irqs    []irqSource
}

// NewBus creates an empty address map whose RAM windows live in memory.
func NewBus(memory *mem.Memory) *Bus {
	return &Bus{memory: memory}
}

// Memory returns the backing store of the RAM windows.
func (b *Bus) Memory() *mem.Memory {
	return b.memory
}

// Regions returns the address map sorted by base.
func (b *Bus) Regions() []*Region {
	return b.regions
}

// MapRAM adds a RAM window.
func (b *Bus) MapRAM(name string, base, size uint32) error {
	return b.add(&Region{Name: name, Base: base, Size: size})
}

// MapDevice adds a device window. Devices that implement Ticker are
// advanced by Tick.
func (b *Bus) MapDevice(name string, base, size uint32, dev Device) error {
	if dev == nil {
		return fmt.Errorf("map %s: nil device", name)
	}
	if err := b.add(&Region{Name: name, Base: base, Size: size, device: dev}); err != nil {
		return err
	}
	if t, ok := dev.(Ticker); ok {
		b.tickers = append(b.tickers, t)
	}
	return nil
}

func (b *Bus) add(r *Region) error {
	if r.Size == 0 {
		return fmt.Errorf("map %s: empty region", r.Name)
	}
	if uint64(r.Base)+uint64(r.Size) > 1<<32 {
		return fmt.Errorf("map %s: region wraps the address space", r.Name)
	}
	for _, o := range b.regions {
		if r.Base < o.Base+o.Size && o.Base < r.Base+r.Size {
			return fmt.Errorf("map %s: overlaps %s at %#08x", r.Name, o.Name, o.Base)
		}
	}

	b.regions = append(b.regions, r)
	sort.Slice(b.regions, func(i, j int) bool {
		return b.regions[i].Base < b.regions[j].Base
	})
	return nil
}

// AttachIRQ connects an interrupt source to a hardware line (0..5).
func (b *Bus) AttachIRQ(line uint, src Interrupter) error {
	if line > 5 {
		return fmt.Errorf("irq line %d out of range", line)
	}
	b.irqs = append(b.irqs, irqSource{line: line, src: src})
	return nil
}

// IRQLines returns the current level of the hardware interrupt lines,
// bit i for line i.
func (b *Bus) IRQLines() uint32 {
	var lines uint32
	for _, s := range b.irqs {
		if s.src.IRQ() {
			lines |= 1 << s.line
		}
	}
	return lines
}

// Tick advances every device with a time base.
func (b *Bus) Tick(cycles uint64) {
	for _, t := range b.tickers {
		t.Tick(cycles)
	}
}

// Find returns the region holding paddr.
func (b *Bus) Find(paddr uint32) (*Region, bool) {
	i := sort.Search(len(b.regions), func(i int) bool {
		r := b.regions[i]
		return paddr < r.Base || r.Contains(paddr)
	})
	if i < len(b.regions) && b.regions[i].Contains(paddr) {
		return b.regions[i], true
	}
	return nil, false
}

// IsRAM reports whether paddr is backed by a RAM window.
func (b *Bus) IsRAM(paddr uint32) bool {
	r, ok := b.Find(paddr)
	return ok && r.IsRAM()
}

// ReadWord reads the aligned word holding paddr.
func (b *Bus) ReadWord(paddr uint32) (uint32, error) {
	paddr &^= 3
	r, ok := b.Find(paddr)
	if !ok {
		return 0, fmt.Errorf("read %#08x: %w", paddr, ErrNoDevice)
	}
	if r.IsRAM() {
		return b.memory.Read32(paddr), nil
	}
	return r.device.Read(paddr - r.Base)
}

// WriteWord writes the byte lanes of data selected by be into the aligned
// word holding paddr.
func (b *Bus) WriteWord(paddr uint32, be uint8, data uint32) error {
	paddr &^= 3
	r, ok := b.Find(paddr)
	if !ok {
		return fmt.Errorf("write %#08x: %w", paddr, ErrNoDevice)
	}
	if r.IsRAM() {
		for i := uint32(0); i < 4; i++ {
			if be&(1<<i) != 0 {
				b.memory.Write8(paddr+i, uint8(data>>(8*i)))
			}
		}
		return nil
	}
	return r.device.Write(paddr-r.Base, be, data)
}

// ReadBytes and WriteBytes expose the RAM windows as a cache backing
// store. Line fills never cross into device windows.
func (b *Bus) ReadBytes(paddr uint32, buf []byte) {
	b.memory.ReadBytes(paddr, buf)
}

// WriteBytes writes a cache line back to RAM.
func (b *Bus) WriteBytes(paddr uint32, data []byte) {
	b.memory.WriteBytes(paddr, data)
}

// Physical maps a MIPS32 virtual address to a physical one. kseg0 and
// kseg1 are unmapped windows onto the low 512MB; everything else is
// identity mapped since no TLB is modeled.
func Physical(vaddr uint32) uint32 {
	if vaddr >= 0x80000000 && vaddr < 0xc0000000 {
		return vaddr & 0x1fffffff
	}
	return vaddr
}

// Cacheable reports whether accesses through vaddr may be cached. kseg1
// is the uncached window.
func Cacheable(vaddr uint32) bool {
	return vaddr < 0xa0000000 || vaddr >= 0xc0000000
}
