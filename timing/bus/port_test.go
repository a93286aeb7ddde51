package bus_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mipsiss/emu"
	"github.com/sarchlab/mipsiss/mem"
	"github.com/sarchlab/mipsiss/timing/bus"
	"github.com/sarchlab/mipsiss/timing/cache"
)

var _ = Describe("Port", func() {
	var (
		memory *mem.Memory
		b      *bus.Bus
		helper *bus.SimHelper
		timing bus.PortTiming
	)

	BeforeEach(func() {
		memory = mem.NewMemory()
		b = bus.NewBus(memory)
		helper = bus.NewSimHelper(nil)
		timing = bus.PortTiming{MemoryLatency: 5, DeviceLatency: 3}

		Expect(b.MapRAM("ram", 0, 0x10000)).To(Succeed())
		Expect(b.MapDevice("simhelper", 0x1f000000, bus.SimHelperSize, helper)).To(Succeed())
	})

	It("should complete an uncached read after its latency", func() {
		memory.Write32(0x100, 0xcafef00d)
		p := bus.NewPort("data", b, timing)
		req := bus.Request{Addr: 0xa0000100, Mode: emu.ModeKernel}

		Expect(p.Access(req, 10).Valid).To(BeFalse())
		Expect(p.Remaining(10)).To(Equal(uint64(4)))

		Expect(p.Access(req, 13).Valid).To(BeFalse())
		Expect(p.Remaining(13)).To(Equal(uint64(1)))

		rsp := p.Access(req, 14)
		Expect(rsp.Valid).To(BeTrue())
		Expect(rsp.Error).To(BeFalse())
		Expect(rsp.Data).To(Equal(uint32(0xcafef00d)))
		Expect(p.Stats().Uncached).To(Equal(uint64(1)))
	})

	It("should answer immediately when the latency is one cycle", func() {
		p := bus.NewPort("data", b, bus.PortTiming{MemoryLatency: 1, DeviceLatency: 1})
		req := bus.Request{Addr: 0x100}

		Expect(p.Access(req, 0).Valid).To(BeTrue())
		Expect(p.Remaining(0)).To(BeZero())
	})

	It("should perform a write exactly once", func() {
		p := bus.NewPort("data", b, timing)
		req := bus.Request{Addr: 0x1f000000 + bus.SimHelperExitCode, Write: true, BE: 0xf, WData: 3}

		Expect(p.Access(req, 0).Valid).To(BeFalse())
		Expect(helper.Exited()).To(BeTrue())
		Expect(helper.ExitCode()).To(Equal(uint32(3)))

		Expect(p.Access(req, 2).Valid).To(BeTrue())
		Expect(p.Stats().Accesses).To(Equal(uint64(1)))
		Expect(p.Stats().Device).To(Equal(uint64(1)))
	})

	It("should start a new access for a repeated data request", func() {
		p := bus.NewPort("data", b, bus.PortTiming{MemoryLatency: 1, DeviceLatency: 1})
		req := bus.Request{Addr: 0x200, Write: true, BE: 0xf, WData: 1}

		Expect(p.Access(req, 0).Valid).To(BeTrue())
		Expect(p.Access(req, 1).Valid).To(BeTrue())
		Expect(p.Stats().Accesses).To(Equal(uint64(2)))
	})

	It("should retain a completed fetch", func() {
		p := bus.NewPort("inst", b, timing, bus.WithRetain())
		req := bus.Request{Addr: 0x100}

		p.Access(req, 0)
		Expect(p.Access(req, 4).Valid).To(BeTrue())
		Expect(p.Access(req, 5).Valid).To(BeTrue())
		Expect(p.Remaining(5)).To(BeZero())
		Expect(p.Stats().Accesses).To(Equal(uint64(1)))
	})

	It("should report bus errors for unmapped addresses", func() {
		p := bus.NewPort("data", b, timing)

		rsp := p.Access(bus.Request{Addr: 0x20000000}, 0)
		Expect(rsp.Valid).To(BeTrue())
		Expect(rsp.Error).To(BeTrue())
		Expect(p.Stats().Errors).To(Equal(uint64(1)))
	})

	It("should report bus errors for user accesses to kernel segments", func() {
		p := bus.NewPort("inst", b, timing)

		rsp := p.Access(bus.Request{Addr: 0x80000100, Mode: emu.ModeUser}, 0)
		Expect(rsp.Error).To(BeTrue())
	})

	It("should go through the cache for cacheable RAM", func() {
		c := cache.New(cache.Config{
			Size: 1024, Associativity: 2, BlockSize: 32,
			HitLatency: 1, MissLatency: 8,
		}, b)
		p := bus.NewPort("data", b, timing, bus.WithCache(c))
		memory.Write32(0x100, 0x12345678)

		read := bus.Request{Addr: 0x80000100}
		Expect(p.Access(read, 0).Valid).To(BeFalse())
		Expect(p.Remaining(0)).To(Equal(uint64(7)))
		Expect(p.Access(read, 7).Data).To(Equal(uint32(0x12345678)))

		rsp := p.Access(bus.Request{Addr: 0x80000104}, 8)
		Expect(rsp.Valid).To(BeTrue())
		Expect(c.Stats().Hits).To(Equal(uint64(1)))
		Expect(p.Stats().Cached).To(Equal(uint64(2)))
	})

	It("should bypass the cache in kseg1", func() {
		c := cache.New(cache.DefaultL1DConfig(), b)
		p := bus.NewPort("data", b, timing, bus.WithCache(c))

		p.Access(bus.Request{Addr: 0xa0000100, Write: true, BE: 0xf, WData: 9}, 0)
		Expect(memory.Read32(0x100)).To(Equal(uint32(9)))
		Expect(c.Stats().Writes).To(BeZero())
	})
})
