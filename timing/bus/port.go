package bus

import (
	"github.com/sarchlab/mipsiss/emu"
	"github.com/sarchlab/mipsiss/timing/cache"
)

// Request is one word access issued through a Port. Addr is virtual.
type Request struct {
	Addr  uint32
	Write bool
	BE    uint8
	WData uint32
	Mode  emu.Mode
}

// Response completes a Request once its latency has elapsed.
type Response struct {
	Valid bool
	Error bool
	Data  uint32
}

// PortTiming holds the latencies of accesses that bypass the cache.
type PortTiming struct {
	MemoryLatency uint64
	DeviceLatency uint64
}

// PortStats counts the traffic of a Port.
type PortStats struct {
	Accesses uint64
	Cached   uint64
	Uncached uint64
	Device   uint64
	Errors   uint64
}

// Port services the requests of one side of the core (instruction fetch or
// data) with latency. The access itself is performed when the request is
// first seen; the response turns valid once the latency has elapsed.
type Port struct {
	name   string
	bus    *Bus
	cache  *cache.Cache
	timing PortTiming

	// retain keeps a completed response for identical follow-up requests,
	// which a frozen core re-issues for its fetch.
	retain bool

	busy    bool
	done    bool
	req     Request
	readyAt uint64
	rsp     Response

	stats PortStats
}

// PortOption configures a Port.
type PortOption func(*Port)

// WithCache puts a cache in front of the RAM windows.
func WithCache(c *cache.Cache) PortOption {
	return func(p *Port) {
		p.cache = c
	}
}

// WithRetain keeps completed responses for repeated requests. Only
// side-effect free request streams may use it.
func WithRetain() PortOption {
	return func(p *Port) {
		p.retain = true
	}
}

// NewPort creates a port into bus.
func NewPort(name string, bus *Bus, timing PortTiming, opts ...PortOption) *Port {
	p := &Port{name: name, bus: bus, timing: timing}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the port name.
func (p *Port) Name() string {
	return p.name
}

// Cache returns the cache in front of the port, or nil.
func (p *Port) Cache() *cache.Cache {
	return p.cache
}

// Stats returns the port statistics.
func (p *Port) Stats() PortStats {
	return p.stats
}

// Reset drops any access in flight and clears the statistics.
func (p *Port) Reset() {
	p.busy = false
	p.done = false
	p.stats = PortStats{}
}

// Access services req at cycle now. A request differing from the one in
// flight starts a new access.
func (p *Port) Access(req Request, now uint64) Response {
	if !p.busy || p.req != req {
		p.start(req, now)
	}

	if now < p.readyAt {
		return Response{}
	}

	rsp := p.rsp
	p.done = true
	if !p.retain {
		p.busy = false
	}
	return rsp
}

// Remaining returns the cycles until the access in flight completes.
func (p *Port) Remaining(now uint64) uint64 {
	if !p.busy || p.done || now >= p.readyAt {
		return 0
	}
	return p.readyAt - now
}

func (p *Port) start(req Request, now uint64) {
	p.busy = true
	p.done = false
	p.req = req
	p.stats.Accesses++

	latency, rsp := p.perform(req)
	if rsp.Error {
		p.stats.Errors++
	}
	p.rsp = rsp
	p.readyAt = now + max(latency, 1) - 1
}

func (p *Port) perform(req Request) (uint64, Response) {
	// No TLB: user mode may only reach kuseg.
	if req.Mode == emu.ModeUser && req.Addr >= 0x80000000 {
		return 1, Response{Valid: true, Error: true}
	}

	paddr := Physical(req.Addr)
	region, ok := p.bus.Find(paddr)
	if !ok {
		return 1, Response{Valid: true, Error: true}
	}

	if region.IsRAM() && p.cache != nil && Cacheable(req.Addr) {
		p.stats.Cached++
		var res cache.AccessResult
		if req.Write {
			res = p.cache.Write(paddr, req.BE, req.WData)
		} else {
			res = p.cache.Read(paddr)
		}
		return res.Latency, Response{Valid: true, Data: res.Data}
	}

	latency := p.timing.MemoryLatency
	if region.IsRAM() {
		p.stats.Uncached++
	} else {
		p.stats.Device++
		latency = p.timing.DeviceLatency
	}

	var (
		data uint32
		err  error
	)
	if req.Write {
		err = p.bus.WriteWord(paddr, req.BE, req.WData)
	} else {
		data, err = p.bus.ReadWord(paddr)
	}
	if err != nil {
		return latency, Response{Valid: true, Error: true}
	}
	return latency, Response{Valid: true, Data: data}
}
