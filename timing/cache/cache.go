// Package cache models the L1 instruction and data caches of the simulated
// platform using Akita cache components.
package cache

import (
	"fmt"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// Config holds cache configuration parameters.
type Config struct {
	// Size in bytes. Zero disables the cache.
	Size int `json:"size" yaml:"size"`
	// Associativity (number of ways)
	Associativity int `json:"associativity" yaml:"associativity"`
	// BlockSize in bytes (cache line size)
	BlockSize int `json:"block_size" yaml:"block_size"`
	// HitLatency in cycles
	HitLatency uint64 `json:"hit_latency" yaml:"hit_latency"`
	// MissLatency in cycles (includes the line fill)
	MissLatency uint64 `json:"miss_latency" yaml:"miss_latency"`
}

// DefaultL1IConfig returns the default instruction cache: 16KB, 4-way,
// 32B lines, which is what a MIPS32 4K-class core usually carries.
func DefaultL1IConfig() Config {
	return Config{
		Size:          16 * 1024,
		Associativity: 4,
		BlockSize:     32,
		HitLatency:    1,
		MissLatency:   20,
	}
}

// DefaultL1DConfig returns the default data cache.
func DefaultL1DConfig() Config {
	return Config{
		Size:          16 * 1024,
		Associativity: 4,
		BlockSize:     32,
		HitLatency:    1,
		MissLatency:   20,
	}
}

// Enabled reports whether the configuration describes a cache at all.
func (c Config) Enabled() bool {
	return c.Size > 0
}

// Lines returns the total number of cache lines.
func (c Config) Lines() int {
	if c.BlockSize == 0 {
		return 0
	}
	return c.Size / c.BlockSize
}

// Sets returns the number of sets.
func (c Config) Sets() int {
	if c.Associativity == 0 {
		return 0
	}
	return c.Lines() / c.Associativity
}

// Validate checks that the geometry can be built.
func (c Config) Validate() error {
	if !c.Enabled() {
		return nil
	}
	if c.BlockSize < 4 || c.BlockSize&(c.BlockSize-1) != 0 {
		return fmt.Errorf("block size must be a power of two >= 4, got %d", c.BlockSize)
	}
	if c.Associativity <= 0 {
		return fmt.Errorf("associativity must be positive, got %d", c.Associativity)
	}
	if c.Size%(c.BlockSize*c.Associativity) != 0 {
		return fmt.Errorf("size %d is not a multiple of %d-way x %dB",
			c.Size, c.Associativity, c.BlockSize)
	}
	if c.HitLatency == 0 || c.MissLatency < c.HitLatency {
		return fmt.Errorf("need 0 < hit latency <= miss latency, got %d/%d",
			c.HitLatency, c.MissLatency)
	}
	return nil
}

// AccessResult contains the result of a cache access.
type AccessResult struct {
	// Hit indicates whether the access was a cache hit.
	Hit bool
	// Latency is the number of cycles this access takes.
	Latency uint64
	// Data is the aligned word read, in lane order.
	Data uint32
	// Evicted is true if a valid block was replaced.
	Evicted bool
	// EvictedAddr is the address of the evicted block (if Evicted is true).
	EvictedAddr uint32
}

// Cache is a write-back, write-allocate cache in front of a BackingStore.
type Cache struct {
	config Config

	// Akita cache directory for tag/state management
	directory *akitacache.DirectoryImpl

	// Data storage - indexed by (setID * associativity + wayID)
	dataStore [][]byte

	stats   Statistics
	backing BackingStore
}

// Statistics holds cache performance statistics.
type Statistics struct {
	Reads      uint64
	Writes     uint64
	Hits       uint64
	Misses     uint64
	Evictions  uint64
	Writebacks uint64
}

// HitRate returns hits over accesses, or 0 before the first access.
func (s Statistics) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// BackingStore is the next level of the memory hierarchy.
type BackingStore interface {
	ReadBytes(addr uint32, buf []byte)
	WriteBytes(addr uint32, data []byte)
}

// New creates a new cache with the given configuration. The configuration
// must be enabled and valid.
func New(config Config, backing BackingStore) *Cache {
	numSets := config.Sets()
	totalBlocks := numSets * config.Associativity

	dataStore := make([][]byte, totalBlocks)
	for i := range dataStore {
		dataStore[i] = make([]byte, config.BlockSize)
	}

	return &Cache{
		config: config,
		directory: akitacache.NewDirectory(
			numSets,
			config.Associativity,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
		dataStore: dataStore,
		backing:   backing,
	}
}

// Config returns the cache configuration.
func (c *Cache) Config() Config {
	return c.config
}

// Stats returns cache statistics.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// ResetStats clears cache statistics.
func (c *Cache) ResetStats() {
	c.stats = Statistics{}
}

func (c *Cache) blockIndex(block *akitacache.Block) int {
	return block.SetID*c.config.Associativity + block.WayID
}

func (c *Cache) blockAddr(addr uint32) uint32 {
	return addr &^ uint32(c.config.BlockSize-1)
}

// lookup returns the data of the line holding addr, filling it on a miss.
func (c *Cache) lookup(addr uint32) ([]byte, *akitacache.Block, AccessResult) {
	blockAddr := c.blockAddr(addr)

	block := c.directory.Lookup(0, uint64(blockAddr))
	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block)
		result := AccessResult{Hit: true, Latency: c.config.HitLatency}
		return c.dataStore[c.blockIndex(block)], block, result
	}

	c.stats.Misses++
	return c.fill(blockAddr)
}

func (c *Cache) fill(blockAddr uint32) ([]byte, *akitacache.Block, AccessResult) {
	result := AccessResult{Latency: c.config.MissLatency}

	victim := c.directory.FindVictim(uint64(blockAddr))
	victimData := c.dataStore[c.blockIndex(victim)]

	if victim.IsValid {
		c.stats.Evictions++
		result.Evicted = true
		result.EvictedAddr = uint32(victim.Tag)

		if victim.IsDirty {
			c.stats.Writebacks++
			c.backing.WriteBytes(uint32(victim.Tag), victimData)
		}
	}

	c.backing.ReadBytes(blockAddr, victimData)

	// The tag holds the block-aligned address.
	victim.Tag = uint64(blockAddr)
	victim.IsValid = true
	victim.IsDirty = false
	c.directory.Visit(victim)

	return victimData, victim, result
}

// Read returns the aligned word holding addr.
func (c *Cache) Read(addr uint32) AccessResult {
	c.stats.Reads++

	data, _, result := c.lookup(addr)
	off := (addr &^ 3) & uint32(c.config.BlockSize-1)
	result.Data = uint32(data[off]) | uint32(data[off+1])<<8 |
		uint32(data[off+2])<<16 | uint32(data[off+3])<<24
	return result
}

// Write stores the byte lanes of data selected by be into the aligned word
// holding addr.
func (c *Cache) Write(addr uint32, be uint8, data uint32) AccessResult {
	c.stats.Writes++

	line, block, result := c.lookup(addr)
	off := (addr &^ 3) & uint32(c.config.BlockSize-1)
	for i := uint32(0); i < 4; i++ {
		if be&(1<<i) != 0 {
			line[off+i] = byte(data >> (8 * i))
		}
	}
	block.IsDirty = true
	return result
}

// Contains reports whether addr is currently cached, without touching LRU
// state or statistics.
func (c *Cache) Contains(addr uint32) bool {
	block := c.directory.Lookup(0, uint64(c.blockAddr(addr)))
	return block != nil && block.IsValid
}

// Invalidate drops the line holding addr without writing it back.
func (c *Cache) Invalidate(addr uint32) {
	block := c.directory.Lookup(0, uint64(c.blockAddr(addr)))
	if block != nil && block.IsValid {
		block.IsValid = false
		block.IsDirty = false
	}
}

// Flush writes back all dirty blocks and invalidates them.
func (c *Cache) Flush() {
	for _, set := range c.directory.GetSets() {
		for _, block := range set.Blocks {
			if block.IsValid && block.IsDirty {
				c.backing.WriteBytes(uint32(block.Tag), c.dataStore[c.blockIndex(block)])
				c.stats.Writebacks++
			}
			block.IsValid = false
			block.IsDirty = false
		}
	}
}

// Reset invalidates all cache lines without writeback.
func (c *Cache) Reset() {
	c.directory.Reset()
	c.stats = Statistics{}
}
